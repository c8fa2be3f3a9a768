package odata

import (
	"fmt"
	"strconv"

	"github.com/valyala/fastjson"
)

// Monitor is what the mapper needs from the host: progress reporting and a
// cooperative cancellation check polled after every row.
type Monitor interface {
	SetProgress(fraction float64, message string)
	// CheckCanceled returns ErrCanceled once the run has been aborted
	CheckCanceled() error
}

// RowSink receives rows as they are built
type RowSink interface {
	AddRow(row Row) error
}

// MapResponse parses an OData payload and pushes one row per product into sink.
// It stops at the first malformed record; rows already handed to sink are left
// for the caller to discard. Returns the number of rows emitted.
func MapResponse(body []byte, spec QuerySpec, sink RowSink, monitor Monitor) (int, error) {
	var p fastjson.Parser
	doc, err := p.ParseBytes(body)
	if err != nil {
		return 0, &MalformedResponseError{Reason: fmt.Sprintf("invalid JSON: %v", err), Record: -1}
	}
	if doc.Type() != fastjson.TypeObject {
		return 0, &MalformedResponseError{Reason: "expected a JSON object", Record: -1}
	}

	value := doc.Get("value")
	if value == nil {
		return 0, &MalformedResponseError{Reason: `missing "value" array`, Record: -1}
	}
	products, err := value.Array()
	if err != nil {
		return 0, &MalformedResponseError{Reason: `"value" is not an array`, Record: -1}
	}

	total := len(products)
	if total == 0 {
		monitor.SetProgress(1, "No products returned")
		return 0, nil
	}

	fields := spec.fields
	for i, product := range products {
		if product.Type() != fastjson.TypeObject {
			return i, &MalformedResponseError{Reason: "expected a JSON object", Record: i}
		}

		cells := make([]Cell, 0, len(fields))
		for _, name := range fields {
			cell, err := extractCell(product, name)
			if err != nil {
				return i, &MalformedResponseError{Reason: err.Error(), Field: name, Record: i}
			}
			cells = append(cells, cell)
		}

		if err := sink.AddRow(Row{Key: "Row" + strconv.Itoa(i), Cells: cells}); err != nil {
			return i, err
		}
		emitted := i + 1

		monitor.SetProgress(float64(emitted)/float64(total), fmt.Sprintf("Added row %d of %d", emitted, total))
		if err := monitor.CheckCanceled(); err != nil {
			return emitted, err
		}
	}

	return total, nil
}

func extractCell(product *fastjson.Value, name string) (Cell, error) {
	f, ok := LookupField(name)
	if !ok {
		return MissingCell(), nil
	}

	v := product.Get(name)
	if v == nil {
		return Cell{}, fmt.Errorf("property is missing")
	}

	switch f.Type {
	case ColumnTypeInteger:
		n, err := toInt64(v)
		if err != nil {
			return Cell{}, err
		}
		return IntCell(n), nil
	case ColumnTypeText:
		s, err := toText(v)
		if err != nil {
			return Cell{}, err
		}
		return TextCell(s), nil
	case ColumnTypeDecimal:
		d, err := toFloat64(v)
		if err != nil {
			return Cell{}, err
		}
		return DecimalCell(d), nil
	default:
		return MissingCell(), nil
	}
}

func toInt64(v *fastjson.Value) (int64, error) {
	switch v.Type() {
	case fastjson.TypeNumber:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %s", v.String())
		}
		return n, nil
	case fastjson.TypeString:
		// IEEE754Compatible payloads carry numbers as strings
		n, err := strconv.ParseInt(string(v.GetStringBytes()), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %s", v.String())
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected an integer, got %s", v.Type())
	}
}

func toFloat64(v *fastjson.Value) (float64, error) {
	switch v.Type() {
	case fastjson.TypeNumber:
		return v.Float64()
	case fastjson.TypeString:
		d, err := strconv.ParseFloat(string(v.GetStringBytes()), 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %s", v.String())
		}
		return d, nil
	default:
		return 0, fmt.Errorf("expected a number, got %s", v.Type())
	}
}

func toText(v *fastjson.Value) (string, error) {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes()), nil
	case fastjson.TypeNumber, fastjson.TypeTrue, fastjson.TypeFalse:
		return v.String(), nil
	default:
		return "", fmt.Errorf("expected a string, got %s", v.Type())
	}
}
