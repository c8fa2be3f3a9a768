package odata

import (
	"encoding/json"
	"fmt"
)

// Cell is a single typed value of a row. A missing cell carries no value.
type Cell struct {
	Type    ColumnType
	Missing bool
	value   any
}

func IntCell(v int64) Cell {
	return Cell{Type: ColumnTypeInteger, value: v}
}

func TextCell(v string) Cell {
	return Cell{Type: ColumnTypeText, value: v}
}

func DecimalCell(v float64) Cell {
	return Cell{Type: ColumnTypeDecimal, value: v}
}

func MissingCell() Cell {
	return Cell{Missing: true}
}

// Value returns the underlying int64, string or float64, or nil for a missing cell
func (c Cell) Value() any {
	if c.Missing {
		return nil
	}
	return c.value
}

func (c Cell) String() string {
	if c.Missing {
		return "?"
	}
	return fmt.Sprintf("%v", c.value)
}

func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Value())
}

// Row is an emitted record. Key is "Row<n>" in emission order.
type Row struct {
	Key   string `json:"key"`
	Cells []Cell `json:"cells"`
}

// Values returns the raw cell values
func (r Row) Values() []any {
	values := make([]any, len(r.Cells))
	for i, c := range r.Cells {
		values[i] = c.Value()
	}
	return values
}

// Table is a committed output: the declared schema and its rows
type Table struct {
	Schema OutputSchema `json:"schema"`
	Rows   []Row        `json:"rows"`
}

// RowCount returns the number of rows in the table
func (t *Table) RowCount() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
