package odata

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	rows []Row
}

func (s *recordingSink) AddRow(row Row) error {
	s.rows = append(s.rows, row)
	return nil
}

type progressCall struct {
	fraction float64
	message  string
}

// stubMonitor cancels once cancelAfter rows have been reported (0 never cancels)
type stubMonitor struct {
	cancelAfter int
	progress    []progressCall
}

func (m *stubMonitor) SetProgress(fraction float64, message string) {
	m.progress = append(m.progress, progressCall{fraction: fraction, message: message})
}

func (m *stubMonitor) CheckCanceled() error {
	if m.cancelAfter > 0 && len(m.progress) >= m.cancelAfter {
		return ErrCanceled
	}
	return nil
}

const threeProducts = `{"value":[
	{"ID":0,"Name":"Bread","Description":"Whole grain bread","Price":2.5},
	{"ID":1,"Name":"Milk","Description":"Low fat milk","Price":3.5},
	{"ID":2,"Name":"Vint soda","Description":"Americana Variety","Price":20.9}
]}`

func mustSpec(t *testing.T, fields ...string) QuerySpec {
	t.Helper()
	spec, err := NewQuerySpec(fields, false, 0)
	require.NoError(t, err)
	return spec
}

func TestMapResponse_SelectedFields(t *testing.T) {
	body := `{"value":[{"ID":1,"Name":"Widget","Description":"A widget","Price":9.99}]}`
	sink := &recordingSink{}
	monitor := &stubMonitor{}

	n, err := MapResponse([]byte(body), mustSpec(t, "ID", "Price"), sink, monitor)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, sink.rows, 1)
	assert.Equal(t, "Row0", sink.rows[0].Key)
	assert.Equal(t, []any{int64(1), 9.99}, sink.rows[0].Values())
	assert.Equal(t, ColumnTypeInteger, sink.rows[0].Cells[0].Type)
	assert.Equal(t, ColumnTypeDecimal, sink.rows[0].Cells[1].Type)
	assert.Equal(t, []progressCall{{fraction: 1, message: "Added row 1 of 1"}}, monitor.progress)
}

func TestMapResponse_OrderAndKeys(t *testing.T) {
	sink := &recordingSink{}
	monitor := &stubMonitor{}

	n, err := MapResponse([]byte(threeProducts), mustSpec(t, "Name", "ID"), sink, monitor)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, sink.rows, 3)
	for i, want := range [][]any{{"Bread", int64(0)}, {"Milk", int64(1)}, {"Vint soda", int64(2)}} {
		assert.Equal(t, fmt.Sprintf("Row%d", i), sink.rows[i].Key)
		assert.Equal(t, want, sink.rows[i].Values())
	}
	require.Len(t, monitor.progress, 3)
	assert.InDelta(t, 1.0/3, monitor.progress[0].fraction, 1e-9)
	assert.Equal(t, "Added row 3 of 3", monitor.progress[2].message)
}

func TestMapResponse_EmptyValue(t *testing.T) {
	sink := &recordingSink{}
	monitor := &stubMonitor{}

	n, err := MapResponse([]byte(`{"value":[]}`), mustSpec(t, "ID"), sink, monitor)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, sink.rows)
	require.Len(t, monitor.progress, 1)
	assert.Equal(t, 1.0, monitor.progress[0].fraction)
}

func TestMapResponse_MissingValue(t *testing.T) {
	for _, body := range []string{`{"items":[]}`, `{"value":{}}`, `[]`, `not json`} {
		sink := &recordingSink{}
		_, err := MapResponse([]byte(body), mustSpec(t, "ID"), sink, &stubMonitor{})

		var malformed *MalformedResponseError
		require.ErrorAs(t, err, &malformed, body)
		assert.Equal(t, -1, malformed.Record)
		assert.Empty(t, sink.rows)
	}
}

func TestMapResponse_MissingField(t *testing.T) {
	body := `{"value":[{"ID":1,"Name":"Widget"},{"ID":2}]}`
	sink := &recordingSink{}

	n, err := MapResponse([]byte(body), mustSpec(t, "ID", "Name"), sink, &stubMonitor{})

	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "Name", malformed.Field)
	assert.Equal(t, 1, malformed.Record)
	assert.Contains(t, err.Error(), `record 1, field "Name"`)
	assert.Equal(t, 1, n)
}

func TestMapResponse_WrongTypes(t *testing.T) {
	cases := map[string]struct {
		body  string
		field string
	}{
		"fractional id":  {body: `{"value":[{"ID":1.5}]}`, field: "ID"},
		"string id":      {body: `{"value":[{"ID":"abc"}]}`, field: "ID"},
		"null name":      {body: `{"value":[{"Name":null}]}`, field: "Name"},
		"object name":    {body: `{"value":[{"Name":{"en":"x"}}]}`, field: "Name"},
		"boolean price":  {body: `{"value":[{"Price":true}]}`, field: "Price"},
		"non-numeric px": {body: `{"value":[{"Price":"cheap"}]}`, field: "Price"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := MapResponse([]byte(tc.body), mustSpec(t, tc.field), &recordingSink{}, &stubMonitor{})

			var malformed *MalformedResponseError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tc.field, malformed.Field)
			assert.Equal(t, 0, malformed.Record)
		})
	}
}

func TestMapResponse_Coercion(t *testing.T) {
	body := `{"value":[{"ID":"7","Name":42,"Description":true,"Price":"2.5"}]}`
	sink := &recordingSink{}

	_, err := MapResponse([]byte(body), mustSpec(t, "ID", "Name", "Description", "Price"), sink, &stubMonitor{})
	require.NoError(t, err)
	require.Len(t, sink.rows, 1)
	assert.Equal(t, []any{int64(7), "42", "true", 2.5}, sink.rows[0].Values())
}

func TestMapResponse_NonObjectRecord(t *testing.T) {
	_, err := MapResponse([]byte(`{"value":[1]}`), mustSpec(t, "ID"), &recordingSink{}, &stubMonitor{})

	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 0, malformed.Record)
	assert.Empty(t, malformed.Field)
}

func TestMapResponse_UnknownFieldIsMissingCell(t *testing.T) {
	// bypasses NewQuerySpec validation on purpose
	spec := QuerySpec{fields: []string{"ID", "Rating"}}
	sink := &recordingSink{}

	_, err := MapResponse([]byte(`{"value":[{"ID":3}]}`), spec, sink, &stubMonitor{})
	require.NoError(t, err)
	require.Len(t, sink.rows, 1)
	assert.True(t, sink.rows[0].Cells[1].Missing)
	assert.Equal(t, []any{int64(3), nil}, sink.rows[0].Values())
}

func TestMapResponse_CanceledAfterFirstRow(t *testing.T) {
	sink := &recordingSink{}
	monitor := &stubMonitor{cancelAfter: 1}

	n, err := MapResponse([]byte(threeProducts), mustSpec(t, "ID"), sink, monitor)
	assert.ErrorIs(t, err, ErrCanceled)
	assert.Equal(t, 1, n)
	assert.Len(t, sink.rows, 1)
}
