package odata

// ColumnType is the cell type of an output column
type ColumnType string

const (
	ColumnTypeInteger ColumnType = "integer"
	ColumnTypeText    ColumnType = "text"
	ColumnTypeDecimal ColumnType = "decimal"
)

// FieldDescriptor maps a product property to the type of its output column
type FieldDescriptor struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// fieldDescriptors is the closed set of product properties the node can read.
// Order is the default column order.
var fieldDescriptors = []FieldDescriptor{
	{Name: "ID", Type: ColumnTypeInteger},
	{Name: "Name", Type: ColumnTypeText},
	{Name: "Description", Type: ColumnTypeText},
	{Name: "Price", Type: ColumnTypeDecimal},
}

var fieldsByName = func() map[string]FieldDescriptor {
	m := make(map[string]FieldDescriptor, len(fieldDescriptors))
	for _, f := range fieldDescriptors {
		m[f.Name] = f
	}
	return m
}()

// LookupField returns the descriptor registered for name
func LookupField(name string) (FieldDescriptor, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// Fields returns a copy of the descriptor table
func Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, len(fieldDescriptors))
	copy(out, fieldDescriptors)
	return out
}

// DefaultFields returns every known field name in default order
func DefaultFields() []string {
	names := make([]string, len(fieldDescriptors))
	for i, f := range fieldDescriptors {
		names[i] = f.Name
	}
	return names
}
