package odata

// Column is one entry of an output schema
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// OutputSchema lists the output columns in selection order
type OutputSchema []Column

// DeriveSchema declares the output columns of spec without touching the network.
// Types come from the same descriptor table the mapper coerces with.
func DeriveSchema(spec QuerySpec) OutputSchema {
	schema := make(OutputSchema, 0, len(spec.fields))
	for _, name := range spec.fields {
		column := Column{Name: name, Type: ColumnTypeText}
		if f, ok := LookupField(name); ok {
			column.Type = f.Type
		}
		schema = append(schema, column)
	}
	return schema
}

// Names returns the column names in order
func (s OutputSchema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}
