package odata

// QuerySpec is the validated description of what one run fetches.
// Build it with NewQuerySpec; it is not modified afterwards.
type QuerySpec struct {
	fields       []string
	limitEnabled bool
	limit        int
}

// NewQuerySpec validates raw node settings and returns the query they describe.
// limit is only considered when limitEnabled is true.
func NewQuerySpec(fields []string, limitEnabled bool, limit int) (QuerySpec, error) {
	if len(fields) == 0 {
		return QuerySpec{}, newConfigurationError("no columns selected")
	}

	seen := make(map[string]struct{}, len(fields))
	for _, name := range fields {
		if _, ok := LookupField(name); !ok {
			return QuerySpec{}, newConfigurationError("unknown column %q", name)
		}
		if _, dup := seen[name]; dup {
			return QuerySpec{}, newConfigurationError("duplicate column %q", name)
		}
		seen[name] = struct{}{}
	}

	if !limitEnabled {
		limit = 0
	} else if limit <= 0 {
		return QuerySpec{}, newConfigurationError("invalid limit")
	}

	selected := make([]string, len(fields))
	copy(selected, fields)
	return QuerySpec{fields: selected, limitEnabled: limitEnabled, limit: limit}, nil
}

// Fields returns the selected field names in output order
func (q QuerySpec) Fields() []string {
	out := make([]string, len(q.fields))
	copy(out, q.fields)
	return out
}

// Limit returns the row cap and whether it applies
func (q QuerySpec) Limit() (int, bool) {
	return q.limit, q.limitEnabled
}

// SelectsAllFields reports whether every known field is selected, in any order
func (q QuerySpec) SelectsAllFields() bool {
	if len(q.fields) != len(fieldDescriptors) {
		return false
	}
	selected := make(map[string]struct{}, len(q.fields))
	for _, name := range q.fields {
		selected[name] = struct{}{}
	}
	for _, f := range fieldDescriptors {
		if _, ok := selected[f.Name]; !ok {
			return false
		}
	}
	return true
}
