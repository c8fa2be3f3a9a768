package odata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// permutations of every non-empty subset of the known fields
func fieldSelections() [][]string {
	names := DefaultFields()
	var out [][]string
	var build func(prefix []string, used map[string]bool)
	build = func(prefix []string, used map[string]bool) {
		if len(prefix) > 0 {
			out = append(out, append([]string(nil), prefix...))
		}
		for _, n := range names {
			if used[n] {
				continue
			}
			used[n] = true
			build(append(prefix, n), used)
			used[n] = false
		}
	}
	build(nil, map[string]bool{})
	return out
}

func TestDeriveSchema_OrderAndLength(t *testing.T) {
	selections := fieldSelections()
	require.Len(t, selections, 64)

	for _, fields := range selections {
		spec, err := NewQuerySpec(fields, false, 0)
		require.NoError(t, err)

		schema := DeriveSchema(spec)
		require.Len(t, schema, len(fields))
		assert.Equal(t, fields, schema.Names())
	}
}

func TestDeriveSchema_Types(t *testing.T) {
	spec, err := NewQuerySpec([]string{"Description", "Price", "ID", "Name"}, false, 0)
	require.NoError(t, err)

	assert.Equal(t, OutputSchema{
		{Name: "Description", Type: ColumnTypeText},
		{Name: "Price", Type: ColumnTypeDecimal},
		{Name: "ID", Type: ColumnTypeInteger},
		{Name: "Name", Type: ColumnTypeText},
	}, DeriveSchema(spec))
}

func TestLookupField(t *testing.T) {
	f, ok := LookupField("Price")
	require.True(t, ok)
	assert.Equal(t, ColumnTypeDecimal, f.Type)

	_, ok = LookupField("price")
	assert.False(t, ok)
}
