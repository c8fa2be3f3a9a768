package odata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuerySpec_Valid(t *testing.T) {
	spec, err := NewQuerySpec([]string{"Price", "ID"}, true, 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"Price", "ID"}, spec.Fields())
	limit, ok := spec.Limit()
	assert.True(t, ok)
	assert.Equal(t, 5, limit)
}

func TestNewQuerySpec_NoColumns(t *testing.T) {
	for _, fields := range [][]string{nil, {}} {
		_, err := NewQuerySpec(fields, false, 10)
		require.Error(t, err)

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "no columns selected", cfgErr.Reason)
	}
}

func TestNewQuerySpec_InvalidLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		_, err := NewQuerySpec([]string{"ID"}, true, limit)

		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "invalid limit", cfgErr.Reason)
	}
}

func TestNewQuerySpec_LimitIgnoredWhenDisabled(t *testing.T) {
	spec, err := NewQuerySpec([]string{"ID"}, false, -3)
	require.NoError(t, err)

	limit, ok := spec.Limit()
	assert.False(t, ok)
	assert.Zero(t, limit)
}

func TestNewQuerySpec_UnknownColumn(t *testing.T) {
	_, err := NewQuerySpec([]string{"ID", "Rating"}, false, 0)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), `"Rating"`)
}

func TestNewQuerySpec_DuplicateColumn(t *testing.T) {
	_, err := NewQuerySpec([]string{"Name", "Name"}, false, 0)
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
	assert.Contains(t, err.Error(), "duplicate")
}

func TestQuerySpec_FieldsIsACopy(t *testing.T) {
	input := []string{"ID", "Name"}
	spec, err := NewQuerySpec(input, false, 0)
	require.NoError(t, err)

	input[0] = "Price"
	fields := spec.Fields()
	fields[1] = "Description"

	assert.Equal(t, []string{"ID", "Name"}, spec.Fields())
}

func TestQuerySpec_SelectsAllFields(t *testing.T) {
	all, err := NewQuerySpec(DefaultFields(), false, 0)
	require.NoError(t, err)
	assert.True(t, all.SelectsAllFields())

	reordered, err := NewQuerySpec([]string{"Price", "Description", "Name", "ID"}, false, 0)
	require.NoError(t, err)
	assert.True(t, reordered.SelectsAllFields())

	subset, err := NewQuerySpec([]string{"ID", "Name", "Price"}, false, 0)
	require.NoError(t, err)
	assert.False(t, subset.SelectsAllFields())
}
