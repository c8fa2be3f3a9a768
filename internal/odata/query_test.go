package odata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildQuery_Select(t *testing.T) {
	for _, fields := range fieldSelections() {
		spec, err := NewQuerySpec(fields, false, 0)
		require.NoError(t, err)

		query := BuildQuery(spec)
		if len(fields) < len(DefaultFields()) {
			assert.Equal(t, strings.Join(fields, ","), query.Get("$select"), "fields %v", fields)
		} else {
			_, present := query["$select"]
			assert.False(t, present, "fields %v", fields)
		}
	}
}

func TestBuildQuery_Top(t *testing.T) {
	spec, err := NewQuerySpec([]string{"ID"}, true, 7)
	require.NoError(t, err)
	assert.Equal(t, "7", BuildQuery(spec).Get("$top"))

	spec, err = NewQuerySpec([]string{"ID"}, false, 7)
	require.NoError(t, err)
	_, present := BuildQuery(spec)["$top"]
	assert.False(t, present)
}

func TestRequestURL(t *testing.T) {
	spec, err := NewQuerySpec(DefaultFields(), false, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultServiceURL, RequestURL(DefaultServiceURL, spec))

	spec, err = NewQuerySpec([]string{"ID", "Name"}, true, 3)
	require.NoError(t, err)
	assert.Equal(t, DefaultServiceURL+"?%24select=ID%2CName&%24top=3", RequestURL(DefaultServiceURL, spec))
}
