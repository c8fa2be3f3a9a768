package odata

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultServiceURL is the public OData products entity set
const DefaultServiceURL = "https://services.odata.org/V4/OData/OData.svc/Products"

const (
	paramSelect = "$select"
	paramTop    = "$top"
)

// BuildQuery returns the OData query options for spec.
// $select is left out when every known field is requested.
func BuildQuery(spec QuerySpec) url.Values {
	values := url.Values{}
	if !spec.SelectsAllFields() {
		values.Set(paramSelect, strings.Join(spec.fields, ","))
	}
	if limit, ok := spec.Limit(); ok {
		values.Set(paramTop, strconv.Itoa(limit))
	}
	return values
}

// RequestURL renders the full request URL, used for logging
func RequestURL(baseURL string, spec QuerySpec) string {
	query := BuildQuery(spec)
	if len(query) == 0 {
		return baseURL
	}
	return baseURL + "?" + query.Encode()
}
