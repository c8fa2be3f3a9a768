package odata

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServiceURL = "https://odata.example.com/Products"

func newMockedClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(ClientConfig{ServiceURL: testServiceURL}, zerolog.Nop())
	httpmock.ActivateNonDefault(c.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(ClientConfig{}, zerolog.Nop())
	assert.Equal(t, DefaultServiceURL, c.ServiceURL())
	assert.Equal(t, DefaultConnectTimeout, c.config.ConnectTimeout)
	assert.Equal(t, DefaultReadTimeout, c.config.ReadTimeout)
	assert.Equal(t, DefaultConnectTimeout+DefaultReadTimeout, c.HTTPClient().Timeout)
}

func TestCreateTransport_AppliesTimeouts(t *testing.T) {
	cfg := ClientConfig{ServiceURL: testServiceURL, ConnectTimeout: 3 * time.Second, ReadTimeout: 7 * time.Second}

	dialer := createDialer(cfg)
	assert.Equal(t, 3*time.Second, dialer.Timeout)

	transport := createTransport(cfg)
	assert.Equal(t, 3*time.Second, transport.TLSHandshakeTimeout)
	assert.Equal(t, 7*time.Second, transport.ResponseHeaderTimeout)
	assert.NotNil(t, transport.DialContext)

	c := NewClient(cfg, zerolog.Nop())
	assert.Equal(t, 10*time.Second, c.HTTPClient().Timeout)
	installed, ok := c.HTTPClient().Transport.(*http.Transport)
	require.True(t, ok, "client transport is %T", c.HTTPClient().Transport)
	assert.Equal(t, 3*time.Second, installed.TLSHandshakeTimeout)
	assert.Equal(t, 7*time.Second, installed.ResponseHeaderTimeout)
}

func TestClient_Fetch(t *testing.T) {
	c := newMockedClient(t)

	var gotQuery url.Values
	var gotAccept string
	httpmock.RegisterResponder("GET", testServiceURL, func(req *http.Request) (*http.Response, error) {
		gotQuery = req.URL.Query()
		gotAccept = req.Header.Get("Accept")
		return httpmock.NewStringResponse(200, `{"value":[]}`), nil
	})

	spec, err := NewQuerySpec([]string{"ID", "Price"}, true, 2)
	require.NoError(t, err)

	body, err := c.Fetch(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, `{"value":[]}`, string(body))
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "ID,Price", gotQuery.Get("$select"))
	assert.Equal(t, "2", gotQuery.Get("$top"))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestClient_Fetch_AllFieldsNoOptions(t *testing.T) {
	c := newMockedClient(t)

	var rawQuery string
	httpmock.RegisterResponder("GET", testServiceURL, func(req *http.Request) (*http.Response, error) {
		rawQuery = req.URL.RawQuery
		return httpmock.NewStringResponse(200, `{"value":[]}`), nil
	})

	spec, err := NewQuerySpec(DefaultFields(), false, 0)
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), spec)
	require.NoError(t, err)
	assert.Empty(t, rawQuery)
}

func TestClient_Fetch_StatusError(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder("GET", testServiceURL, httpmock.NewStringResponder(503, "unavailable"))

	spec, err := NewQuerySpec([]string{"ID"}, false, 0)
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), spec)
	var remoteErr *RemoteServiceError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 503, remoteErr.StatusCode)
	assert.Contains(t, err.Error(), "503")

	// no retries
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestClient_Fetch_EmptyBody(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder("GET", testServiceURL, httpmock.NewStringResponder(200, ""))

	spec, err := NewQuerySpec([]string{"ID"}, false, 0)
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), spec)
	var remoteErr *RemoteServiceError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 200, remoteErr.StatusCode)
}

func TestClient_Fetch_TransportError(t *testing.T) {
	c := newMockedClient(t)
	cause := errors.New("connection refused")
	httpmock.RegisterResponder("GET", testServiceURL, httpmock.NewErrorResponder(cause))

	spec, err := NewQuerySpec([]string{"ID"}, false, 0)
	require.NoError(t, err)

	_, err = c.Fetch(context.Background(), spec)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, testServiceURL, transportErr.URL)
	assert.ErrorIs(t, err, cause)
}

func TestClient_Fetch_Canceled(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder("GET", testServiceURL, httpmock.NewStringResponder(200, `{"value":[]}`))

	spec, err := NewQuerySpec([]string{"ID"}, false, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Fetch(ctx, spec)
	assert.ErrorIs(t, err, ErrCanceled)
}
