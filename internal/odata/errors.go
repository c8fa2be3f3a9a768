package odata

import (
	"errors"
	"fmt"
)

// ErrCanceled is returned when the caller aborts a run. It is an outcome, not a failure.
var ErrCanceled = errors.New("execution canceled")

// ConfigurationError reports invalid node settings. Raised before any network activity.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func newConfigurationError(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// TransportError reports a failure to reach the remote service
type TransportError struct {
	URL   string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error calling %s: %v", e.URL, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// RemoteServiceError reports a response with a non-success status or no body
type RemoteServiceError struct {
	StatusCode int
	Reason     string
}

func (e *RemoteServiceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("failed to retrieve products, status code %d: %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("failed to retrieve products, status code %d", e.StatusCode)
}

// MalformedResponseError reports a payload that does not have the expected shape.
// Record is -1 when the problem is not tied to a single record.
type MalformedResponseError struct {
	Reason string
	Field  string
	Record int
}

func (e *MalformedResponseError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("malformed response: record %d, field %q: %s", e.Record, e.Field, e.Reason)
	case e.Record >= 0:
		return fmt.Sprintf("malformed response: record %d: %s", e.Record, e.Reason)
	default:
		return "malformed response: " + e.Reason
	}
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
