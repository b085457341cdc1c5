package redmesh

import (
	"errors"
	"fmt"
)

// APIError is the typed error used for malformed upstream payloads and for
// errors reported by the upstream service itself. Code is an HTTP-style
// status code; 500 is used when upstream gives nothing better.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Code)
}

// Errorf builds an APIError with a formatted message.
func Errorf(code int, format string, args ...any) *APIError {
	return &APIError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsAPIError unwraps err into an APIError if there is one in its chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusCode returns the APIError code carried by err, or 500.
func StatusCode(err error) int {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Code
	}
	return 500
}
