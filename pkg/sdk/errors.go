package sdk

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors matched by APIError status. Use errors.Is() to check.
var (
	ErrBadRequest         = errors.New("bad request")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBackendUnavailable = errors.New("search backend unavailable")
	ErrServer             = errors.New("server error")
)

// APIError is a failure response from the server.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("searchlang: status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// Unwrap maps the status code to a sentinel error.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusBadGateway:
		return ErrBackendUnavailable
	case e.StatusCode >= http.StatusInternalServerError:
		return ErrServer
	case e.StatusCode >= http.StatusBadRequest:
		return ErrBadRequest
	}
	return nil
}

// statusCode returns the HTTP status of an APIError, or 0.
func statusCode(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}
