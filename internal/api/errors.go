package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx response from the Cohort Manager API. The message is
// whatever the server put in the envelope's data field, or the raw body when
// the envelope could not be decoded.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
}

// IsUnauthorized reports whether err is an API error with a 401 status,
// meaning the bearer token is missing, expired, or rejected.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err is an API error with a 404 status.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
