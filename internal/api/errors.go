package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failed API response. Message prefers the server-supplied text
// and falls back to a generic transport description.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
}

// IsAuthError reports whether err is an authorization-denied response.
// These trigger session teardown instead of surfacing as a store error.
func IsAuthError(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}
