package scholar

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the scholar client.
var (
	// ErrNotFound indicates the author or table was not found.
	ErrNotFound = errors.New("not found on scholar backend")

	// ErrAuthError indicates a missing or rejected API key.
	ErrAuthError = errors.New("scholar backend authentication error")

	// ErrRateLimited indicates the backend refused the request rate.
	ErrRateLimited = errors.New("scholar backend rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with scholar backend")

	// ErrInvalidResponse indicates a body that could not be decoded.
	ErrInvalidResponse = errors.New("invalid response from scholar backend")

	// ErrInvalidRequest indicates a request rejected before it was sent.
	ErrInvalidRequest = errors.New("invalid scholar request")
)

// APIError is an error reported by the backend, either as a non-2xx status
// or as an {"error": "..."} body.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scholar API error (status %d, %s): %s", e.StatusCode, e.Endpoint, e.Message)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuthError) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
