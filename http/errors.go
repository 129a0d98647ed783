package http

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError indicates a non-2xx HTTP response.
type HTTPError struct {
	// Method and URL identify the request that failed.
	Method string
	URL    string
	// StatusCode is the HTTP status code
	StatusCode int
	// Body is the response body (truncated to maxErrorBody bytes)
	Body []byte
}

// Error returns a string representation of the HTTP error.
func (e *HTTPError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("http error: %s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("http error: status %d", e.StatusCode)
}

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

// StatusCode returns the status carried by err, or 0 when err is not an HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsClientError returns true for 4xx status codes.
func IsClientError(statusCode int) bool {
	return statusCode >= 400 && statusCode < 500
}

// Sentinel errors for HTTP operations.
var (
	// ErrRequestFailed indicates the request itself failed (network error).
	ErrRequestFailed = errors.New("http request failed")

	// ErrDecode indicates a response body could not be decoded.
	ErrDecode = errors.New("decode response")
)
