package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// ErrDecode indicates a response body that could not be decoded.
var ErrDecode = errors.New("remote: malformed response")

// StatusError represents a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote: HTTP %d (URL: %s)", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("remote: HTTP %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsNotFound checks if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode == http.StatusForbidden
	}
	return false
}

// Retryable reports whether err is a transient failure worth retrying:
// rate limiting, server errors, timeouts and network errors.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return IsRateLimited(err) || se.StatusCode >= 500
	}
	if errors.Is(err, ErrDecode) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
