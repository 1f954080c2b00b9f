package jlcpcb

import (
	"errors"
	"fmt"
)

// ErrNoExactMatch indicates the keyword search returned candidates but
// none whose code equals the requested identifier.
var ErrNoExactMatch = errors.New("no exact match")

// APIError is an application-level failure reported inside a 200 response.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("jlcpcb api error: code %d", e.Code)
	}
	return fmt.Sprintf("jlcpcb api error: code %d: %s", e.Code, e.Message)
}

// IsAPIError checks if an error is an application-level API failure.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
