// Package google talks to Google's OAuth token endpoint and userinfo API on
// behalf of the login flow.
package google

import (
	"fmt"
	"net/http"
)

// Error is returned when Google rejects a request or cannot be reached.
// Callers treat it as an upstream authentication failure.
type Error struct {
	Op         string
	StatusCode int // zero for transport failures
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %d %s: %v", e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
