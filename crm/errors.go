// ABOUTME: Error taxonomy for remote CRM calls
// ABOUTME: Typed API errors and the rate-limit sentinel
package crm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRateLimited marks a 429 from the remote. It is an ordinary failure to callers.
var ErrRateLimited = errors.New("remote CRM rate limit exceeded")

// APIError is a remote rejection: a non-2xx status or a success=false envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote CRM error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("remote CRM error (status %d): %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrRateLimited) match a 429 APIError.
func (e *APIError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}
