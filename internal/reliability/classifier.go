// Package reliability classifies upstream failures. Nothing here retries:
// a failed model call is reported once and the turn moves on.
package reliability

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// IsTransientHTTPStatus reports status codes that usually clear on their own.
func IsTransientHTTPStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// StatusError is a non-2xx reply from an upstream HTTP API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream http status %d", e.Code)
	}
	return fmt.Sprintf("upstream http status %d: %s", e.Code, e.Body)
}

// StatusCoder is implemented by errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

func (e *StatusError) StatusCode() int { return e.Code }

// IsTransient reports whether err looks like a temporary upstream condition:
// a timeout, a reset connection or a transient HTTP status.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var coder StatusCoder
	if errors.As(err, &coder) {
		return IsTransientHTTPStatus(coder.StatusCode())
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// Label is the metrics/log label for a failure class.
func Label(err error) string {
	switch {
	case err == nil:
		return "none"
	case IsTransient(err):
		return "transient"
	default:
		return "permanent"
	}
}
