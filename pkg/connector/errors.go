package connector

import (
	"context"
	"fmt"
	"time"
)

// ConfigError reports an invalid URL or request configuration. It is raised before any I/O.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TimeoutError means the timer elapsed before a response was received.
// It is never suppressed by IgnoreErrors.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.URL, e.Timeout)
}

// Unwrap lets callers match timeouts with errors.Is(err, context.DeadlineExceeded).
func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }

// HTTPStatusError is returned for non-2xx responses when IgnoreErrors is false.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	StatusText string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http error from %s: status %d %s", e.URL, e.StatusCode, e.StatusText)
}

// TransportError wraps network level failures (DNS, refused connections, resets, cancellation).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means the body was declared JSON but could not be parsed.
// It is always surfaced.
type DecodeError struct {
	URL         string
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s body from %s: %v", e.ContentType, e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
