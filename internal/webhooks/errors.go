package webhooks

import "fmt"

// ValidationError reports malformed registration input. It surfaces
// synchronously to the registering caller and is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransportError is a network or timeout failure on a single delivery
// attempt. The retry loop consumes it; it never reaches the dispatcher.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError is a non-2xx response on a single delivery attempt. Body
// holds a truncated copy of the response body for diagnostics.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}
