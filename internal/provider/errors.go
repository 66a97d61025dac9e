package provider

import "fmt"

// APIStatusError carries a non-2xx provider response. StatusCode and Body are
// forwarded to the caller untouched so quota, auth, and validation failures
// stay distinguishable.
type APIStatusError struct {
	StatusCode int
	Body       []byte
}

func (e *APIStatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// TransportError means the provider never returned a response. Timeout is set
// when the per-call deadline expired, so callers can report timeouts
// separately from connection failures.
type TransportError struct {
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("provider call timed out: %v", e.Err)
	}
	return fmt.Sprintf("provider unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
