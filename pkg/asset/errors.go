package asset

import (
	"errors"
	"fmt"
)

// FetchFailure is returned when a reference could not be retrieved.
// Attempts counts the tries actually made, which is fewer than the configured
// maximum when a non-retryable error stopped the loop.
type FetchFailure struct {
	Reference string
	Attempts  int
	Err       error
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", shorten(e.Reference), e.Attempts, e.Err)
}

func (e *FetchFailure) Unwrap() error {
	return e.Err
}

// StatusError is a non-success HTTP response. It is never retried.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status %s", e.Status)
}

// ErrUnsupportedReference is returned for references that are neither http(s) nor data URIs.
var ErrUnsupportedReference = errors.New("unsupported asset reference")

// ErrMalformedDataURI is returned for data: references that cannot be decoded.
var ErrMalformedDataURI = errors.New("malformed data URI")

// shorten keeps inline data references readable in error messages.
func shorten(ref string) string {
	const max = 64
	if len(ref) <= max {
		return ref
	}
	return ref[:max] + "..."
}
