package runtime

import "fmt"

// ParseError reports an agent block that could not be read as a patch.
// It is never returned to callers as a failure; it only annotates a Turn.
type ParseError struct {
	Block string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("agent block is not a patch: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
