package gate

import (
	"errors"
	"fmt"
)

// Sentinel kinds for gate errors.
var (
	ErrValidation        = errors.New("validation failed")
	ErrUpstream          = errors.New("lead store unavailable")
	ErrInvalidTransition = errors.New("invalid session transition")
)

// ValidationError reports a malformed submission. It is always recoverable
// by asking the user again.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }
