// Package selection turns a requirement rubric, evidence scores and relevance scores into a
// bounded, deduplicated selection plan with a coverage report.
package selection

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every InputError via errors.Is
var ErrInvalidInput = errors.New("invalid input")

// Error represents an error that occurs during bullet selection
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// InputError reports malformed input. No plan is produced when it is returned.
type InputError struct {
	Invariant string
	Field     string
	Message   string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s (invariant %s)", e.Field, e.Message, e.Invariant)
}

// Is lets errors.Is(err, ErrInvalidInput) match any InputError
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func inputErrorf(invariant, field, format string, args ...any) *InputError {
	return &InputError{
		Invariant: invariant,
		Field:     field,
		Message:   fmt.Sprintf(format, args...),
	}
}
