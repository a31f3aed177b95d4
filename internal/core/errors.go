package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every ValidationError through errors.Is.
	ErrValidation = errors.New("validation error")

	ErrNotFound      = errors.New("record not found")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrMissingID     = errors.New("id required")
)

// ValidationError reports a required field that is missing or
// unparseable. It is always returned before any store mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RequireID rejects zero and negative ids.
func RequireID(id int64) error {
	if id <= 0 {
		return Invalid("id", ErrMissingID.Error())
	}
	return nil
}
