package models

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every ValidationError through errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a malformed or missing field on a mutating operation.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
