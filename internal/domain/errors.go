package domain

import "errors"

// Common validation errors shared across entities.
var (
	ErrValidation = errors.New("validation failed")
)

// FieldError describes a single invalid field on an entity or request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates per-field validation failures so callers can
// report all of them at once rather than failing on the first.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	msg := e.Fields[0].Field + ": " + e.Fields[0].Message
	if len(e.Fields) > 1 {
		msg += " (and more)"
	}
	return msg
}

// Unwrap lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}
