package inertia

import (
	"maps"
	"slices"
)

var (
	_ error = (*validationError)(nil)
	_ error = (*ValidationErrors)(nil)

	_ ValidationError   = (*validationError)(nil)
	_ ValidationErrorer = (*validationError)(nil)
	_ ValidationErrorer = (*ValidationErrors)(nil)
)

const (
	DefaultErrorBag = ""
)

// ValidationError represents a single field validation failure.
type ValidationError interface {
	// Field returns the name of the field that failed validation.
	Field() string

	// Error returns the human-readable error message describing the validation failure.
	Error() string
}

// ValidationErrorer is a collection of validation errors that can be sent to the client.
type ValidationErrorer interface {
	error

	// ValidationErrors returns all validation errors in the collection.
	ValidationErrors() []ValidationError

	// Len returns the number of validation errors.
	Len() int
}

type validationError struct {
	field   string
	message string
}

// NewValidationError creates a validation error for a specific field with a message.
func NewValidationError(field string, message string) *validationError { //nolint:revive
	return &validationError{
		field:   field,
		message: message,
	}
}

func (err *validationError) Error() string                       { return err.message }
func (err *validationError) Field() string                       { return err.field }
func (err *validationError) ValidationErrors() []ValidationError { return []ValidationError{err} }
func (err *validationError) Len() int                            { return 1 }

type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string                       { return "validation errors" }
func (errs ValidationErrors) ValidationErrors() []ValidationError { return errs }
func (errs ValidationErrors) Len() int                            { return len(errs) }

// ValidationErrorsFromMap converts a field to message map into
// ValidationErrors, ordered by field name.
func ValidationErrorsFromMap(m map[string]string) ValidationErrors {
	if len(m) == 0 {
		return nil
	}

	errs := make(ValidationErrors, 0, len(m))
	for _, field := range slices.Sorted(maps.Keys(m)) {
		errs = append(errs, NewValidationError(field, m[field]))
	}

	return errs
}

// ValidationErrorsMap flattens errorer into a field to message map. When a
// field fails more than once, the last message wins.
func ValidationErrorsMap(errorer ValidationErrorer) map[string]string {
	errs := errorer.ValidationErrors()

	m := make(map[string]string, len(errs))
	for _, err := range errs {
		m[err.Field()] = err.Error()
	}

	return m
}
