// Package inertiavalidationerrors provides ready-made validation error
// collections for the inertia package.
package inertiavalidationerrors

import (
	"go.trall.dev/inertia"
)

var (
	_ error                     = (*MapError)(nil)
	_ inertia.ValidationErrorer = (*MapError)(nil)
)

// MapError is a map of key-value pairs that can be used as validation errors.
// Key is the field name and value is the error message.
type MapError map[string]string

// ValidationErrors returns the errors ordered by field name.
func (m MapError) ValidationErrors() []inertia.ValidationError {
	return inertia.ValidationErrorsFromMap(m)
}

func (m MapError) Error() string { return "validation errors" }
func (m MapError) Len() int      { return len(m) }

// Bag scopes a validation error collection to a named error bag, so that
// several forms on the same page keep their errors apart.
type Bag struct {
	inertia.ValidationErrorer

	Name string
}

// NewBag wraps errorer into the error bag called name.
func NewBag(name string, errorer inertia.ValidationErrorer) *Bag {
	return &Bag{ValidationErrorer: errorer, Name: name}
}

// ErrorBag returns the name of the error bag.
func (b *Bag) ErrorBag() string { return b.Name }

func (b *Bag) Unwrap() error { return b.ValidationErrorer }
