package category

import (
	"errors"
	"strings"
)

// ErrValidationFailed indicates form data did not match its category's shape.
var ErrValidationFailed = errors.New("validation failed")

// FieldError describes one invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every field error found in one form.
type ValidationErrors struct {
	Category string       `json:"category,omitempty"`
	Errors   []FieldError `json:"errors"`
}

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// Unwrap returns ErrValidationFailed for errors.Is() compatibility.
func (e ValidationErrors) Unwrap() error {
	return ErrValidationFailed
}

type fieldErrors []FieldError

func (f *fieldErrors) add(field, msg string) {
	*f = append(*f, FieldError{Field: field, Message: msg})
}

func (f fieldErrors) err(c string) error {
	if len(f) == 0 {
		return nil
	}
	return ValidationErrors{Category: c, Errors: f}
}
