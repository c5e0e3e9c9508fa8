package chatbot

import "errors"

// ErrInvalidRequest indicates the action or its data failed validation.
var ErrInvalidRequest = errors.New("invalid chatbot request")

// ValidationError is returned before any mutation or model call when an
// action is missing required data. Message is safe to show to the user.
type ValidationError struct {
	Action  string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap returns ErrInvalidRequest for errors.Is() compatibility.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

func invalid(action, msg string) error {
	return &ValidationError{Action: action, Message: msg}
}

// RegenerationError wraps a failure to rebuild a roadmap's plan.
type RegenerationError struct {
	Err error
}

// Error implements the error interface.
func (e *RegenerationError) Error() string {
	return "Error regenerating roadmap: " + e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *RegenerationError) Unwrap() error {
	return e.Err
}
