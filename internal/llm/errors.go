package llm

import "errors"

var (
	// ErrUpstream indicates the provider failed or returned nothing usable.
	ErrUpstream = errors.New("llm provider error")

	// ErrTimeout indicates the call exceeded its task timeout.
	ErrTimeout = errors.New("llm request timed out")
)
