package generation

import (
	"errors"
	"fmt"
)

// ErrGenerationFailed indicates the model did not produce a complete roadmap.
// No partial draft is ever returned alongside it.
var ErrGenerationFailed = errors.New("roadmap generation failed")

// ChunkError reports which day range failed and why.
type ChunkError struct {
	From int
	To   int
	Err  error
}

// Error implements the error interface.
func (e *ChunkError) Error() string {
	return fmt.Sprintf("generating days %d-%d: %v", e.From, e.To, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ChunkError) Unwrap() error {
	return e.Err
}

// Is reports true for ErrGenerationFailed so callers can match any chunk failure.
func (e *ChunkError) Is(target error) bool {
	return target == ErrGenerationFailed
}
