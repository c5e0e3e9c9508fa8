// Package llm provides the chat completion collaborator that turns a system and
// user prompt into raw model text.
package llm

import "context"

// TaskType identifies which kind of call is being made. Each task carries its
// own sampling parameters and timeout.
type TaskType string

const (
	TaskGenerate  TaskType = "generate"
	TaskInterpret TaskType = "interpret"
	TaskExplain   TaskType = "explain"
)

// Request holds the parameters for one completion call.
type Request struct {
	Task         TaskType
	SystemPrompt string
	UserPrompt   string
}

// Response holds the raw text returned by the model.
type Response struct {
	Text      string
	Model     string
	LatencyMs int64
}

// Completer defines the interface contract for completion providers.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	ModelName() string
}
