package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperengineering/protrack/internal/category"
	"github.com/hyperengineering/protrack/internal/llm"
	"github.com/hyperengineering/protrack/internal/normalize"
	"github.com/hyperengineering/protrack/internal/types"
)

// Instruction is the structured result of interpreting a free-form request.
// Every field is optional.
type Instruction struct {
	Action        string           `json:"action,omitempty"`
	Title         string           `json:"title,omitempty"`
	NewTitle      string           `json:"newTitle,omitempty"`
	Day           category.FlexInt `json:"day,omitempty"`
	Description   string           `json:"description,omitempty"`
	Explanation   string           `json:"explanation,omitempty"`
	Customization string           `json:"customization,omitempty"`
	Message       string           `json:"message,omitempty"`
	Modifications map[string]any   `json:"modifications,omitempty"`
}

// IntentInterpreter classifies free-form text against a roadmap's tasks.
type IntentInterpreter interface {
	Interpret(ctx context.Context, text string, tasks []types.TaskSummary) (*Instruction, error)
}

// Interpreter is the model-backed IntentInterpreter. It never mutates anything.
type Interpreter struct {
	client llm.Completer
}

// NewInterpreter creates an Interpreter backed by client.
func NewInterpreter(client llm.Completer) *Interpreter {
	return &Interpreter{client: client}
}

func (i *Interpreter) Interpret(ctx context.Context, text string, tasks []types.TaskSummary) (*Instruction, error) {
	summary, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("encoding task summary: %w", err)
	}

	resp, err := i.client.Complete(ctx, llm.Request{
		Task:         llm.TaskInterpret,
		SystemPrompt: interpretSystemPrompt,
		UserPrompt:   fmt.Sprintf("Given this roadmap: %s\nInterpret the user's request: %q", summary, text),
	})
	if err != nil {
		return nil, fmt.Errorf("interpreting request: %w", err)
	}

	instr, err := normalize.Decode[Instruction](resp.Text, nil)
	if err != nil {
		return nil, fmt.Errorf("interpreting request: %w", err)
	}
	instr.Action = strings.ToLower(strings.TrimSpace(instr.Action))
	return &instr, nil
}

// TopicExplainer answers an explain request in free text.
type TopicExplainer interface {
	Explain(ctx context.Context, topic string, c types.Category) (string, error)
}

// Explainer is the model-backed TopicExplainer.
type Explainer struct {
	client llm.Completer
}

// NewExplainer creates an Explainer backed by client.
func NewExplainer(client llm.Completer) *Explainer {
	return &Explainer{client: client}
}

func (e *Explainer) Explain(ctx context.Context, topic string, c types.Category) (string, error) {
	resp, err := e.client.Complete(ctx, llm.Request{
		Task:         llm.TaskExplain,
		SystemPrompt: fmt.Sprintf(explainSystemPrompt, c),
		UserPrompt:   fmt.Sprintf("Explain %q in detail for a %s context.", topic, c),
	})
	if err != nil {
		return "", fmt.Errorf("explaining topic: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
