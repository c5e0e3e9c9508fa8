// Package chatbot applies chat actions to a roadmap.
//
// A known action (add, edit, delete, regenerate, explain) is validated and
// applied deterministically. Anything else goes to the intent interpreter,
// whose structured result is applied through the same mutations. Every
// dispatched action appends one history entry and is saved with one write.
package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hyperengineering/protrack/internal/category"
	"github.com/hyperengineering/protrack/internal/generation"
	"github.com/hyperengineering/protrack/internal/types"
)

const (
	ActionAdd        = "add"
	ActionEdit       = "edit"
	ActionDelete     = "delete"
	ActionRegenerate = "regenerate"
	ActionExplain    = "explain"
	ActionMove       = "move"
)

// Store persists a roadmap after mutation.
type Store interface {
	SaveRoadmap(ctx context.Context, r *types.Roadmap) error
}

// Regenerator rebuilds a roadmap's plan from its form.
type Regenerator interface {
	Generate(ctx context.Context, form category.Form, start types.Date, totalDays int) (*generation.Draft, error)
}

// Result is the outcome of one dispatched action.
type Result struct {
	Roadmap *types.Roadmap
	Message string
}

type handler func(ctx context.Context, r *types.Roadmap, data ActionData) (string, error)

// Dispatcher maps an action name to its mutation.
type Dispatcher struct {
	store       Store
	regenerator Regenerator
	interpreter IntentInterpreter
	explainer   TopicExplainer
	now         func() time.Time

	handlers map[string]handler
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(store Store, regenerator Regenerator, interpreter IntentInterpreter, explainer TopicExplainer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:       store,
		regenerator: regenerator,
		interpreter: interpreter,
		explainer:   explainer,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.handlers = map[string]handler{
		ActionAdd:        d.add,
		ActionEdit:       d.edit,
		ActionDelete:     d.delete,
		ActionRegenerate: d.regenerate,
		ActionExplain:    d.explain,
	}
	return d
}

// Apply runs action against r in memory, appends a history entry and saves r.
// On error r may be partially mutated and must be discarded.
func (d *Dispatcher) Apply(ctx context.Context, r *types.Roadmap, action string, data map[string]any) (*Result, error) {
	if strings.TrimSpace(action) == "" {
		return nil, invalid("", "Action is required and must be a string")
	}
	if data == nil {
		data = map[string]any{}
	}
	name := strings.ToLower(action)

	var (
		msg string
		err error
	)
	if h, ok := d.handlers[name]; ok {
		msg, err = h(ctx, r, ActionData(data))
	} else {
		msg, err = d.interpret(ctx, r, action, ActionData(data))
	}
	if err != nil {
		return nil, err
	}

	if name != ActionExplain {
		sortByDay(r.DailyTasks)
	}
	r.ChatbotHistory = append(r.ChatbotHistory, types.HistoryEntry{
		Request:   types.ChatRequest{Action: name, Data: data},
		Response:  msg,
		Timestamp: d.now().UTC(),
	})

	if err := d.store.SaveRoadmap(ctx, r); err != nil {
		return nil, fmt.Errorf("saving roadmap: %w", err)
	}

	slog.Info("chatbot action applied",
		"component", "chatbot",
		"roadmap_id", r.ID,
		"action", name,
		"tasks", len(r.DailyTasks),
	)
	return &Result{Roadmap: r, Message: msg}, nil
}

// sortByDay orders tasks by day, keeping the relative order of equal days.
func sortByDay(tasks []types.DailyTask) {
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Day < tasks[j].Day })
}

func (d *Dispatcher) interpret(ctx context.Context, r *types.Roadmap, action string, data ActionData) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encoding action data: %w", err)
	}
	text := fmt.Sprintf("Action: %s\nContext: %s", action, payload)

	instr, err := d.interpreter.Interpret(ctx, text, r.Summaries())
	if err != nil {
		return "", err
	}

	msg := applyInstruction(r, instr)
	applyModifications(r, instr.Modifications)

	switch {
	case strings.TrimSpace(instr.Message) != "":
		return instr.Message, nil
	case msg != "":
		return msg, nil
	default:
		return "Custom action processed", nil
	}
}
