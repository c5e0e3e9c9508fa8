// Package generation turns a validated category form into a day-by-day
// roadmap draft by calling the model one day range at a time.
package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hyperengineering/protrack/internal/category"
	"github.com/hyperengineering/protrack/internal/llm"
	"github.com/hyperengineering/protrack/internal/normalize"
	"github.com/hyperengineering/protrack/internal/types"
)

const (
	DefaultChunkDays = 30
	MinChunkDays     = 15
	MaxChunkDays     = 100
	DefaultMaxDays   = 365
)

// Config bounds the requests a Generator makes.
type Config struct {
	ChunkDays int
	MaxDays   int
}

// Generator produces roadmap drafts. Chunks run strictly in sequence.
type Generator struct {
	client    llm.Completer
	chunkDays int
	maxDays   int
}

// NewGenerator creates a Generator. Out-of-range settings fall back to defaults.
func NewGenerator(client llm.Completer, cfg Config) *Generator {
	g := &Generator{client: client, chunkDays: cfg.ChunkDays, maxDays: cfg.MaxDays}
	if g.chunkDays < MinChunkDays || g.chunkDays > MaxChunkDays {
		g.chunkDays = DefaultChunkDays
	}
	if g.maxDays <= 0 {
		g.maxDays = DefaultMaxDays
	}
	if g.maxDays > types.MaxPlanDay {
		g.maxDays = types.MaxPlanDay
	}
	return g
}

type chunkResponse struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Tasks       []DraftTask `json:"tasks"`
}

// Generate builds a draft for days 1..totalDays. A zero totalDays is resolved
// from the form. Any failed chunk fails the whole call.
func (g *Generator) Generate(ctx context.Context, form category.Form, start types.Date, totalDays int) (*Draft, error) {
	if totalDays == 0 {
		days, err := form.PlanDays(start)
		if err != nil {
			return nil, err
		}
		totalDays = days
	}
	if totalDays < 1 || totalDays > g.maxDays {
		return nil, category.ValidationErrors{
			Category: string(form.Category()),
			Errors: []category.FieldError{{
				Field:   "totalDays",
				Message: fmt.Sprintf("must be between 1 and %d", g.maxDays),
			}},
		}
	}

	draft := &Draft{TotalDays: totalDays, Tasks: make([]DraftTask, 0, totalDays)}

	for from := 1; from <= totalDays; from += g.chunkDays {
		to := min(from+g.chunkDays-1, totalDays)

		chunk, err := g.generateChunk(ctx, form, start, totalDays, from, to)
		if err != nil {
			slog.Warn("roadmap chunk failed",
				"component", "generation",
				"category", string(form.Category()),
				"from", from,
				"to", to,
				"error", err,
			)
			return nil, &ChunkError{From: from, To: to, Err: err}
		}

		if from == 1 {
			draft.Title = strings.TrimSpace(chunk.Title)
			draft.Description = strings.TrimSpace(chunk.Description)
		}
		draft.Tasks = append(draft.Tasks, chunk.Tasks...)

		slog.Debug("roadmap chunk generated",
			"component", "generation",
			"from", from,
			"to", to,
		)
	}

	if draft.Title == "" {
		draft.Title = form.Subject() + " Roadmap"
	}
	return draft, nil
}

func (g *Generator) generateChunk(ctx context.Context, form category.Form, start types.Date, totalDays, from, to int) (*chunkResponse, error) {
	resp, err := g.client.Complete(ctx, llm.Request{
		Task:         llm.TaskGenerate,
		SystemPrompt: systemPrompt,
		UserPrompt:   buildChunkPrompt(form, start, totalDays, from, to),
	})
	if err != nil {
		return nil, err
	}

	chunk, err := normalize.Decode(resp.Text, chunkValidator(from, to))
	if err != nil {
		return nil, err
	}
	for i := range chunk.Tasks {
		chunk.Tasks[i].Title = strings.TrimSpace(chunk.Tasks[i].Title)
		chunk.Tasks[i].Description = strings.TrimSpace(chunk.Tasks[i].Description)
	}
	return &chunk, nil
}

// chunkValidator requires exactly one task per day of from..to, in order,
// each with a title.
func chunkValidator(from, to int) normalize.Validator[chunkResponse] {
	return func(c chunkResponse) error {
		want := to - from + 1
		if len(c.Tasks) != want {
			return fmt.Errorf("expected %d tasks, got %d", want, len(c.Tasks))
		}
		for i, t := range c.Tasks {
			if t.Day != from+i {
				return fmt.Errorf("task %d has day %d, expected %d", i, t.Day, from+i)
			}
			if strings.TrimSpace(t.Title) == "" {
				return fmt.Errorf("task for day %d has no title", t.Day)
			}
		}
		return nil
	}
}
