package chatbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hyperengineering/protrack/internal/category"
	"github.com/hyperengineering/protrack/internal/generation"
	"github.com/hyperengineering/protrack/internal/types"
)

func (d *Dispatcher) add(_ context.Context, r *types.Roadmap, data ActionData) (string, error) {
	title := data.String("title")
	day, ok, err := data.day()
	if title == "" || !ok {
		return "", invalid(ActionAdd, "Title and day are required for add action")
	}
	if err != nil {
		return "", invalid(ActionAdd, "Invalid day: "+err.Error())
	}
	if !schedulable(r, day) {
		return "", invalid(ActionAdd, fmt.Sprintf("Invalid day: day %d falls after %s", day, types.LastDate))
	}

	description := data.String("description")
	if description == "" {
		description = "Added task"
	}
	addTask(r, title, description, day)
	return fmt.Sprintf("Added \"%s\" to Day %d", title, day), nil
}

func (d *Dispatcher) edit(_ context.Context, r *types.Roadmap, data ActionData) (string, error) {
	title, newTitle := data.String("title"), data.String("newTitle")
	if title == "" || newTitle == "" {
		return "", invalid(ActionEdit, "Current title and new title are required for edit action")
	}
	day, hasDay, err := data.day()
	if err != nil {
		return "", invalid(ActionEdit, "Invalid day: "+err.Error())
	}
	if hasDay && !schedulable(r, day) {
		return "", invalid(ActionEdit, fmt.Sprintf("Invalid day: day %d falls after %s", day, types.LastDate))
	}
	return editTask(r, title, newTitle, data.String("description"), day, hasDay), nil
}

func (d *Dispatcher) delete(_ context.Context, r *types.Roadmap, data ActionData) (string, error) {
	title := data.String("title")
	if title == "" {
		return "", invalid(ActionDelete, "Title is required for delete action")
	}
	return deleteTasks(r, title), nil
}

func (d *Dispatcher) regenerate(ctx context.Context, r *types.Roadmap, data ActionData) (string, error) {
	customization := data.String("customization")
	if customization == "" {
		return "", invalid(ActionRegenerate, "Customization message is required for regenerate action")
	}

	form, err := category.Decode(r.Category, r.FormData)
	if err != nil {
		return "", &RegenerationError{Err: fmt.Errorf("stored form data: %w", err)}
	}
	form = form.Regenerate(r.Title, customization)

	draft, err := d.regenerator.Generate(ctx, form, r.StartDate, r.TotalDays)
	if err != nil {
		return "", &RegenerationError{Err: err}
	}

	r.Title = draft.Title
	r.Description = draft.Description
	r.TotalDays = draft.TotalDays
	r.DailyTasks = generation.Materialize(draft, r.StartDate)
	return "Roadmap regenerated successfully with customization", nil
}

func (d *Dispatcher) explain(ctx context.Context, r *types.Roadmap, data ActionData) (string, error) {
	message := data.String("message")
	if message == "" {
		return "", invalid(ActionExplain, "Message is required for explain action")
	}
	return d.explainer.Explain(ctx, message, r.Category)
}

// --- mutations shared by the fixed actions and interpreted instructions ---

func addTask(r *types.Roadmap, title, description string, day int) {
	r.DailyTasks = append(r.DailyTasks, types.DailyTask{
		Day:         day,
		Date:        r.StartDate.DayOffset(day),
		Title:       title,
		Description: description,
	})
}

// findTask returns the first task whose title matches exactly, or nil.
func findTask(r *types.Roadmap, title string) *types.DailyTask {
	for i := range r.DailyTasks {
		if r.DailyTasks[i].Title == title {
			return &r.DailyTasks[i]
		}
	}
	return nil
}

func editTask(r *types.Roadmap, title, newTitle, description string, day int, hasDay bool) string {
	t := findTask(r, title)
	if t == nil {
		return fmt.Sprintf("Task \"%s\" not found", title)
	}
	t.Title = newTitle
	if hasDay {
		t.Day = day
		t.Date = r.StartDate.DayOffset(day)
	}
	if description != "" {
		t.Description = description
	}
	return fmt.Sprintf("Edited task title from \"%s\" to \"%s\"", title, newTitle)
}

// deleteTasks removes every task with the given title.
func deleteTasks(r *types.Roadmap, title string) string {
	kept := r.DailyTasks[:0]
	for _, t := range r.DailyTasks {
		if t.Title != title {
			kept = append(kept, t)
		}
	}
	removed := len(r.DailyTasks) - len(kept)
	r.DailyTasks = kept
	if removed == 0 {
		return fmt.Sprintf("Task \"%s\" not found", title)
	}
	return fmt.Sprintf("Deleted \"%s\"", title)
}

func moveTask(r *types.Roadmap, title string, day int) string {
	t := findTask(r, title)
	if t == nil {
		return fmt.Sprintf("Task \"%s\" not found", title)
	}
	t.Day = day
	t.Date = r.StartDate.DayOffset(day)
	return fmt.Sprintf("Moved \"%s\" to Day %d", title, day)
}

// applyInstruction applies an interpreted action. Missing parameters give a
// soft reply instead of an error.
func applyInstruction(r *types.Roadmap, in *Instruction) string {
	day := int(in.Day)
	switch in.Action {
	case ActionAdd:
		if in.Title == "" || day < 1 {
			return "I need a task title and a day to add a task"
		}
		if !schedulable(r, day) {
			return dayOutOfRange(day)
		}
		description := in.Description
		if description == "" {
			description = "Added task"
		}
		addTask(r, in.Title, description, day)
		return fmt.Sprintf("Added \"%s\" to Day %d", in.Title, day)
	case ActionDelete:
		if in.Title == "" {
			return "I need the title of the task to delete"
		}
		return deleteTasks(r, in.Title)
	case ActionEdit:
		if in.Title == "" || in.NewTitle == "" {
			return "I need the current and new title to edit a task"
		}
		if day >= 1 && !schedulable(r, day) {
			return dayOutOfRange(day)
		}
		return editTask(r, in.Title, in.NewTitle, in.Description, day, day >= 1)
	case ActionMove:
		if in.Title == "" || day < 1 {
			return "I need a task title and a day to move a task"
		}
		if !schedulable(r, day) {
			return dayOutOfRange(day)
		}
		return moveTask(r, in.Title, day)
	case ActionExplain:
		return strings.TrimSpace(in.Explanation)
	case ActionRegenerate:
		return "To rebuild the roadmap, send a regenerate request describing the customization you want"
	default:
		return ""
	}
}

func dayOutOfRange(day int) string {
	return fmt.Sprintf("Day %d is too far out to schedule; pick a day up to %d", day, types.MaxPlanDay)
}

// applyModifications merges the allow-listed roadmap fields. Anything else the
// model returns is ignored.
func applyModifications(r *types.Roadmap, mods map[string]any) {
	if len(mods) == 0 {
		return
	}
	var ignored []string
	for key, v := range mods {
		switch key {
		case "title":
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				r.Title = s
				continue
			}
		case "description":
			if s, ok := v.(string); ok {
				r.Description = s
				continue
			}
		case "totalDays":
			if n, ok, err := toInt(v); ok && err == nil && n > 0 {
				r.TotalDays = n
				continue
			}
		}
		ignored = append(ignored, key)
	}
	if len(ignored) > 0 {
		slog.Debug("ignored roadmap modifications",
			"component", "chatbot",
			"roadmap_id", r.ID,
			"fields", ignored,
		)
	}
}
