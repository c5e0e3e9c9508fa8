package category

import (
	"encoding/json"

	"github.com/hyperengineering/protrack/internal/types"
)

// LongTerm is the form for career or project goals with milestones.
type LongTerm struct {
	GoalCategory string  `json:"goalCategory,omitempty"`
	MainGoal     string  `json:"mainGoal,omitempty"`
	Milestones   []Named `json:"milestones"`
	Duration     FlexInt `json:"duration"`
	CurrentLevel string  `json:"currentLevel,omitempty"`
	Frequency    string  `json:"frequency,omitempty"`
	Extras
}

type longTermSchema struct{}

func (longTermSchema) Category() types.Category { return types.CategoryLongTerm }

func (longTermSchema) Decode(raw json.RawMessage) (Form, error) {
	var f LongTerm
	if err := decodeForm(types.CategoryLongTerm, raw, &f); err != nil {
		return nil, err
	}
	var errs fieldErrors
	if len(names(f.Milestones)) == 0 {
		errs.add("milestones", "at least one milestone is required")
	}
	if f.Duration < 0 {
		errs.add("duration", "must not be negative")
	}
	if err := errs.err(string(types.CategoryLongTerm)); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *LongTerm) Category() types.Category { return types.CategoryLongTerm }

func (f *LongTerm) PlanDays(types.Date) (int, error) {
	return durationDays(types.CategoryLongTerm, f.Duration)
}

func (f *LongTerm) Subject() string {
	switch {
	case f.Goal != "":
		return f.Goal
	case f.MainGoal != "":
		return f.MainGoal
	default:
		return "a long-term goal"
	}
}

func (f *LongTerm) Brief() string {
	var b brief
	b.line("Goal category", f.GoalCategory)
	b.line("Main goal", f.MainGoal)
	b.list("Milestones", names(f.Milestones))
	b.line("Current level", f.CurrentLevel)
	b.line("Check-in frequency", f.Frequency)
	f.Extras.brief(&b)
	return b.String()
}

func (f *LongTerm) Regenerate(goal, customization string) Form {
	cp := *f
	cp.Goal = goal
	cp.Customization = customization
	return &cp
}
