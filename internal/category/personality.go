package category

import (
	"encoding/json"

	"github.com/hyperengineering/protrack/internal/types"
)

// Personality is the form for personal development plans.
type Personality struct {
	GoalType      string  `json:"goalType,omitempty"`
	SpecificGoals []Named `json:"specificGoals"`
	Duration      FlexInt `json:"duration"`
	CurrentLevel  string  `json:"currentLevel,omitempty"`
	Frequency     string  `json:"frequency,omitempty"`
	Extras
}

type personalitySchema struct{}

func (personalitySchema) Category() types.Category { return types.CategoryPersonality }

func (personalitySchema) Decode(raw json.RawMessage) (Form, error) {
	var f Personality
	if err := decodeForm(types.CategoryPersonality, raw, &f); err != nil {
		return nil, err
	}
	var errs fieldErrors
	if len(names(f.SpecificGoals)) == 0 {
		errs.add("specificGoals", "at least one specific goal is required")
	}
	if f.Duration < 0 {
		errs.add("duration", "must not be negative")
	}
	if err := errs.err(string(types.CategoryPersonality)); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Personality) Category() types.Category { return types.CategoryPersonality }

func (f *Personality) PlanDays(types.Date) (int, error) {
	return durationDays(types.CategoryPersonality, f.Duration)
}

func (f *Personality) Subject() string {
	switch {
	case f.Goal != "":
		return f.Goal
	case f.GoalType != "":
		return f.GoalType
	default:
		return "personal development"
	}
}

func (f *Personality) Brief() string {
	var b brief
	b.line("Goal type", f.GoalType)
	b.list("Specific goals", names(f.SpecificGoals))
	b.line("Current level", f.CurrentLevel)
	b.line("Practice frequency", f.Frequency)
	f.Extras.brief(&b)
	return b.String()
}

func (f *Personality) Regenerate(goal, customization string) Form {
	cp := *f
	cp.Goal = goal
	cp.Customization = customization
	return &cp
}
