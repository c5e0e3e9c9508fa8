package category

import (
	"encoding/json"

	"github.com/hyperengineering/protrack/internal/types"
)

// Additional is the form for learning a standalone skill.
type Additional struct {
	SkillCategory     string  `json:"skillCategory,omitempty"`
	SpecificSkill     string  `json:"specificSkill,omitempty"`
	SubSkills         []Named `json:"subSkills"`
	Duration          FlexInt `json:"duration"`
	CurrentLevel      string  `json:"currentLevel,omitempty"`
	PracticeFrequency string  `json:"practiceFrequency,omitempty"`
	Extras
}

type additionalSchema struct{}

func (additionalSchema) Category() types.Category { return types.CategoryAdditional }

func (additionalSchema) Decode(raw json.RawMessage) (Form, error) {
	var f Additional
	if err := decodeForm(types.CategoryAdditional, raw, &f); err != nil {
		return nil, err
	}
	var errs fieldErrors
	if len(names(f.SubSkills)) == 0 {
		errs.add("subSkills", "at least one sub-skill is required")
	}
	if f.Duration < 0 {
		errs.add("duration", "must not be negative")
	}
	if err := errs.err(string(types.CategoryAdditional)); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Additional) Category() types.Category { return types.CategoryAdditional }

func (f *Additional) PlanDays(types.Date) (int, error) {
	return durationDays(types.CategoryAdditional, f.Duration)
}

func (f *Additional) Subject() string {
	switch {
	case f.Goal != "":
		return f.Goal
	case f.SpecificSkill != "":
		return f.SpecificSkill
	default:
		return "a new skill"
	}
}

func (f *Additional) Brief() string {
	var b brief
	b.line("Skill category", f.SkillCategory)
	b.line("Skill", f.SpecificSkill)
	b.list("Sub-skills", names(f.SubSkills))
	b.line("Current level", f.CurrentLevel)
	b.line("Practice frequency", f.PracticeFrequency)
	f.Extras.brief(&b)
	return b.String()
}

func (f *Additional) Regenerate(goal, customization string) Form {
	cp := *f
	cp.Goal = goal
	cp.Customization = customization
	return &cp
}
