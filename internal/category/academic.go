package category

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hyperengineering/protrack/internal/types"
)

// SyllabusEntry is one chapter or subject of an academic plan.
type SyllabusEntry struct {
	Name  string  `json:"name"`
	Units FlexInt `json:"units"`
}

// Academic is the form for exam and coursework preparation.
type Academic struct {
	AcademicType string          `json:"academicType"`
	LevelDetails map[string]any  `json:"levelDetails,omitempty"`
	Syllabus     []SyllabusEntry `json:"syllabus"`
	ExamDate     string          `json:"examDate,omitempty"`
	CurrentLevel string          `json:"currentLevel,omitempty"`
	TotalDays    FlexInt         `json:"totalDays,omitempty"`
	Extras
}

type academicSchema struct{}

func (academicSchema) Category() types.Category { return types.CategoryAcademic }

func (academicSchema) Decode(raw json.RawMessage) (Form, error) {
	var f Academic
	if err := decodeForm(types.CategoryAcademic, raw, &f); err != nil {
		return nil, err
	}

	var errs fieldErrors
	named := 0
	for i, e := range f.Syllabus {
		if strings.TrimSpace(e.Name) != "" {
			named++
		}
		if e.Units < 0 {
			errs.add(fmt.Sprintf("syllabus[%d].units", i), "must be at least 1")
		}
	}
	if named == 0 {
		errs.add("syllabus", "at least one entry with a name is required")
	}
	if f.ExamDate != "" {
		if _, err := types.ParseDate(f.ExamDate); err != nil {
			errs.add("examDate", err.Error())
		}
	}
	if f.TotalDays < 0 {
		errs.add("totalDays", "must not be negative")
	}
	if err := errs.err(string(types.CategoryAcademic)); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Academic) Category() types.Category { return types.CategoryAcademic }

// PlanDays uses totalDays when set, otherwise the days left until the exam.
func (f *Academic) PlanDays(start types.Date) (int, error) {
	if f.TotalDays > 0 {
		return int(f.TotalDays), nil
	}
	if f.ExamDate != "" {
		exam, err := types.ParseDate(f.ExamDate)
		if err == nil {
			if n := start.DaysUntil(exam); n > 0 {
				return n, nil
			}
		}
		return 0, ValidationErrors{Category: string(types.CategoryAcademic), Errors: []FieldError{{Field: "examDate", Message: "must be after the start date"}}}
	}
	return 0, ValidationErrors{Category: string(types.CategoryAcademic), Errors: []FieldError{{Field: "totalDays", Message: "totalDays or examDate is required"}}}
}

func (f *Academic) Subject() string {
	if f.Goal != "" {
		return f.Goal
	}
	subjects := f.syllabusNames()
	if len(subjects) == 0 {
		return "academic studies"
	}
	return strings.Join(subjects, ", ")
}

func (f *Academic) Brief() string {
	var b brief
	b.line("Academic type", f.AcademicType)
	if len(f.LevelDetails) > 0 {
		keys := make([]string, 0, len(f.LevelDetails))
		for k := range f.LevelDetails {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		details := make([]string, 0, len(keys))
		for _, k := range keys {
			details = append(details, fmt.Sprintf("%s=%v", k, f.LevelDetails[k]))
		}
		b.list("Level details", details)
	}
	entries := make([]string, 0, len(f.Syllabus))
	for _, e := range f.Syllabus {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		if e.Units > 0 {
			name = fmt.Sprintf("%s (%d units)", name, e.Units)
		}
		entries = append(entries, name)
	}
	b.list("Syllabus", entries)
	b.line("Exam date", f.ExamDate)
	b.line("Current level", f.CurrentLevel)
	f.Extras.brief(&b)
	return b.String()
}

func (f *Academic) Regenerate(goal, customization string) Form {
	cp := *f
	cp.Goal = goal
	cp.Customization = customization
	return &cp
}

func (f *Academic) syllabusNames() []string {
	out := make([]string, 0, len(f.Syllabus))
	for _, e := range f.Syllabus {
		if s := strings.TrimSpace(e.Name); s != "" {
			out = append(out, s)
		}
	}
	return out
}
