package category

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperengineering/protrack/internal/types"
)

func decode(t *testing.T, c types.Category, raw string) (Form, error) {
	t.Helper()
	Reset()
	t.Cleanup(Reset)
	RegisterBuiltins()
	return Decode(c, json.RawMessage(raw))
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var ve ValidationErrors
	require.True(t, errors.As(err, &ve), "expected ValidationErrors, got %v", err)
	out := make([]string, len(ve.Errors))
	for i, fe := range ve.Errors {
		out[i] = fe.Field
	}
	return out
}

func TestDecode_RequiredListPerCategory(t *testing.T) {
	tests := []struct {
		category types.Category
		field    string
	}{
		{types.CategoryAcademic, "syllabus"},
		{types.CategoryLongTerm, "milestones"},
		{types.CategoryPersonality, "specificGoals"},
		{types.CategoryAdditional, "subSkills"},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			_, err := decode(t, tt.category, `{"duration":"10"}`)
			assert.ErrorIs(t, err, ErrValidationFailed)
			assert.Contains(t, fieldNames(t, err), tt.field)

			// Entries with only blank names do not count.
			_, err = decode(t, tt.category, `{"duration":10,"`+tt.field+`":[{"name":"  "}]}`)
			assert.Contains(t, fieldNames(t, err), tt.field)
		})
	}
}

func TestDecode_MissingFormData(t *testing.T) {
	for _, raw := range []string{"", "null"} {
		_, err := decode(t, types.CategoryPersonality, raw)
		assert.Equal(t, []string{"formData"}, fieldNames(t, err))
	}
}

func TestDecode_WrongShape(t *testing.T) {
	_, err := decode(t, types.CategoryAdditional, `{"subSkills":"python"}`)
	assert.Equal(t, []string{"formData"}, fieldNames(t, err))
}

func TestAcademic_PlanDays(t *testing.T) {
	start := types.MustParseDate("2025-01-01")

	f, err := decode(t, types.CategoryAcademic, `{"syllabus":[{"name":"Algebra","units":"3"}],"totalDays":"45"}`)
	require.NoError(t, err)
	days, err := f.PlanDays(start)
	require.NoError(t, err)
	assert.Equal(t, 45, days)

	f, err = decode(t, types.CategoryAcademic, `{"syllabus":[{"name":"Algebra"}],"examDate":"2025-03-02"}`)
	require.NoError(t, err)
	days, err = f.PlanDays(start)
	require.NoError(t, err)
	assert.Equal(t, 60, days)

	f, err = decode(t, types.CategoryAcademic, `{"syllabus":[{"name":"Algebra"}],"examDate":"2024-12-01"}`)
	require.NoError(t, err)
	_, err = f.PlanDays(start)
	assert.Equal(t, []string{"examDate"}, fieldNames(t, err))

	f, err = decode(t, types.CategoryAcademic, `{"syllabus":[{"name":"Algebra"}]}`)
	require.NoError(t, err)
	_, err = f.PlanDays(start)
	assert.Equal(t, []string{"totalDays"}, fieldNames(t, err))
}

func TestAcademic_InvalidFields(t *testing.T) {
	_, err := decode(t, types.CategoryAcademic, `{"syllabus":[{"name":"A","units":-1}],"examDate":"soon"}`)
	assert.ElementsMatch(t, []string{"syllabus[0].units", "examDate"}, fieldNames(t, err))
}

func TestDurationVariants_PlanDays(t *testing.T) {
	f, err := decode(t, types.CategoryLongTerm, `{"mainGoal":"Ship a startup","milestones":[{"name":"MVP"}],"duration":"90"}`)
	require.NoError(t, err)
	days, err := f.PlanDays(types.Date{})
	require.NoError(t, err)
	assert.Equal(t, 90, days)
	assert.Equal(t, "Ship a startup", f.Subject())

	f, err = decode(t, types.CategoryAdditional, `{"specificSkill":"Go","subSkills":[{"name":"channels"}]}`)
	require.NoError(t, err)
	_, err = f.PlanDays(types.Date{})
	assert.Equal(t, []string{"duration"}, fieldNames(t, err))
}

func TestFlexInt_RejectsFractions(t *testing.T) {
	_, err := decode(t, types.CategoryPersonality, `{"specificGoals":[{"name":"x"}],"duration":1.5}`)
	assert.Equal(t, []string{"formData"}, fieldNames(t, err))
}

func TestBrief_RendersFields(t *testing.T) {
	f, err := decode(t, types.CategoryAcademic, `{
		"academicType":"School",
		"levelDetails":{"standard":"10th","board":"CBSE"},
		"syllabus":[{"name":"Physics","units":4},{"name":""},{"name":"Chemistry"}],
		"currentLevel":"Beginner",
		"totalDays":30
	}`)
	require.NoError(t, err)

	assert.Equal(t, "Academic type: School\n"+
		"Level details: board=CBSE, standard=10th\n"+
		"Syllabus: Physics (4 units), Chemistry\n"+
		"Current level: Beginner", f.Brief())
	assert.Equal(t, "Physics, Chemistry", f.Subject())
}

func TestRegenerate_CopiesAndSetsExtras(t *testing.T) {
	f, err := decode(t, types.CategoryPersonality, `{"goalType":"Confidence","specificGoals":[{"name":"Public speaking"}],"duration":21}`)
	require.NoError(t, err)

	r := f.Regenerate("Confidence Builder", "more outdoor practice")
	assert.Equal(t, "Confidence Builder", r.Subject())
	assert.Contains(t, r.Brief(), "Customization: more outdoor practice")
	assert.Contains(t, r.Brief(), "Goal: Confidence Builder")

	assert.Equal(t, "Confidence", f.Subject(), "original form is unchanged")
	assert.NotContains(t, f.Brief(), "Customization")
}
