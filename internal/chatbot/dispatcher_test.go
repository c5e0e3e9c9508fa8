package chatbot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperengineering/protrack/internal/category"
	"github.com/hyperengineering/protrack/internal/generation"
	"github.com/hyperengineering/protrack/internal/types"
)

type fakeStore struct {
	saves int
	err   error
}

func (s *fakeStore) SaveRoadmap(_ context.Context, _ *types.Roadmap) error {
	s.saves++
	return s.err
}

type fakeRegenerator struct {
	draft *generation.Draft
	err   error

	form      category.Form
	start     types.Date
	totalDays int
}

func (g *fakeRegenerator) Generate(_ context.Context, form category.Form, start types.Date, totalDays int) (*generation.Draft, error) {
	g.form, g.start, g.totalDays = form, start, totalDays
	return g.draft, g.err
}

type fakeInterpreter struct {
	instr *Instruction
	err   error

	text  string
	tasks []types.TaskSummary
}

func (i *fakeInterpreter) Interpret(_ context.Context, text string, tasks []types.TaskSummary) (*Instruction, error) {
	i.text, i.tasks = text, tasks
	if i.err != nil {
		return nil, i.err
	}
	return i.instr, nil
}

type fakeExplainer struct {
	text  string
	topic string
	cat   types.Category
}

func (e *fakeExplainer) Explain(_ context.Context, topic string, c types.Category) (string, error) {
	e.topic, e.cat = topic, c
	return e.text, nil
}

type fixture struct {
	store       *fakeStore
	regenerator *fakeRegenerator
	interpreter *fakeInterpreter
	explainer   *fakeExplainer
	dispatcher  *Dispatcher
}

var fixedNow = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	category.Reset()
	t.Cleanup(category.Reset)
	category.RegisterBuiltins()

	f := &fixture{
		store:       &fakeStore{},
		regenerator: &fakeRegenerator{},
		interpreter: &fakeInterpreter{instr: &Instruction{}},
		explainer:   &fakeExplainer{},
	}
	f.dispatcher = NewDispatcher(f.store, f.regenerator, f.interpreter, f.explainer,
		WithClock(func() time.Time { return fixedNow }))
	return f
}

func threeDayRoadmap() *types.Roadmap {
	start := types.MustParseDate("2025-01-01")
	return &types.Roadmap{
		ID:        "01JROADMAP0000000000000000",
		UserID:    "user-1",
		Category:  types.CategoryPersonality,
		Title:     "Confidence",
		FormData:  []byte(`{"goalType":"Confidence","specificGoals":[{"name":"Speaking"}],"duration":3}`),
		TotalDays: 3,
		StartDate: start,
		DailyTasks: []types.DailyTask{
			{ID: "t1", Day: 1, Date: start.DayOffset(1), Title: "Warm up"},
			{ID: "t2", Day: 2, Date: start.DayOffset(2), Title: "Practice", Completed: true},
			{ID: "t3", Day: 3, Date: start.DayOffset(3), Title: "Old"},
		},
	}
}

func titles(r *types.Roadmap) []string {
	out := make([]string, len(r.DailyTasks))
	for i, t := range r.DailyTasks {
		out[i] = t.Title
	}
	return out
}

func TestApply_AddSortsAndRecordsHistory(t *testing.T) {
	f := newFixture(t)
	r := threeDayRoadmap()

	res, err := f.dispatcher.Apply(context.Background(), r, "add", map[string]any{"title": "X", "day": float64(2)})
	require.NoError(t, err)

	assert.Equal(t, `Added "X" to Day 2`, res.Message)
	assert.Equal(t, []string{"Warm up", "Practice", "X", "Old"}, titles(r))
	added := r.DailyTasks[2]
	assert.Equal(t, "2025-01-02", added.Date.String())
	assert.Equal(t, "Added task", added.Description)
	assert.False(t, added.Completed)

	require.Len(t, r.ChatbotHistory, 1)
	entry := r.ChatbotHistory[0]
	assert.Equal(t, "add", entry.Request.Action)
	assert.Equal(t, "X", entry.Request.Data["title"])
	assert.Equal(t, res.Message, entry.Response)
	assert.Equal(t, fixedNow, entry.Timestamp)
	assert.Equal(t, 1, f.store.saves)
}

func TestApply_AddAcceptsStringDay(t *testing.T) {
	f := newFixture(t)
	r := threeDayRoadmap()

	res, err := f.dispatcher.Apply(context.Background(), r, "ADD", map[string]any{"title": "Early", "day": "1", "description": "first thing"})
	require.NoError(t, err)
	assert.Equal(t, `Added "Early" to Day 1`, res.Message)
	assert.Equal(t, "first thing", r.DailyTasks[1].Description)
	assert.Equal(t, "add", r.ChatbotHistory[0].Request.Action, "action is stored lower-cased")
}

func TestApply_ValidationFailsBeforeMutation(t *testing.T) {
	tests := []struct {
		name   string
		action string
		data   map[string]any
		want   string
	}{
		{"add without day", "add", map[string]any{"title": "X"}, "Title and day are required for add action"},
		{"add without title", "add", map[string]any{"day": 2}, "Title and day are required for add action"},
		{"add bad day", "add", map[string]any{"title": "X", "day": "soon"}, "Invalid day"},
		{"add zero day", "add", map[string]any{"title": "X", "day": 0}, "Invalid day"},
		{"add day past limit", "add", map[string]any{"title": "Far", "day": 3000000}, "Invalid day: day must be at most 36500"},
		{"edit day past limit", "edit", map[string]any{"title": "Old", "newTitle": "New", "day": "3000000"}, "Invalid day: day must be at most 36500"},
		{"edit without newTitle", "edit", map[string]any{"title": "Old"}, "Current title and new title are required for edit action"},
		{"edit bad day", "edit", map[string]any{"title": "Old", "newTitle": "New", "day": 2.5}, "Invalid day"},
		{"delete without title", "delete", nil, "Title is required for delete action"},
		{"regenerate without customization", "regenerate", map[string]any{}, "Customization message is required for regenerate action"},
		{"explain without message", "explain", map[string]any{}, "Message is required for explain action"},
		{"empty action", "", nil, "Action is required and must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			r := threeDayRoadmap()

			_, err := f.dispatcher.Apply(context.Background(), r, tt.action, tt.data)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.True(t, strings.HasPrefix(ve.Message, tt.want), "message %q", ve.Message)

			assert.Equal(t, []string{"Warm up", "Practice", "Old"}, titles(r))
			assert.Empty(t, r.ChatbotHistory)
			assert.Zero(t, f.store.saves)
		})
	}
}

func TestApply_DeleteSoftMiss(t *testing.T) {
	f := newFixture(t)
	r := threeDayRoadmap()

	res, err := f.dispatcher.Apply(context.Background(), r, "delete", map[string]any{"title": "Nonexistent"})
	require.NoError(t, err)
	assert.Equal(t, `Task "Nonexistent" not found`, res.Message)
	assert.Len(t, r.DailyTasks, 3)
	assert.Len(t, r.ChatbotHistory, 1)
	assert.Equal(t, 1, f.store.saves)
}

func TestApply_DeleteRemovesEveryMatch(t *testing.T) {
	f := newFixture(t)
	r := threeDayRoadmap()
	r.DailyTasks = append(r.DailyTasks, types.DailyTask{Day: 4, Title: "Practice"})

	res, err := f.dispatcher.Apply(context.Background(), r, "delete", map[string]any{"title": "Practice"})
	require.NoError(t, err)
	assert.Equal(t, `Deleted "Practice"`, res.Message)
	assert.Equal(t, []string{"Warm up", "Old"}, titles(r))
}

func TestApply_EditRenameAndReschedule(t *testing.T) {
	f := newFixture(t)
	r := threeDayRoadmap()
	r.DailyTasks = append(r.DailyTasks, types.DailyTask{Day: 4, Title: "Review"})

	res, err := f.dispatcher.Apply(context.Background(), r, "edit", map[string]any{
		"title": "Old", "newTitle": "New", "day": float64(5), "description": "updated",
	})
	require.NoError(t, err)
	assert.Equal(t, `Edited task title from "Old" to "New"`, res.Message)

	assert.Equal(t, []string{"Warm up", "Practice", "Review", "New"}, titles(r))
	edited := r.DailyTasks[3]
	assert.Equal(t, 5, edited.Day)
	assert.Equal(t, "2025-01-05", edited.Date.String())
	assert.Equal(t, "updated", edited.Description)
	assert.Equal(t, "t3", edited.ID, "task identity survives edits")
}

func TestApply_EditFirstMatchOnly(t *testing.T) {
	f := newFixture(t)
	r := threeDayRoadmap()
	r.DailyTasks = append(r.DailyTasks, types.DailyTask{Day: 4, Title: "Old"})

	_, err := f.dispatcher.Apply(context.Background(), r, "edit", map[string]any{"title": "Old", "newTitle": "New"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Warm up", "Practice", "New", "Old"}, titles(r))
}

func TestApply_EditSoftMiss(t *testing.T) {
	f := newFixture(t)
	r := threeDayRoadmap()

	res, err := f.dispatcher.Apply(context.Background(), r, "edit", map[string]any{"title": "Missing", "newTitle": "New"})
	require.NoError(t, err)
	assert.Equal(t, `Task "Missing" not found`, res.Message)
}

func TestApply_Regenerate(t *testing.T) {
	f := newFixture(t)
	f.regenerator.draft = &generation.Draft{
		Title:       "Confidence, outdoors",
		Description: "Fresh plan",
		TotalDays:   2,
		Tasks: []generation.DraftTask{
			{Day: 1, Title: "Walk and talk"},
			{Day: 2, Title: "Park speech"},
		},
	}
	r := threeDayRoadmap()

	res, err := f.dispatcher.Apply(context.Background(), r, "regenerate", map[string]any{"customization": "more outdoor practice"})
	require.NoError(t, err)
	assert.Equal(t, "Roadmap regenerated successfully with customization", res.Message)

	assert.Equal(t, "Confidence", f.regenerator.form.Subject(), "previous title is the goal")
	assert.Contains(t, f.regenerator.form.Brief(), "Customization: more outdoor practice")
	assert.Contains(t, f.regenerator.form.Brief(), "Speaking")
	assert.Equal(t, r.StartDate, f.regenerator.start)
	assert.Equal(t, 3, f.regenerator.totalDays)

	assert.Equal(t, "Confidence, outdoors", r.Title)
	assert.Equal(t, "Fresh plan", r.Description)
	assert.Equal(t, 2, r.TotalDays)
	assert.Equal(t, []string{"Walk and talk", "Park speech"}, titles(r))
	for _, task := range r.DailyTasks {
		assert.False(t, task.Completed, "regeneration resets completion")
		assert.Empty(t, task.ID)
	}
	assert.Equal(t, "2025-01-02", r.DailyTasks[1].Date.String())
}

func TestApply_RegenerateFailure(t *testing.T) {
	f := newFixture(t)
	f.regenerator.err = errors.New("model unavailable")
	r := threeDayRoadmap()

	_, err := f.dispatcher.Apply(context.Background(), r, "regenerate", map[string]any{"customization": "x"})
	var re *RegenerationError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Error regenerating roadmap: model unavailable", err.Error())
	assert.Zero(t, f.store.saves)
	assert.Empty(t, r.ChatbotHistory)
}

func TestApply_RegenerateCorruptFormData(t *testing.T) {
	f := newFixture(t)
	r := threeDayRoadmap()
	r.FormData = []byte(`{"specificGoals":[]}`)

	_, err := f.dispatcher.Apply(context.Background(), r, "regenerate", map[string]any{"customization": "x"})
	var re *RegenerationError
	require.True(t, errors.As(err, &re))
	assert.Nil(t, f.regenerator.form, "no model call with an invalid form")
}

func TestApply_ExplainIsReadOnlyButRecorded(t *testing.T) {
	f := newFixture(t)
	f.explainer.text = "Deliberate practice means..."
	r := threeDayRoadmap()
	r.DailyTasks[0], r.DailyTasks[2] = r.DailyTasks[2], r.DailyTasks[0]
	before := titles(r)

	res, err := f.dispatcher.Apply(context.Background(), r, "explain", map[string]any{"message": "deliberate practice"})
	require.NoError(t, err)

	assert.Equal(t, "Deliberate practice means...", res.Message)
	assert.Equal(t, "deliberate practice", f.explainer.topic)
	assert.Equal(t, types.CategoryPersonality, f.explainer.cat)
	assert.Equal(t, before, titles(r), "explain does not re-sort")
	assert.Len(t, r.ChatbotHistory, 1)
	assert.Equal(t, 1, f.store.saves)
}

func TestApply_UnknownActionUsesInterpreter(t *testing.T) {
	f := newFixture(t)
	f.interpreter.instr = &Instruction{
		Action: "move",
		Title:  "Old",
		Day:    1,
		Modifications: map[string]any{
			"title":     "Confidence Sprint",
			"totalDays": "40",
			"userId":    "attacker",
			"startDate": "1999-01-01",
		},
	}
	r := threeDayRoadmap()

	res, err := f.dispatcher.Apply(context.Background(), r, "Reschedule", map[string]any{"note": "move Old first"})
	require.NoError(t, err)

	assert.Equal(t, "Action: Reschedule\nContext: {\"note\":\"move Old first\"}", f.interpreter.text)
	assert.Equal(t, []types.TaskSummary{{Day: 1, Title: "Warm up"}, {Day: 2, Title: "Practice"}, {Day: 3, Title: "Old"}}, f.interpreter.tasks)

	assert.Equal(t, `Moved "Old" to Day 1`, res.Message)
	assert.Equal(t, []string{"Warm up", "Old", "Practice"}, titles(r))
	assert.Equal(t, "2025-01-01", r.DailyTasks[1].Date.String())

	assert.Equal(t, "Confidence Sprint", r.Title)
	assert.Equal(t, 40, r.TotalDays)
	assert.Equal(t, "user-1", r.UserID, "protected fields are never merged")
	assert.Equal(t, "2025-01-01", r.StartDate.String())

	assert.Equal(t, "reschedule", r.ChatbotHistory[0].Request.Action)
	assert.Equal(t, 1, f.store.saves)
}

func TestApply_InterpreterMessagePrecedence(t *testing.T) {
	tests := []struct {
		name  string
		instr *Instruction
		want  string
	}{
		{"model message wins", &Instruction{Action: "delete", Title: "Old", Message: "Done!"}, "Done!"},
		{"handler message", &Instruction{Action: "delete", Title: "Old"}, `Deleted "Old"`},
		{"explanation", &Instruction{Action: "explain", Explanation: " Because. "}, "Because."},
		{"soft reply for missing params", &Instruction{Action: "add", Title: "X"}, "I need a task title and a day to add a task"},
		{"soft reply for far add", &Instruction{Action: "add", Title: "X", Day: 3000000}, "Day 3000000 is too far out to schedule; pick a day up to 36500"},
		{"soft reply for far move", &Instruction{Action: "move", Title: "Old", Day: 40000}, "Day 40000 is too far out to schedule; pick a day up to 36500"},
		{"soft reply for far edit", &Instruction{Action: "edit", Title: "Old", NewTitle: "New", Day: 40000}, "Day 40000 is too far out to schedule; pick a day up to 36500"},
		{"nothing usable", &Instruction{}, "Custom action processed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.interpreter.instr = tt.instr

			res, err := f.dispatcher.Apply(context.Background(), threeDayRoadmap(), "whatever", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Message)
		})
	}
}

func TestApply_InterpreterErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.interpreter.err = errors.New("malformed")
	r := threeDayRoadmap()

	_, err := f.dispatcher.Apply(context.Background(), r, "shuffle", nil)
	assert.Error(t, err)
	assert.Zero(t, f.store.saves)
	assert.Empty(t, r.ChatbotHistory)
}

func TestApply_SaveErrorIsReturned(t *testing.T) {
	f := newFixture(t)
	f.store.err = errors.New("disk full")

	_, err := f.dispatcher.Apply(context.Background(), threeDayRoadmap(), "delete", map[string]any{"title": "Old"})
	assert.ErrorContains(t, err, "disk full")
}

func TestApply_HistoryIsAppendOnly(t *testing.T) {
	f := newFixture(t)
	f.explainer.text = "ok"
	r := threeDayRoadmap()

	steps := []struct {
		action string
		data   map[string]any
	}{
		{"add", map[string]any{"title": "A", "day": 4}},
		{"delete", map[string]any{"title": "Nope"}},
		{"explain", map[string]any{"message": "x"}},
		{"custom", nil},
	}
	for i, s := range steps {
		_, err := f.dispatcher.Apply(context.Background(), r, s.action, s.data)
		require.NoError(t, err)
		assert.Len(t, r.ChatbotHistory, i+1)
	}
	assert.Equal(t, "add", r.ChatbotHistory[0].Request.Action)
	assert.Equal(t, "custom", r.ChatbotHistory[3].Request.Action)
	assert.NotNil(t, r.ChatbotHistory[3].Request.Data, "missing data is recorded as an empty object")
	assert.Equal(t, len(steps), f.store.saves)
}

func TestApply_DayMustDateWithinLastDate(t *testing.T) {
	f := newFixture(t)
	r := threeDayRoadmap()
	r.StartDate = types.MustParseDate("9999-12-01")

	_, err := f.dispatcher.Apply(context.Background(), r, "add", map[string]any{"title": "Late", "day": 31})
	require.NoError(t, err, "day 31 lands on 9999-12-31")

	_, err = f.dispatcher.Apply(context.Background(), r, "add", map[string]any{"title": "Later", "day": 32})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	assert.Equal(t, "Invalid day: day 32 falls after 9999-12-31", ve.Message)
	assert.NotContains(t, titles(r), "Later")
}

func TestApply_FarInterpretedDayLeavesTasksUntouched(t *testing.T) {
	f := newFixture(t)
	f.interpreter.instr = &Instruction{Action: "move", Title: "Old", Day: 3000000}
	r := threeDayRoadmap()

	_, err := f.dispatcher.Apply(context.Background(), r, "push it back", nil)
	require.NoError(t, err)
	for _, task := range r.DailyTasks {
		assert.LessOrEqual(t, task.Day, 3)
	}
}

func TestApply_MessagesKeepTitleVerbatim(t *testing.T) {
	const title = `C:\path "x"`

	f := newFixture(t)
	r := threeDayRoadmap()

	res, err := f.dispatcher.Apply(context.Background(), r, "add", map[string]any{"title": title, "day": 2})
	require.NoError(t, err)
	assert.Equal(t, `Added "C:\path "x"" to Day 2`, res.Message)

	res, err = f.dispatcher.Apply(context.Background(), r, "edit", map[string]any{"title": title, "newTitle": `say "hi"`})
	require.NoError(t, err)
	assert.Equal(t, `Edited task title from "C:\path "x"" to "say "hi""`, res.Message)

	res, err = f.dispatcher.Apply(context.Background(), r, "delete", map[string]any{"title": `say "hi"`})
	require.NoError(t, err)
	assert.Equal(t, `Deleted "say "hi""`, res.Message)

	res, err = f.dispatcher.Apply(context.Background(), r, "delete", map[string]any{"title": `say "hi"`})
	require.NoError(t, err)
	assert.Equal(t, `Task "say "hi"" not found`, res.Message)

	assert.Equal(t, `Deleted "say "hi""`, r.ChatbotHistory[2].Response, "history stores the same text")
}
