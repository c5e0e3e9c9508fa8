package generation

import "github.com/hyperengineering/protrack/internal/types"

// DraftTask is one generated day of work before it is dated.
type DraftTask struct {
	Day         int    `json:"day"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Draft is a complete generated plan covering days 1..TotalDays.
type Draft struct {
	Title       string
	Description string
	TotalDays   int
	Tasks       []DraftTask
}

// Materialize dates each draft task relative to start. Tasks keep the order
// they have in the draft.
func Materialize(draft *Draft, start types.Date) []types.DailyTask {
	if draft == nil {
		return []types.DailyTask{}
	}
	tasks := make([]types.DailyTask, len(draft.Tasks))
	for i, t := range draft.Tasks {
		tasks[i] = types.DailyTask{
			Day:         t.Day,
			Date:        start.DayOffset(t.Day),
			Title:       t.Title,
			Description: t.Description,
		}
	}
	return tasks
}
