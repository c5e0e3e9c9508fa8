package types

import (
	"encoding/json"
	"time"
)

// Category identifies which kind of plan a roadmap follows.
type Category string

const (
	CategoryAcademic    Category = "academic"
	CategoryLongTerm    Category = "long-term"
	CategoryPersonality Category = "personality"
	CategoryAdditional  Category = "additional"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryAcademic,
	CategoryLongTerm,
	CategoryPersonality,
	CategoryAdditional,
}

// CategoryNames returns the category values as plain strings.
func CategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return names
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Roadmap is the per-user aggregate holding a day-indexed plan and its chat log.
type Roadmap struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Category       Category        `json:"category"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	FormData       json.RawMessage `json:"formData"`
	TotalDays      int             `json:"totalDays"`
	StartDate      Date            `json:"startDate"`
	DailyTasks     []DailyTask     `json:"dailyTasks"`
	ChatbotHistory []HistoryEntry  `json:"chatbotHistory"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// DailyTask is one day's unit of work. It has no lifecycle outside its roadmap.
// ID is empty until the task is first persisted.
type DailyTask struct {
	ID           string `json:"id"`
	Day          int    `json:"day"`
	Date         Date   `json:"date"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Completed    bool   `json:"completed"`
	ReminderSent bool   `json:"reminderSent"`
}

// ChatRequest is the recorded request half of a chatbot exchange.
type ChatRequest struct {
	Action string         `json:"action"`
	Data   map[string]any `json:"data"`
}

// HistoryEntry is one append-only chatbot exchange.
type HistoryEntry struct {
	ID        string      `json:"id"`
	Request   ChatRequest `json:"request"`
	Response  string      `json:"response"`
	Timestamp time.Time   `json:"timestamp"`
}

// TaskSummary is the (day, title) view of a task sent to the model.
type TaskSummary struct {
	Day   int    `json:"day"`
	Title string `json:"title"`
}

// Summaries returns the (day, title) pairs of the roadmap's tasks in order.
func (r *Roadmap) Summaries() []TaskSummary {
	out := make([]TaskSummary, len(r.DailyTasks))
	for i, t := range r.DailyTasks {
		out[i] = TaskSummary{Day: t.Day, Title: t.Title}
	}
	return out
}

// DueReminder is a task due on a given date that has not been reminded yet.
type DueReminder struct {
	TaskID       string `json:"taskId"`
	RoadmapID    string `json:"roadmapId"`
	UserID       string `json:"userId"`
	RoadmapTitle string `json:"roadmapTitle"`
	Day          int    `json:"day"`
	Date         Date   `json:"date"`
	Title        string `json:"title"`
}

// StoreStats contains aggregate store statistics.
type StoreStats struct {
	RoadmapCount int64 `json:"roadmap_count"`
	TaskCount    int64 `json:"task_count"`
}

// --- HTTP request/response bodies ---

// CreateRoadmapRequest is the body of POST /api/roadmap/create.
type CreateRoadmapRequest struct {
	Category  string          `json:"category"`
	FormData  json.RawMessage `json:"formData"`
	StartDate string          `json:"startDate"`
}

// CreateRoadmapResponse is returned on successful creation.
type CreateRoadmapResponse struct {
	ID      string   `json:"id"`
	Roadmap *Roadmap `json:"roadmap"`
}

// UpdateTaskRequest is the body of PATCH /api/roadmap/{id}/task/{taskId}.
// Completed is a pointer so that an absent field is distinguishable from false.
type UpdateTaskRequest struct {
	Completed *bool `json:"completed"`
}

// ChatbotRequest is the body of POST /api/roadmap/chatbot/{id}.
type ChatbotRequest struct {
	Action any            `json:"action"`
	Data   map[string]any `json:"data"`
}

// ChatbotResponse pairs the updated roadmap with the dispatcher's message.
type ChatbotResponse struct {
	Roadmap *Roadmap `json:"roadmap"`
	Message string   `json:"message"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Model        string `json:"model"`
	RoadmapCount int64  `json:"roadmap_count"`
}
