package llm

import "time"

// Provider names an OpenAI-compatible completion endpoint.
type Provider string

const (
	ProviderOpenAI   Provider = "openai"
	ProviderDeepSeek Provider = "deepseek"
)

// DefaultBaseURL returns the API root used when no base URL is configured.
func (p Provider) DefaultBaseURL() string {
	switch p {
	case ProviderDeepSeek:
		return "https://api.deepseek.com/v1"
	default:
		return "https://api.openai.com/v1"
	}
}

// DefaultModel returns the model used when none is configured.
func (p Provider) DefaultModel() string {
	switch p {
	case ProviderDeepSeek:
		return "deepseek-chat"
	default:
		return "gpt-4o-mini"
	}
}

// TaskConfig holds per-task sampling parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Config holds everything needed to build a client.
type Config struct {
	Provider Provider
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	Tasks    map[TaskType]TaskConfig
}

// DefaultTasks returns the sampling parameters for each task.
// Generation needs room for a full 30-day chunk.
func DefaultTasks() map[TaskType]TaskConfig {
	return map[TaskType]TaskConfig{
		TaskGenerate:  {Temperature: 0.7, MaxTokens: 4000, Timeout: 120 * time.Second},
		TaskInterpret: {Temperature: 0.7, MaxTokens: 1000, Timeout: 30 * time.Second},
		TaskExplain:   {Temperature: 0.7, MaxTokens: 1000, Timeout: 30 * time.Second},
	}
}

// TaskConfig returns the parameters for task, falling back to the defaults.
func (c Config) TaskConfig(task TaskType) TaskConfig {
	tc, ok := c.Tasks[task]
	if !ok {
		tc = DefaultTasks()[task]
	}
	if tc.Timeout <= 0 {
		tc.Timeout = c.Timeout
	}
	return tc
}
