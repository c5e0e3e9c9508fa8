package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCompletionsService implements CompletionsService for testing.
type mockCompletionsService struct {
	response *openai.ChatCompletion
	err      error
	delay    time.Duration

	callCount  int
	lastParams openai.ChatCompletionNewParams
}

func (m *mockCompletionsService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.callCount++
	m.lastParams = params
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.response, m.err
}

type recordingObserver struct {
	events []CallEvent
}

func (r *recordingObserver) OnCallComplete(e CallEvent) { r.events = append(r.events, e) }

func completion(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Model: "deepseek-chat",
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func testConfig() Config {
	return Config{Provider: ProviderDeepSeek, Model: "deepseek-chat", Tasks: DefaultTasks()}
}

func TestOpenAI_Complete_Success(t *testing.T) {
	svc := &mockCompletionsService{response: completion(`{"title":"Plan"}`)}
	obs := &recordingObserver{}
	client := newOpenAI(svc, testConfig(), obs)

	resp, err := client.Complete(context.Background(), Request{
		Task:         TaskGenerate,
		SystemPrompt: "system",
		UserPrompt:   "user",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Plan"}`, resp.Text)
	assert.Equal(t, "deepseek-chat", resp.Model)

	assert.Equal(t, 1, svc.callCount)
	assert.Equal(t, openai.ChatModel("deepseek-chat"), svc.lastParams.Model.Value)
	assert.Equal(t, int64(4000), svc.lastParams.MaxTokens.Value)
	assert.Len(t, svc.lastParams.Messages.Value, 2)

	require.Len(t, obs.events, 1)
	assert.True(t, obs.events[0].Success)
	assert.Equal(t, TaskGenerate, obs.events[0].Task)
}

func TestOpenAI_Complete_PerTaskTokens(t *testing.T) {
	svc := &mockCompletionsService{response: completion("ok")}
	client := newOpenAI(svc, testConfig(), nil)

	_, err := client.Complete(context.Background(), Request{Task: TaskInterpret, UserPrompt: "u"})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), svc.lastParams.MaxTokens.Value)
	assert.Len(t, svc.lastParams.Messages.Value, 1, "empty system prompt is omitted")
}

func TestOpenAI_Complete_ProviderError(t *testing.T) {
	svc := &mockCompletionsService{err: errors.New("connection refused")}
	obs := &recordingObserver{}
	client := newOpenAI(svc, testConfig(), obs)

	_, err := client.Complete(context.Background(), Request{Task: TaskExplain, UserPrompt: "u"})
	assert.ErrorIs(t, err, ErrUpstream)
	require.Len(t, obs.events, 1)
	assert.False(t, obs.events[0].Success)
	assert.Equal(t, "UNKNOWN", obs.events[0].ErrorCode)
}

func TestOpenAI_Complete_EmptyChoices(t *testing.T) {
	svc := &mockCompletionsService{response: &openai.ChatCompletion{}}
	client := newOpenAI(svc, testConfig(), nil)

	_, err := client.Complete(context.Background(), Request{Task: TaskGenerate, UserPrompt: "u"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestOpenAI_Complete_BlankContent(t *testing.T) {
	svc := &mockCompletionsService{response: completion("   ")}
	client := newOpenAI(svc, testConfig(), nil)

	_, err := client.Complete(context.Background(), Request{Task: TaskGenerate, UserPrompt: "u"})
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestOpenAI_Complete_Timeout(t *testing.T) {
	cfg := testConfig()
	cfg.Tasks = map[TaskType]TaskConfig{
		TaskGenerate: {Temperature: 0.7, MaxTokens: 10, Timeout: 20 * time.Millisecond},
	}
	svc := &mockCompletionsService{response: completion("late"), delay: time.Second}
	obs := &recordingObserver{}
	client := newOpenAI(svc, cfg, obs)

	_, err := client.Complete(context.Background(), Request{Task: TaskGenerate, UserPrompt: "u"})
	assert.ErrorIs(t, err, ErrTimeout)
	require.Len(t, obs.events, 1)
	assert.Equal(t, "TIMEOUT", obs.events[0].ErrorCode)
}

func TestNewOpenAI_ProviderDefaults(t *testing.T) {
	client := NewOpenAI(Config{Provider: ProviderDeepSeek, APIKey: "k"}, nil)
	assert.Equal(t, "deepseek-chat", client.ModelName())
	assert.Equal(t, "https://api.deepseek.com/v1", client.cfg.BaseURL)

	client = NewOpenAI(Config{Provider: ProviderOpenAI, APIKey: "k", Model: "gpt-4o"}, nil)
	assert.Equal(t, "gpt-4o", client.ModelName())
	assert.Equal(t, "https://api.openai.com/v1", client.cfg.BaseURL)
}

func TestConfig_TaskConfigFallbacks(t *testing.T) {
	cfg := Config{Timeout: 5 * time.Second, Tasks: map[TaskType]TaskConfig{
		TaskGenerate: {Temperature: 0.2, MaxTokens: 50},
	}}

	gen := cfg.TaskConfig(TaskGenerate)
	assert.Equal(t, 50, gen.MaxTokens)
	assert.Equal(t, 5*time.Second, gen.Timeout, "global timeout fills an unset task timeout")

	explain := cfg.TaskConfig(TaskExplain)
	assert.Equal(t, DefaultTasks()[TaskExplain].MaxTokens, explain.MaxTokens)
}
