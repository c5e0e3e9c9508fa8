package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Compile-time interface check
var _ Completer = (*OpenAI)(nil)

// CompletionsService defines the interface for making chat completion calls.
// This abstraction enables testing without calling a real provider.
type CompletionsService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAI implements Completer against any OpenAI-compatible chat API.
type OpenAI struct {
	completions CompletionsService
	cfg         Config
	observer    Observer
}

// NewOpenAI creates a client for cfg.Provider. SDK retries are disabled;
// callers decide whether a failed call is worth repeating.
func NewOpenAI(cfg Config, observer Observer) *OpenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = cfg.Provider.DefaultBaseURL()
	}
	if cfg.Model == "" {
		cfg.Model = cfg.Provider.DefaultModel()
	}
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	)
	return newOpenAI(client.Chat.Completions, cfg, observer)
}

func newOpenAI(completions CompletionsService, cfg Config, observer Observer) *OpenAI {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &OpenAI{completions: completions, cfg: cfg, observer: observer}
}

// Complete sends the prompts and returns the first choice's content.
func (o *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	tc := o.cfg.TaskConfig(req.Task)

	if tc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tc.Timeout)
		defer cancel()
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.UserPrompt))

	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(openai.ChatModel(o.cfg.Model)),
		Temperature: openai.F(tc.Temperature),
	}
	if tc.MaxTokens > 0 {
		params.MaxTokens = openai.F(int64(tc.MaxTokens))
	}

	resp, err := o.completions.New(ctx, params)
	latency := time.Since(start).Milliseconds()
	if err == nil && (resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "") {
		err = errors.New("empty completion")
	}
	if err != nil {
		o.observer.OnCallComplete(CallEvent{
			Task:      req.Task,
			Model:     o.cfg.Model,
			LatencyMs: latency,
			ErrorCode: errorCode(ctx, err),
		})
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	o.observer.OnCallComplete(CallEvent{
		Task:      req.Task,
		Model:     o.cfg.Model,
		LatencyMs: latency,
		Success:   true,
	})

	model := resp.Model
	if model == "" {
		model = o.cfg.Model
	}
	return &Response{
		Text:      resp.Choices[0].Message.Content,
		Model:     model,
		LatencyMs: latency,
	}, nil
}

// ModelName returns the configured model name
func (o *OpenAI) ModelName() string {
	return o.cfg.Model
}

func errorCode(ctx context.Context, err error) string {
	if ctx.Err() != nil {
		return "TIMEOUT"
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("HTTP_%d", apiErr.StatusCode)
	}
	return "UNKNOWN"
}
