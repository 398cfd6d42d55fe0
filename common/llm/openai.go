package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/br00kd0wnt0n/LENNYBOT/common/metrics"
)

type openAICompleter struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64
}

func newOpenAICompleter(cfg Config) *openAICompleter {
	// A failed call is retried by the next backlog sweep, not here.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}

	return &openAICompleter{
		client:      openai.NewClient(opts...),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (c *openAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(int64(c.maxTokens)),
		Temperature: openai.Float(c.temperature),
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		metrics.CompletionLatency.WithLabelValues(ProviderOpenAI, metrics.OutcomeFailed).Observe(time.Since(start).Seconds())
		return "", &TransientError{Provider: ProviderOpenAI, Err: err}
	}
	metrics.CompletionLatency.WithLabelValues(ProviderOpenAI, metrics.OutcomeSuccess).Observe(time.Since(start).Seconds())

	slog.DebugContext(ctx, "completion finished",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	if len(resp.Choices) == 0 {
		return "", &TransientError{Provider: ProviderOpenAI, Err: ErrNoChoices}
	}

	return StripCodeFence(resp.Choices[0].Message.Content), nil
}

func (c *openAICompleter) Model() string {
	return c.model
}
