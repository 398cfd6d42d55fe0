package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Provider constants for completion provider selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ErrNoChoices is returned when the service answers without any text.
var ErrNoChoices = errors.New("completion returned no content")

// Config holds completion client configuration.
// MaxTokens and Temperature are fixed per client; every request uses them.
type Config struct {
	Provider    string // "openai" or "anthropic"
	APIKey      string
	BaseURL     string // Optional: custom API endpoint
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Completer turns a prompt into raw completion text with code fences and
// surrounding whitespace removed. Malformed text is not an error here.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// TransientError marks a completion service failure the caller may retry later.
type TransientError struct {
	Provider string
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s completion: %v", e.Provider, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err came from the completion service.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// New creates a Completer for cfg.Provider. Defaults to OpenAI.
func New(cfg Config) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}

	switch cfg.Provider {
	case "", ProviderOpenAI:
		return newOpenAICompleter(cfg), nil
	case ProviderAnthropic:
		return newAnthropicCompleter(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", cfg.Provider)
	}
}

var (
	fencedBlock = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n?(.*?)```")
	strayFence  = regexp.MustCompile("```[A-Za-z0-9_-]*")
)

// StripCodeFence removes Markdown code fences and surrounding whitespace.
// When the text holds a fenced block, only the block body is kept.
//
//	"```json\n{\"a\":1}\n```" -> "{\"a\":1}"
func StripCodeFence(text string) string {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(strayFence.ReplaceAllString(text, ""))
}
