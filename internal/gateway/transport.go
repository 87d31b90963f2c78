package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrMissingAPIKey is returned when a networked transport is built without a credential.
var ErrMissingAPIKey = errors.New("llm api key is required")

// Request is one chat-completion call: a short system directive plus the
// composed prompt as the user message.
type Request struct {
	Model       string
	Directive   string
	Prompt      string
	UserMessage string
}

// Completion is the decoded response body. Its shape varies between
// providers, so it is kept untyped and read by the content extractors.
type Completion map[string]any

// Transport performs a single remote completion request.
type Transport interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// TransportConfig controls transport construction.
type TransportConfig struct {
	Mode    string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	defaultTimeout = 60 * time.Second
)

func NewTransport(cfg TransportConfig) (Transport, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "openai"
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	switch mode {
	case "openai", "http":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, ErrMissingAPIKey
		}
		if mode == "http" {
			return NewHTTPTransport(cfg.BaseURL, cfg.APIKey, cfg.Timeout), nil
		}
		return NewOpenAITransport(cfg.BaseURL, cfg.APIKey, cfg.Timeout), nil
	case "mock":
		return NewMockTransport(), nil
	default:
		return nil, fmt.Errorf("unsupported llm transport %q", cfg.Mode)
	}
}

// chatRequest builds the wire request shared by the SDK and raw HTTP transports.
func chatRequest(req Request) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.Directive},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
}
