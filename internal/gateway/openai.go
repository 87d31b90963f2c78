package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ent0n29/hypnoguide/internal/reliability"
)

// OpenAITransport talks to any OpenAI-compatible endpoint (OpenRouter by
// default) through the go-openai client.
type OpenAITransport struct {
	client *openai.Client
}

func NewOpenAITransport(baseURL, apiKey string, timeout time.Duration) *OpenAITransport {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &OpenAITransport{client: openai.NewClientWithConfig(cfg)}
}

func (t *OpenAITransport) Complete(ctx context.Context, req Request) (Completion, error) {
	resp, err := t.client.CreateChatCompletion(ctx, chatRequest(req))
	if err != nil {
		return nil, classifySDKError(err)
	}
	return toCompletion(resp)
}

// classifySDKError maps go-openai errors onto StatusError so callers can tell
// transient failures apart.
func classifySDKError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &reliability.StatusError{Code: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return &reliability.StatusError{Code: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return err
}

func toCompletion(v any) (Completion, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode completion: %w", err)
	}
	var out Completion
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	return out, nil
}
