package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ent0n29/hypnoguide/internal/reliability"
)

// HTTPTransport posts to {baseURL}/chat/completions directly. It is the
// tolerant option for gateways whose replies the SDK cannot decode, such as
// legacy text completions.
type HTTPTransport struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPTransport(baseURL, apiKey string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		url:    strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/chat/completions",
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTransport) Complete(ctx context.Context, req Request) (Completion, error) {
	payload, err := json.Marshal(chatRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)

	res, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return nil, &reliability.StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out Completion
	if err := json.Unmarshal(body, &out); err != nil {
		// Plain-text bodies are surfaced as a legacy text completion.
		text := strings.TrimSpace(string(body))
		if text == "" {
			return Completion{}, nil
		}
		return Completion{"choices": []any{map[string]any{"text": text}}}, nil
	}
	if apiErr, ok := out["error"].(map[string]any); ok {
		msg, _ := apiErr["message"].(string)
		return nil, fmt.Errorf("llm api error: %s", msg)
	}
	return out, nil
}
