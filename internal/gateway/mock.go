package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MockTransport returns deterministic replies without a network call.
type MockTransport struct{}

func NewMockTransport() *MockTransport { return &MockTransport{} }

func (t *MockTransport) Complete(ctx context.Context, req Request) (Completion, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	heard := strings.TrimSpace(req.UserMessage)
	if heard == "" {
		heard = "the quiet between words"
	}
	content, err := json.Marshal(map[string]any{
		"reply":   fmt.Sprintf("I hear you softly (pause) %s", heard),
		"actions": []any{},
		"memory_update": map[string]any{
			"type":    MemoryUpdateNone,
			"content": "",
		},
	})
	if err != nil {
		return nil, err
	}
	return Completion{
		"choices": []any{
			map[string]any{
				"message": map[string]any{"role": "assistant", "content": string(content)},
			},
		},
	}, nil
}
