package speech

import (
	"context"
	"strings"
)

// MockSynthesizer echoes the text bytes back as audio. Useful for wiring and tests.
type MockSynthesizer struct{}

func NewMockSynthesizer() *MockSynthesizer { return &MockSynthesizer{} }

func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) (Audio, error) {
	if err := ctx.Err(); err != nil {
		return Audio{}, err
	}
	return Audio{Data: []byte(strings.Join(splitSegments(text), " ")), Format: "mock_text_bytes"}, nil
}
