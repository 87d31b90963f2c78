package speech

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Audio is synthesized speech. Format follows the provider's naming, e.g.
// "pcm_16000" or "mp3_44100_128".
type Audio struct {
	Data   []byte
	Format string
}

// Synthesizer renders text to audio in one call.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Audio, error)
}

// Config controls synthesizer construction.
type Config struct {
	Provider     string
	APIKey       string
	WSBaseURL    string
	VoiceID      string
	ModelID      string
	OutputFormat string
}

// NewSynthesizer resolves the configured provider. It returns a nil
// Synthesizer for "none". The resolved provider name is returned alongside.
func NewSynthesizer(cfg Config) (Synthesizer, string, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = "auto"
	}

	switch provider {
	case "elevenlabs":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, "", fmt.Errorf("VOICE_PROVIDER=elevenlabs but ELEVENLABS_API_KEY is not set")
		}
		return NewElevenLabsSynthesizer(cfg), "elevenlabs", nil
	case "mock":
		return NewMockSynthesizer(), "mock", nil
	case "none":
		return nil, "none", nil
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewElevenLabsSynthesizer(cfg), "elevenlabs", nil
		}
		log.Printf("voice provider: mock (no elevenlabs key)")
		return NewMockSynthesizer(), "mock", nil
	default:
		return nil, "", fmt.Errorf("invalid VOICE_PROVIDER: %q (expected auto|elevenlabs|mock|none)", cfg.Provider)
	}
}
