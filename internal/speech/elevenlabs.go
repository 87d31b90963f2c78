package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultElevenLabsWSBaseURL = "wss://api.elevenlabs.io"
	defaultElevenLabsModel     = "eleven_multilingual_v2"
	defaultElevenLabsFormat    = "pcm_16000"
	synthesizeTimeout          = 45 * time.Second
)

// Voice settings tuned for slow, soft delivery.
var calmVoiceSettings = map[string]any{
	"stability":        0.6,
	"similarity_boost": 0.8,
	"speed":            0.9,
}

// ElevenLabsSynthesizer uses the ElevenLabs stream-input websocket API.
type ElevenLabsSynthesizer struct {
	cfg    Config
	dialer *websocket.Dialer
}

func NewElevenLabsSynthesizer(cfg Config) *ElevenLabsSynthesizer {
	if strings.TrimSpace(cfg.WSBaseURL) == "" {
		cfg.WSBaseURL = defaultElevenLabsWSBaseURL
	}
	if strings.TrimSpace(cfg.ModelID) == "" {
		cfg.ModelID = defaultElevenLabsModel
	}
	if strings.TrimSpace(cfg.OutputFormat) == "" {
		cfg.OutputFormat = defaultElevenLabsFormat
	}
	return &ElevenLabsSynthesizer{cfg: cfg, dialer: websocket.DefaultDialer}
}

type elevenLabsMessage struct {
	Audio       string `json:"audio"`
	IsFinal     bool   `json:"isFinal"`
	Error       string `json:"error"`
	MessageType string `json:"message_type"`
}

func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text string) (Audio, error) {
	segments := splitSegments(text)
	if len(segments) == 0 {
		return Audio{}, errors.New("nothing to synthesize")
	}
	if strings.TrimSpace(s.cfg.VoiceID) == "" {
		return Audio{}, errors.New("voice_id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, synthesizeTimeout)
	defer cancel()

	u, err := url.Parse(strings.TrimRight(s.cfg.WSBaseURL, "/") + "/v1/text-to-speech/" + url.PathEscape(s.cfg.VoiceID) + "/stream-input")
	if err != nil {
		return Audio{}, err
	}
	q := u.Query()
	q.Set("model_id", s.cfg.ModelID)
	q.Set("output_format", s.cfg.OutputFormat)
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("xi-api-key", s.cfg.APIKey)

	conn, _, err := s.dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		return Audio{}, fmt.Errorf("dial tts websocket: %w", err)
	}
	defer conn.Close()

	// Unblock the reader when the context ends.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.WriteJSON(map[string]any{"text": " ", "voice_settings": calmVoiceSettings}); err != nil {
		return Audio{}, fmt.Errorf("prime tts stream: %w", err)
	}
	for _, seg := range segments {
		if err := conn.WriteJSON(map[string]any{"text": seg + " ", "try_trigger_generation": true}); err != nil {
			return Audio{}, fmt.Errorf("send tts text: %w", err)
		}
	}
	if err := conn.WriteJSON(map[string]any{"text": ""}); err != nil {
		return Audio{}, fmt.Errorf("close tts input: %w", err)
	}

	var out []byte
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return Audio{}, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) && len(out) > 0 {
				return Audio{Data: out, Format: s.cfg.OutputFormat}, nil
			}
			return Audio{}, fmt.Errorf("read tts stream: %w", err)
		}
		var msg elevenLabsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Error != "" {
			return Audio{}, fmt.Errorf("tts error: %s %s", msg.MessageType, msg.Error)
		}
		if msg.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(msg.Audio)
			if err != nil {
				return Audio{}, fmt.Errorf("decode audio chunk: %w", err)
			}
			out = append(out, chunk...)
		}
		if msg.IsFinal {
			return Audio{Data: out, Format: s.cfg.OutputFormat}, nil
		}
	}
}
