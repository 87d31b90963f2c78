// Package chat runs one conversation turn end to end: buffer, model gateway,
// preference updates, speech text and the transcript archive.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ent0n29/hypnoguide/internal/gateway"
	"github.com/ent0n29/hypnoguide/internal/memory"
	"github.com/ent0n29/hypnoguide/internal/observability"
	"github.com/ent0n29/hypnoguide/internal/policy"
	"github.com/ent0n29/hypnoguide/internal/session"
	"github.com/ent0n29/hypnoguide/internal/speech"
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrSpeechDisabled = errors.New("speech synthesis is disabled")
)

const emptyReplyFallback = "I'm sorry, I encountered an error."

// Responder produces the model reply for one user message.
type Responder interface {
	Respond(ctx context.Context, userMessage string, buffer, prefs gateway.Summarizer) (gateway.Reply, gateway.Outcome)
}

// Result is what a caller shows and speaks for one turn.
type Result struct {
	SessionID    string               `json:"session_id"`
	Reply        string               `json:"reply"`
	SpeechText   string               `json:"speech_text"`
	Actions      []any                `json:"actions"`
	MemoryUpdate gateway.MemoryUpdate `json:"memory_update"`
	Outcome      gateway.Outcome      `json:"outcome"`
}

// DebugView exposes both context stores as raw JSON.
type DebugView struct {
	Preferences json.RawMessage `json:"preferences"`
	Buffer      json.RawMessage `json:"buffer"`
}

type Deps struct {
	Buffer      *memory.ConversationBuffer
	Preferences *memory.PreferenceStore
	Responder   Responder
	Sessions    *session.Tracker
	Archive     memory.Archive
	Metrics     *observability.Metrics
	Synthesizer speech.Synthesizer
	// VoiceProvider labels TTS failures in metrics.
	VoiceProvider string
}

// Service serializes turns: at most one model call is in flight.
type Service struct {
	mu            sync.Mutex
	buffer        *memory.ConversationBuffer
	prefs         *memory.PreferenceStore
	responder     Responder
	sessions      *session.Tracker
	archive       memory.Archive
	metrics       *observability.Metrics
	synth         speech.Synthesizer
	voiceProvider string
	// bufferSession is the session whose turns the buffer holds.
	bufferSession string
}

func NewService(d Deps) *Service {
	s := &Service{
		buffer:        d.Buffer,
		prefs:         d.Preferences,
		responder:     d.Responder,
		sessions:      d.Sessions,
		archive:       d.Archive,
		metrics:       d.Metrics,
		synth:         d.Synthesizer,
		voiceProvider: d.VoiceProvider,
	}
	if s.buffer == nil {
		s.buffer = memory.NewConversationBuffer(memory.DefaultMaxTurns, memory.DefaultMaxChars)
	}
	if s.sessions == nil {
		s.sessions = session.NewTracker(0)
	}
	s.sessions.SetEndHook(s.onSessionEnd)
	return s
}

func (s *Service) onSessionEnd(ended *session.Session) {
	s.mu.Lock()
	// A late hook must not wipe turns that already belong to a newer session.
	if s.bufferSession == ended.ID {
		s.buffer.Reset()
		s.bufferSession = ""
	}
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues("ended").Inc()
	}
	log.Printf("session %s ended after %d turns", ended.ID, ended.TurnCount)
}

// HandleMessage runs one user turn. The only error is ErrEmptyMessage; model
// and storage failures are folded into the Result.
func (s *Service) HandleMessage(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyMessage
	}

	sess, started := s.sessions.Touch()
	if started && s.metrics != nil {
		s.metrics.SessionEvents.WithLabelValues("started").Inc()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bufferSession != sess.ID {
		s.buffer.Reset()
		s.bufferSession = sess.ID
	}
	s.buffer.AddTurn(memory.RoleUser, text)

	began := time.Now()
	reply, outcome := s.responder.Respond(ctx, text, s.buffer, s.prefs)
	if s.metrics != nil {
		s.metrics.ObserveGatewayLatency(time.Since(began))
		s.metrics.GatewayOutcomes.WithLabelValues(string(outcome)).Inc()
	}

	s.applyMemoryUpdate(reply.MemoryUpdate)

	answer := reply.Reply
	if answer == "" {
		answer = emptyReplyFallback
	}
	s.buffer.AddTurn(memory.RoleAssistant, answer)

	if s.metrics != nil {
		s.metrics.Turns.WithLabelValues(memory.RoleUser).Inc()
		s.metrics.Turns.WithLabelValues(memory.RoleAssistant).Inc()
	}
	s.archiveTurn(ctx, sess.ID, memory.RoleUser, text)
	s.archiveTurn(ctx, sess.ID, memory.RoleAssistant, answer)

	return Result{
		SessionID:    sess.ID,
		Reply:        answer,
		SpeechText:   speech.SpeechText(answer),
		Actions:      reply.Actions,
		MemoryUpdate: reply.MemoryUpdate,
		Outcome:      outcome,
	}, nil
}

func (s *Service) applyMemoryUpdate(update gateway.MemoryUpdate) {
	if update.Type != gateway.MemoryUpdateLongTerm || s.prefs == nil {
		// "buffer" updates are accepted from the model but have no effect.
		return
	}
	switch content := update.Content.(type) {
	case map[string]any:
		s.prefs.UpdateFromMap(content)
	case string:
		var values map[string]any
		if err := json.Unmarshal([]byte(content), &values); err != nil {
			return
		}
		s.prefs.UpdateFromMap(values)
	}
}

func (s *Service) archiveTurn(ctx context.Context, sessionID, role, text string) {
	if s.archive == nil {
		return
	}
	redacted, changed := policy.RedactPII(text)
	err := s.archive.SaveTurn(ctx, memory.ArchivedTurn{
		SessionID:   sessionID,
		Role:        role,
		Text:        redacted,
		PIIRedacted: changed,
	})
	if err != nil {
		log.Printf("archive %s turn failed: %v", role, err)
	}
}

// Speak synthesizes already prepared speech text.
func (s *Service) Speak(ctx context.Context, text string) (speech.Audio, error) {
	if strings.TrimSpace(text) == "" {
		return speech.Audio{}, ErrEmptyMessage
	}
	if s.synth == nil {
		return speech.Audio{}, ErrSpeechDisabled
	}
	audio, err := s.synth.Synthesize(ctx, speech.SpeechText(text))
	if err != nil && s.metrics != nil {
		s.metrics.TTSErrors.WithLabelValues(s.voiceProvider).Inc()
	}
	return audio, err
}

func (s *Service) Debug() DebugView {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefs := "{}"
	if s.prefs != nil {
		prefs = s.prefs.Summary()
	}
	return DebugView{
		Preferences: json.RawMessage(prefs),
		Buffer:      json.RawMessage(s.buffer.Summary()),
	}
}

// EndSession closes the active session and clears the buffer.
func (s *Service) EndSession() (*session.Session, error) {
	return s.sessions.End()
}

// Transcript returns the newest archived turns of the active session.
func (s *Service) Transcript(ctx context.Context, limit int) ([]memory.ArchivedTurn, error) {
	sess, err := s.sessions.Current()
	if err != nil {
		return nil, err
	}
	if s.archive == nil {
		return nil, nil
	}
	return s.archive.RecentTurns(ctx, sess.ID, limit)
}
