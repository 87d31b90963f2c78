package chat

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ent0n29/hypnoguide/internal/gateway"
	"github.com/ent0n29/hypnoguide/internal/memory"
	"github.com/ent0n29/hypnoguide/internal/observability"
	"github.com/ent0n29/hypnoguide/internal/session"
	"github.com/ent0n29/hypnoguide/internal/speech"
)

type scriptedResponder struct {
	replies  []gateway.Reply
	calls    int
	prompts  []string
	buffered []int
}

func (r *scriptedResponder) Respond(_ context.Context, userMessage string, buffer, _ gateway.Summarizer) (gateway.Reply, gateway.Outcome) {
	r.prompts = append(r.prompts, userMessage)
	var turns []memory.Turn
	_ = json.Unmarshal([]byte(buffer.Summary()), &turns)
	r.buffered = append(r.buffered, len(turns))
	reply := r.replies[r.calls%len(r.replies)]
	r.calls++
	return reply, gateway.OutcomeSuccess
}

func plainReply(text string) gateway.Reply {
	return gateway.Reply{
		Reply:        text,
		Actions:      []any{},
		MemoryUpdate: gateway.MemoryUpdate{Type: gateway.MemoryUpdateNone, Content: ""},
	}
}

func newTestService(t *testing.T, responder Responder) (*Service, *memory.PreferenceStore, *memory.InMemoryArchive) {
	t.Helper()
	prefs := memory.OpenPreferenceStore(filepath.Join(t.TempDir(), "prefs.json"))
	archive := memory.NewInMemoryArchive()
	svc := NewService(Deps{
		Buffer:        memory.NewConversationBuffer(memory.DefaultMaxTurns, memory.DefaultMaxChars),
		Preferences:   prefs,
		Responder:     responder,
		Sessions:      session.NewTracker(0),
		Archive:       archive,
		Metrics:       observability.NewMetrics("test"),
		Synthesizer:   speech.NewMockSynthesizer(),
		VoiceProvider: "mock",
	})
	return svc, prefs, archive
}

func TestHandleMessageRejectsBlankInput(t *testing.T) {
	svc, _, _ := newTestService(t, &scriptedResponder{replies: []gateway.Reply{plainReply("hi")}})
	for _, in := range []string{"", "   ", "\n\t"} {
		if _, err := svc.HandleMessage(context.Background(), in); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("HandleMessage(%q) error = %v, want ErrEmptyMessage", in, err)
		}
	}
}

func TestHandleMessageRecordsBothTurns(t *testing.T) {
	responder := &scriptedResponder{replies: []gateway.Reply{plainReply("Breathe in (pause) and out")}}
	svc, _, _ := newTestService(t, responder)

	res, err := svc.HandleMessage(context.Background(), "hello")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if res.Reply != "Breathe in (pause) and out" {
		t.Fatalf("Reply = %q", res.Reply)
	}
	if res.SpeechText != "Breathe in ... and out" {
		t.Fatalf("SpeechText = %q", res.SpeechText)
	}
	if res.SessionID == "" {
		t.Fatalf("expected a session id")
	}
	// The user turn is buffered before the model is called.
	if responder.buffered[0] != 1 {
		t.Fatalf("buffer held %d turns during call, want 1", responder.buffered[0])
	}

	var turns []memory.Turn
	if err := json.Unmarshal(svc.Debug().Buffer, &turns); err != nil {
		t.Fatalf("decode buffer: %v", err)
	}
	if len(turns) != 2 || turns[0].Role != memory.RoleUser || turns[1].Role != memory.RoleAssistant {
		t.Fatalf("unexpected turns: %+v", turns)
	}
	if turns[1].Text != "Breathe in (pause) and out" {
		t.Fatalf("assistant turn should keep the pause marker, got %q", turns[1].Text)
	}
}

func TestHandleMessageAppliesLongTermUpdates(t *testing.T) {
	tests := []struct {
		name    string
		content any
		want    map[string]any
	}{
		{
			name:    "object content",
			content: map[string]any{"skill_level": "beginner", "medical_history": "x"},
			want:    map[string]any{"skill_level": "beginner"},
		},
		{
			name:    "json string content",
			content: `{"preferred_language":"it"}`,
			want:    map[string]any{"preferred_language": "it"},
		},
		{
			name:    "undecodable string content",
			content: "prefers italian",
			want:    map[string]any{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reply := plainReply("noted")
			reply.MemoryUpdate = gateway.MemoryUpdate{Type: gateway.MemoryUpdateLongTerm, Content: tc.content}
			svc, prefs, _ := newTestService(t, &scriptedResponder{replies: []gateway.Reply{reply}})

			if _, err := svc.HandleMessage(context.Background(), "remember this"); err != nil {
				t.Fatalf("HandleMessage() error = %v", err)
			}
			got := prefs.Snapshot()
			if len(got) != len(tc.want) {
				t.Fatalf("preferences = %v, want %v", got, tc.want)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Fatalf("preferences[%s] = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestHandleMessageIgnoresBufferUpdates(t *testing.T) {
	reply := plainReply("ok")
	reply.MemoryUpdate = gateway.MemoryUpdate{Type: gateway.MemoryUpdateBuffer, Content: map[string]any{"skill_level": "expert"}}
	svc, prefs, _ := newTestService(t, &scriptedResponder{replies: []gateway.Reply{reply}})

	if _, err := svc.HandleMessage(context.Background(), "hi"); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if got := prefs.Snapshot(); len(got) != 0 {
		t.Fatalf("buffer update should not touch preferences, got %v", got)
	}
}

func TestHandleMessageReplacesEmptyReply(t *testing.T) {
	svc, _, _ := newTestService(t, &scriptedResponder{replies: []gateway.Reply{plainReply("")}})

	res, err := svc.HandleMessage(context.Background(), "hi")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if res.Reply != emptyReplyFallback {
		t.Fatalf("Reply = %q, want fallback", res.Reply)
	}
}

func TestHandleMessageArchivesRedactedTurns(t *testing.T) {
	svc, _, archive := newTestService(t, &scriptedResponder{replies: []gateway.Reply{plainReply("thanks")}})

	res, err := svc.HandleMessage(context.Background(), "mail me at ada@example.com")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	turns, err := archive.RecentTurns(context.Background(), res.SessionID, 0)
	if err != nil {
		t.Fatalf("RecentTurns() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("archived %d turns, want 2", len(turns))
	}
	if strings.Contains(turns[0].Text, "ada@example.com") || !turns[0].PIIRedacted {
		t.Fatalf("user turn not redacted: %+v", turns[0])
	}
	if turns[1].PIIRedacted {
		t.Fatalf("assistant turn should not be flagged: %+v", turns[1])
	}
}

func TestEndSessionResetsBuffer(t *testing.T) {
	svc, _, _ := newTestService(t, &scriptedResponder{replies: []gateway.Reply{plainReply("ok")}})

	first, err := svc.HandleMessage(context.Background(), "hi")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if _, err := svc.EndSession(); err != nil {
		t.Fatalf("EndSession() error = %v", err)
	}
	if got := string(svc.Debug().Buffer); got != "[]" {
		t.Fatalf("buffer after end = %s, want []", got)
	}
	if _, err := svc.EndSession(); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("second EndSession() error = %v, want ErrNotFound", err)
	}

	second, err := svc.HandleMessage(context.Background(), "back again")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if second.SessionID == first.SessionID {
		t.Fatalf("expected a new session after end")
	}
}

func TestLateEndHookKeepsNewSessionTurns(t *testing.T) {
	svc, _, _ := newTestService(t, &scriptedResponder{replies: []gateway.Reply{plainReply("ok")}})

	first, err := svc.HandleMessage(context.Background(), "one")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	// End the session without running the hook yet.
	svc.sessions.SetEndHook(nil)
	ended, err := svc.sessions.End()
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	svc.sessions.SetEndHook(svc.onSessionEnd)

	second, err := svc.HandleMessage(context.Background(), "two")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if second.SessionID == first.SessionID {
		t.Fatalf("expected a new session")
	}
	svc.onSessionEnd(ended)

	var turns []memory.Turn
	if err := json.Unmarshal(svc.Debug().Buffer, &turns); err != nil {
		t.Fatalf("decode buffer: %v", err)
	}
	if len(turns) != 2 || turns[0].Text != "two" {
		t.Fatalf("buffer = %+v, want only the new session's turns", turns)
	}
}

func TestSpeak(t *testing.T) {
	svc, _, _ := newTestService(t, &scriptedResponder{replies: []gateway.Reply{plainReply("ok")}})

	audio, err := svc.Speak(context.Background(), "float (pause) softly")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if len(audio.Data) == 0 {
		t.Fatalf("expected audio bytes")
	}
	if _, err := svc.Speak(context.Background(), " "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("Speak(blank) error = %v", err)
	}

	silent := NewService(Deps{Responder: &scriptedResponder{replies: []gateway.Reply{plainReply("ok")}}})
	if _, err := silent.Speak(context.Background(), "hello"); !errors.Is(err, ErrSpeechDisabled) {
		t.Fatalf("Speak() without synthesizer error = %v", err)
	}
}

func TestDebugWithoutPreferences(t *testing.T) {
	svc := NewService(Deps{Responder: &scriptedResponder{replies: []gateway.Reply{plainReply("ok")}}})
	view := svc.Debug()
	if string(view.Preferences) != "{}" || string(view.Buffer) != "[]" {
		t.Fatalf("Debug() = %s %s", view.Preferences, view.Buffer)
	}
}
