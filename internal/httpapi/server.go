package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ent0n29/hypnoguide/internal/chat"
	"github.com/ent0n29/hypnoguide/internal/memory"
	"github.com/ent0n29/hypnoguide/internal/observability"
	"github.com/ent0n29/hypnoguide/internal/session"
	"github.com/ent0n29/hypnoguide/internal/speech"
)

type ChatService interface {
	HandleMessage(ctx context.Context, text string) (chat.Result, error)
	Speak(ctx context.Context, text string) (speech.Audio, error)
	Debug() chat.DebugView
	EndSession() (*session.Session, error)
	Transcript(ctx context.Context, limit int) ([]memory.ArchivedTurn, error)
}

// VoiceInfo describes the active speech backend.
type VoiceInfo struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voice_id,omitempty"`
	ModelID  string `json:"model_id,omitempty"`
	Format   string `json:"output_format,omitempty"`
}

type Options struct {
	// DebugMemory exposes GET /v1/debug/memory.
	DebugMemory bool
	Voice       VoiceInfo
	Model       string
	Persona     string
}

type Server struct {
	chat    ChatService
	metrics *observability.Metrics
	opts    Options
}

func New(chatService ChatService, metrics *observability.Metrics, opts Options) *Server {
	return &Server{chat: chatService, metrics: metrics, opts: opts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Post("/v1/chat", s.handleChat)
	r.Post("/v1/speech", s.handleSpeech)
	r.Get("/v1/voice", s.handleVoice)
	r.Post("/v1/session/end", s.handleEndSession)
	r.Get("/v1/session/transcript", s.handleTranscript)
	if s.opts.DebugMemory {
		r.Get("/v1/debug/memory", s.handleDebugMemory)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ready",
		"model":          s.opts.Model,
		"persona":        s.opts.Persona,
		"voice_provider": s.opts.Voice.Provider,
	})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	res, err := s.chat.HandleMessage(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			respondError(w, http.StatusBadRequest, "empty_message", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "chat_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type speechRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	audio, err := s.chat.Speak(r.Context(), req.Text)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		respondError(w, http.StatusBadRequest, "empty_text", err.Error())
		return
	case errors.Is(err, chat.ErrSpeechDisabled):
		respondError(w, http.StatusServiceUnavailable, "speech_disabled", err.Error())
		return
	case err != nil:
		respondError(w, http.StatusBadGateway, "tts_failed", err.Error())
		return
	}

	body, contentType, err := audio.ForHTTP()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "audio_encode_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleVoice(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.opts.Voice)
}

func (s *Server) handleEndSession(w http.ResponseWriter, _ *http.Request) {
	sess, err := s.chat.EndSession()
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "session_end_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}
	turns, err := s.chat.Transcript(r.Context(), limit)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "transcript_failed", err.Error())
		return
	}
	if turns == nil {
		turns = []memory.ArchivedTurn{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

func (s *Server) handleDebugMemory(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.chat.Debug())
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
