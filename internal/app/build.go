package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ent0n29/hypnoguide/internal/chat"
	"github.com/ent0n29/hypnoguide/internal/config"
	"github.com/ent0n29/hypnoguide/internal/gateway"
	"github.com/ent0n29/hypnoguide/internal/httpapi"
	"github.com/ent0n29/hypnoguide/internal/memory"
	"github.com/ent0n29/hypnoguide/internal/observability"
	"github.com/ent0n29/hypnoguide/internal/prompt"
	"github.com/ent0n29/hypnoguide/internal/session"
)

type BuildResult struct {
	Config   config.Config
	API      *httpapi.Server
	Chat     *chat.Service
	Sessions *session.Tracker
	Metrics  *observability.Metrics
	Voice    httpapi.VoiceInfo

	// Cleanup releases the archive connection pool.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	persona, err := prompt.LoadPersona(cfg.PersonaFile)
	if err != nil {
		return nil, fmt.Errorf("persona load failed: %w", err)
	}
	log.Printf("persona: %s", persona.Name)

	transport, err := gateway.NewTransport(gateway.TransportConfig{
		Mode:    cfg.LLMTransport,
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("llm transport init failed: %w", err)
	}
	gw := gateway.New(transport, gateway.Options{Model: cfg.LLMModel, Persona: persona})

	voice, err := resolveVoice(cfg)
	if err != nil {
		return nil, err
	}

	archive, err := memory.NewArchive(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("transcript archive init failed: %w", err)
	}

	prefs := memory.OpenPreferenceStore(cfg.PreferencesFile)
	prefs.SetObserver(func(key string, accepted bool) {
		metrics.ObservePreferenceUpdate(accepted)
		if !accepted {
			log.Printf("preference key %q rejected", key)
		}
	})

	sessions := session.NewTracker(cfg.SessionInactivityTimeout)

	chatService := chat.NewService(chat.Deps{
		Buffer:        memory.NewConversationBuffer(cfg.BufferMaxTurns, cfg.BufferMaxChars),
		Preferences:   prefs,
		Responder:     gw,
		Sessions:      sessions,
		Archive:       archive,
		Metrics:       metrics,
		Synthesizer:   voice.synthesizer,
		VoiceProvider: voice.info.Provider,
	})

	api := httpapi.New(chatService, metrics, httpapi.Options{
		DebugMemory: cfg.DebugMemoryEnabled,
		Voice:       voice.info,
		Model:       cfg.LLMModel,
		Persona:     persona.Name,
	})

	return &BuildResult{
		Config:   cfg,
		API:      api,
		Chat:     chatService,
		Sessions: sessions,
		Metrics:  metrics,
		Voice:    voice.info,
		Cleanup:  archive.Close,
	}, nil
}

// StartBackground runs the session janitor until ctx is done.
func (b *BuildResult) StartBackground(ctx context.Context) {
	interval := b.Config.SessionInactivityTimeout / 6
	if interval > 30*time.Second {
		interval = 30 * time.Second
	}
	b.Sessions.StartJanitor(ctx, interval)
}
