package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the guide service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string
	DebugMemoryEnabled       bool

	OpenRouterAPIKey string
	LLMBaseURL       string
	LLMModel         string
	LLMTransport     string
	LLMTimeout       time.Duration

	PreferencesFile string
	BufferMaxTurns  int
	BufferMaxChars  int
	PersonaFile     string

	VoiceProvider             string
	ElevenLabsAPIKey          string
	ElevenLabsWSBaseURL       string
	ElevenLabsTTSVoice        string
	ElevenLabsTTSModel        string
	ElevenLabsTTSOutputFormat string

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:                  envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:          envOrDefault("APP_METRICS_NAMESPACE", "hypnoguide"),
		OpenRouterAPIKey:          stringsTrimSpace("OPENROUTER_API_KEY"),
		LLMBaseURL:                envOrDefault("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMModel:                  envOrDefault("LLM_MODEL", "openai/gpt-3.5-turbo"),
		LLMTransport:              envOrDefault("LLM_TRANSPORT", "openai"),
		PreferencesFile:           envOrDefault("PREFERENCES_FILE", "user_preferences.json"),
		PersonaFile:               stringsTrimSpace("PERSONA_FILE"),
		VoiceProvider:             envOrDefault("VOICE_PROVIDER", "auto"),
		ElevenLabsAPIKey:          stringsTrimSpace("ELEVENLABS_API_KEY"),
		ElevenLabsWSBaseURL:       envOrDefault("ELEVENLABS_WS_BASE_URL", "wss://api.elevenlabs.io"),
		// Warm, slow female premade voice.
		ElevenLabsTTSVoice:        envOrDefault("ELEVENLABS_TTS_VOICE_ID", "cgSgspJ2msm6clMCkdW9"),
		ElevenLabsTTSModel:        envOrDefault("ELEVENLABS_TTS_MODEL_ID", "eleven_multilingual_v2"),
		// PCM is wrapped as WAV by the speech endpoint.
		ElevenLabsTTSOutputFormat: envOrDefault("ELEVENLABS_TTS_OUTPUT_FORMAT", "pcm_16000"),
		DatabaseURL:               stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:           15 * time.Second,
		SessionInactivityTimeout:  30 * time.Minute,
		LLMTimeout:                60 * time.Second,
		BufferMaxTurns:            6,
		BufferMaxChars:            1500,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.DebugMemoryEnabled, err = boolFromEnv("APP_DEBUG_MEMORY", true)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMTimeout, err = durationFromEnv("LLM_TIMEOUT", cfg.LLMTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.BufferMaxTurns, err = intFromEnv("BUFFER_MAX_TURNS", cfg.BufferMaxTurns)
	if err != nil {
		return Config{}, err
	}
	cfg.BufferMaxChars, err = intFromEnv("BUFFER_MAX_CHARS", cfg.BufferMaxChars)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.LLMTimeout <= 0 {
		return Config{}, fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if cfg.BufferMaxTurns <= 0 {
		return Config{}, fmt.Errorf("BUFFER_MAX_TURNS must be positive")
	}
	if cfg.BufferMaxChars <= 0 {
		return Config{}, fmt.Errorf("BUFFER_MAX_CHARS must be positive")
	}

	return cfg, nil
}

// RequireAPIKey reports the missing-credential precondition. The mock
// transport runs without a key.
func (c Config) RequireAPIKey() error {
	if strings.EqualFold(strings.TrimSpace(c.LLMTransport), "mock") {
		return nil
	}
	if c.OpenRouterAPIKey == "" {
		return errors.New("OPENROUTER_API_KEY not found; set it in the environment")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s parse error: %w", key, err)
	}
	return b, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
