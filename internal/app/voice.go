package app

import (
	"fmt"
	"log"

	"github.com/ent0n29/hypnoguide/internal/config"
	"github.com/ent0n29/hypnoguide/internal/httpapi"
	"github.com/ent0n29/hypnoguide/internal/speech"
)

type voiceSetup struct {
	synthesizer speech.Synthesizer
	info        httpapi.VoiceInfo
}

func resolveVoice(cfg config.Config) (voiceSetup, error) {
	synth, provider, err := speech.NewSynthesizer(speech.Config{
		Provider:     cfg.VoiceProvider,
		APIKey:       cfg.ElevenLabsAPIKey,
		WSBaseURL:    cfg.ElevenLabsWSBaseURL,
		VoiceID:      cfg.ElevenLabsTTSVoice,
		ModelID:      cfg.ElevenLabsTTSModel,
		OutputFormat: cfg.ElevenLabsTTSOutputFormat,
	})
	if err != nil {
		return voiceSetup{}, fmt.Errorf("voice provider init failed: %w", err)
	}

	info := httpapi.VoiceInfo{Provider: provider}
	switch provider {
	case "elevenlabs":
		info.VoiceID = cfg.ElevenLabsTTSVoice
		info.ModelID = cfg.ElevenLabsTTSModel
		info.Format = cfg.ElevenLabsTTSOutputFormat
		log.Printf("voice provider: elevenlabs (voice=%s model=%s)", info.VoiceID, info.ModelID)
	case "none":
		log.Printf("voice provider: disabled")
	default:
		log.Printf("voice provider: %s", provider)
	}
	return voiceSetup{synthesizer: synth, info: info}, nil
}
