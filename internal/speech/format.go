package speech

import (
	"strconv"
	"strings"

	"github.com/ent0n29/hypnoguide/internal/audio"
)

// ForHTTP returns a playable body and its content type. Raw PCM is wrapped
// in a WAV container.
func (a Audio) ForHTTP() ([]byte, string, error) {
	if rate, ok := pcmSampleRate(a.Format); ok {
		wav, err := audio.EncodeWAVPCM16LE(a.Data, rate)
		if err != nil {
			return nil, "", err
		}
		return wav, "audio/wav", nil
	}
	return a.Data, contentTypeFor(a.Format), nil
}

func contentTypeFor(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	switch {
	case strings.Contains(f, "wav"):
		return "audio/wav"
	case strings.Contains(f, "mp3"):
		return "audio/mpeg"
	case strings.Contains(f, "ogg"):
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}

func pcmSampleRate(format string) (int, bool) {
	f := strings.ToLower(strings.TrimSpace(format))
	idx := strings.Index(f, "pcm_")
	if idx < 0 {
		return 0, false
	}
	digits := f[idx+len("pcm_"):]
	if end := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }); end >= 0 {
		digits = digits[:end]
	}
	rate, err := strconv.Atoi(digits)
	if err != nil || rate <= 0 {
		return 16000, true
	}
	return rate, true
}
