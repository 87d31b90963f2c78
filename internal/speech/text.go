// Package speech prepares assistant replies for synthesis and turns them into audio.
package speech

import (
	"regexp"
	"strings"
	"unicode"
)

// PauseMarker is the prosody hint the model writes into replies.
const PauseMarker = "(pause)"

// PrepareForSpeech swaps every pause marker for an ellipsis, which
// synthesizers render as a short break.
func PrepareForSpeech(reply string) string {
	return strings.ReplaceAll(reply, PauseMarker, "...")
}

var (
	urlPattern          = regexp.MustCompile(`https?://\S+`)
	fencedCodePattern   = regexp.MustCompile("(?s)```.*?```")
	inlineCodePattern   = regexp.MustCompile("`[^`]*`")
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((.*?)\)`)
	markupReplacer      = strings.NewReplacer(
		"*", " ", "_", " ", "\\", " ", "/", " ", "|", " ",
		"#", " ", "~", " ", "<", " ", ">", " ",
	)
)

// Sanitize strips markdown, links and symbol noise so the text reads
// naturally aloud. Whitespace runs collapse to one space.
func Sanitize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	raw = fencedCodePattern.ReplaceAllString(raw, " ")
	raw = inlineCodePattern.ReplaceAllString(raw, " ")
	raw = markdownLinkPattern.ReplaceAllString(raw, "$1")
	raw = urlPattern.ReplaceAllString(raw, " ")
	raw = markupReplacer.Replace(raw)

	var b strings.Builder
	b.Grow(len(raw))
	prevSpace := true
	for _, r := range raw {
		switch {
		case r == '\u200d' || r == '\ufe0f' || r == '\u20e3':
			continue
		case unicode.IsSpace(r):
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsControl(r):
			continue
		case unicode.In(r, unicode.So, unicode.Sm, unicode.Sk):
			// emoji and math symbols
			continue
		case isSpokenPunctuation(r):
			b.WriteRune(r)
			prevSpace = false
		case unicode.IsPunct(r):
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		default:
			b.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}

func isSpokenPunctuation(r rune) bool {
	switch r {
	case '.', ',', '!', '?', ':', ';', '\'', '"', '-', '(', ')':
		return true
	default:
		return false
	}
}

// SpeechText is the full pipeline applied to a reply before synthesis.
func SpeechText(reply string) string {
	return Sanitize(PrepareForSpeech(reply))
}
