package speech

import (
	"strings"
	"testing"
)

func TestPrepareForSpeech(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello (pause) world.", "Hello ... world."},
		{"No markers here.", "No markers here."},
		{"", ""},
		{"(pause)(pause)", "......"},
		{"(pause) start and end (pause)", "... start and end ..."},
		{"Breathe (pause) in (pause) and out.", "Breathe ... in ... and out."},
	}
	for _, tc := range cases {
		if got := PrepareForSpeech(tc.in); got != tc.want {
			t.Fatalf("PrepareForSpeech(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeRemovesMarkupAndSymbols(t *testing.T) {
	in := "**Relax** now 🌀 see [the guide](https://example.com) and `code` at https://x.test/a"
	got := Sanitize(in)
	for _, bad := range []string{"*", "🌀", "https", "`", "["} {
		if strings.Contains(got, bad) {
			t.Fatalf("Sanitize() = %q still contains %q", got, bad)
		}
	}
	if !strings.Contains(got, "Relax now") || !strings.Contains(got, "the guide") {
		t.Fatalf("Sanitize() = %q dropped spoken words", got)
	}
}

func TestSpeechTextKeepsEllipsis(t *testing.T) {
	got := SpeechText("Let your shoulders soften (pause)\n\n   and settle.")
	if got != "Let your shoulders soften ... and settle." {
		t.Fatalf("SpeechText() = %q", got)
	}
}
