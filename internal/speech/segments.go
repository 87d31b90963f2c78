package speech

import "strings"

// Segment sizing for streamed synthesis. The first segment is kept short so
// audio starts early.
const (
	firstSegmentMin = 24
	nextSegmentMin  = 42
	segmentCutSlack = 44
)

// splitSegments cuts text into speakable segments, preferring commas, then
// sentence punctuation, then whitespace.
func splitSegments(text string) []string {
	var out []string
	rest := text
	for strings.TrimSpace(rest) != "" {
		minChars := nextSegmentMin
		if len(out) == 0 {
			minChars = firstSegmentMin
		}
		cut := segmentCut(rest, minChars)
		seg := strings.Join(strings.Fields(rest[:cut]), " ")
		rest = rest[cut:]
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// segmentCut returns the byte offset ending the next segment of input.
func segmentCut(input string, minChars int) int {
	if len(input) <= minChars {
		return len(input)
	}
	if idx := indexFrom(input, minChars-1, ","); idx >= 0 {
		return idx + 1
	}
	if idx := indexFrom(input, minChars-1, ".!?;:\n"); idx >= 0 {
		return idx + 1
	}
	limit := minChars + segmentCutSlack
	if limit > len(input) {
		limit = len(input)
	}
	for i := minChars; i < limit; i++ {
		switch input[i] {
		case ' ', '\t', '\n', '\r':
			return i
		}
	}
	if limit == len(input) {
		return len(input)
	}
	return safeCut(input, minChars)
}

func indexFrom(input string, start int, chars string) int {
	if start < 0 {
		start = 0
	}
	if idx := strings.IndexAny(input[start:], chars); idx >= 0 {
		return start + idx
	}
	return -1
}

// safeCut backs off to a rune boundary so multi-byte characters stay whole.
func safeCut(input string, at int) int {
	for at > 0 && at < len(input) && input[at]&0xC0 == 0x80 {
		at--
	}
	if at == 0 {
		return len(input)
	}
	return at
}
