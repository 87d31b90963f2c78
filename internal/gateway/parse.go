package gateway

import (
	"encoding/json"
	"strings"
)

// parseAttempt tries to turn model text into a JSON value.
type parseAttempt func(content string) (any, bool)

// Attempts before the raw-text fallback, in order.
var parseChain = []parseAttempt{
	parseStrict,
	parseEmbeddedObject,
}

func parseStrict(content string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return nil, false
	}
	return v, true
}

// parseEmbeddedObject recovers JSON wrapped in prose by parsing from the first
// '{' to the last '}'.
func parseEmbeddedObject(content string) (any, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	return parseStrict(content[start : end+1])
}

// parseContent runs the chain. ok is false only when every attempt failed and
// the caller must fall back to the raw text.
func parseContent(content string) (any, bool) {
	for _, attempt := range parseChain {
		if v, ok := attempt(content); ok {
			return v, true
		}
	}
	return nil, false
}
