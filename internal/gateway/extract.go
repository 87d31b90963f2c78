package gateway

import (
	"encoding/json"
	"strings"
)

// contentExtractor pulls model output from one known completion shape. It
// returns nil when the shape is absent or empty.
type contentExtractor struct {
	name    string
	extract func(choice map[string]any) any
}

// Tried in order; the first non-empty result wins.
var contentExtractors = []contentExtractor{
	{name: "message_content", extract: messageContent},
	{name: "legacy_text", extract: legacyText},
	{name: "message_object", extract: messageObject},
}

func extractContent(c Completion) any {
	choice := firstChoice(c)
	if choice == nil {
		return nil
	}
	for _, e := range contentExtractors {
		if v := e.extract(choice); v != nil {
			return v
		}
	}
	return nil
}

func firstChoice(c Completion) map[string]any {
	choices, ok := c["choices"].([]any)
	if !ok || len(choices) == 0 {
		return nil
	}
	choice, _ := choices[0].(map[string]any)
	return choice
}

func messageContent(choice map[string]any) any {
	msg, ok := choice["message"].(map[string]any)
	if !ok {
		return nil
	}
	switch v := msg["content"].(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return v
	case map[string]any:
		if len(v) == 0 {
			return nil
		}
		return v
	default:
		return nil
	}
}

func legacyText(choice map[string]any) any {
	text, ok := choice["text"].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return nil
	}
	return text
}

// messageObject serializes a message that carries something other than its
// role and (empty) content, e.g. a refusal or tool calls.
func messageObject(choice map[string]any) any {
	msg, ok := choice["message"].(map[string]any)
	if !ok {
		return nil
	}
	meaningful := false
	for k, v := range msg {
		if k == "role" || k == "content" || v == nil {
			continue
		}
		meaningful = true
		break
	}
	if !meaningful {
		return nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	return string(data)
}
