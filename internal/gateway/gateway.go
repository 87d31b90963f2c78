// Package gateway sends the composed prompt to a chat-completion endpoint and
// turns whatever comes back into a well-formed Reply.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ent0n29/hypnoguide/internal/prompt"
	"github.com/ent0n29/hypnoguide/internal/reliability"
)

const (
	MemoryUpdateNone     = "none"
	MemoryUpdateBuffer   = "buffer"
	MemoryUpdateLongTerm = "longterm"
)

// MemoryUpdate is the model's request to change stored context. Content is a
// string or a JSON object.
type MemoryUpdate struct {
	Type    string `json:"type"`
	Content any    `json:"content"`
}

// Reply is the structured model answer.
type Reply struct {
	Reply        string       `json:"reply"`
	Actions      []any        `json:"actions"`
	MemoryUpdate MemoryUpdate `json:"memory_update"`
}

// Outcome names the branch a Respond call ended in.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeEmptyContent   Outcome = "empty_content"
	OutcomeParseFallback  Outcome = "parse_fallback"
	OutcomeMalformed      Outcome = "malformed"
)

const emptyContentReply = "Error: Empty response from model."

// Summarizer serializes a context store for the prompt.
type Summarizer interface {
	Summary() string
}

// Options configures a Gateway.
type Options struct {
	Model   string
	Persona prompt.Persona
}

type Gateway struct {
	transport Transport
	model     string
	persona   prompt.Persona
}

func New(transport Transport, opts Options) *Gateway {
	persona := opts.Persona
	if persona.Instructions == "" || persona.Directive == "" {
		def := prompt.DefaultPersona()
		if persona.Instructions == "" {
			persona.Instructions = def.Instructions
		}
		if persona.Directive == "" {
			persona.Directive = def.Directive
		}
	}
	return &Gateway{transport: transport, model: opts.Model, persona: persona}
}

// Respond performs exactly one completion request. It never returns an error:
// every failure is folded into the Reply text and reported through Outcome.
func (g *Gateway) Respond(ctx context.Context, userMessage string, buffer, prefs Summarizer) (Reply, Outcome) {
	text := prompt.Compose(prompt.Input{
		SystemInstructions: g.persona.Instructions,
		ProfileSummary:     prefs.Summary(),
		BufferSummary:      buffer.Summary(),
		UserMessage:        userMessage,
	})

	completion, err := g.transport.Complete(ctx, Request{
		Model:       g.model,
		Directive:   g.persona.Directive,
		Prompt:      text,
		UserMessage: userMessage,
	})
	if err != nil {
		log.Printf("llm request failed (%s): %v", reliability.Label(err), err)
		return fallbackReply(fmt.Sprintf("Error communicating with AI (request failed): %v", err)), OutcomeTransportError
	}

	return interpret(completion)
}

func interpret(completion Completion) (Reply, Outcome) {
	content := extractContent(completion)
	if content == nil {
		return fallbackReply(emptyContentReply), OutcomeEmptyContent
	}

	var parsed any
	switch v := content.(type) {
	case map[string]any:
		parsed = v
	case string:
		var ok bool
		parsed, ok = parseContent(v)
		if !ok {
			return fallbackReply(v), OutcomeParseFallback
		}
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return fallbackReply(dumpJSON(parsed)), OutcomeMalformed
	}
	if _, ok := obj["reply"]; !ok {
		return fallbackReply(dumpJSON(obj)), OutcomeMalformed
	}
	return replyFromObject(obj), OutcomeSuccess
}

func replyFromObject(obj map[string]any) Reply {
	r := fallbackReply("")
	switch v := obj["reply"].(type) {
	case string:
		r.Reply = v
	default:
		r.Reply = dumpJSON(v)
	}
	if actions, ok := obj["actions"].([]any); ok {
		r.Actions = actions
	}
	if mu, ok := obj["memory_update"].(map[string]any); ok {
		if t, ok := mu["type"].(string); ok && t != "" {
			r.MemoryUpdate.Type = t
		}
		if c, ok := mu["content"]; ok && c != nil {
			r.MemoryUpdate.Content = c
		}
	}
	return r
}

func fallbackReply(text string) Reply {
	return Reply{
		Reply:        text,
		Actions:      []any{},
		MemoryUpdate: MemoryUpdate{Type: MemoryUpdateNone, Content: ""},
	}
}

func dumpJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
