package memory

import (
	"encoding/json"
	"unicode/utf8"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	DefaultMaxTurns = 6
	DefaultMaxChars = 1500
)

// Turn is one utterance kept in the rolling conversation window.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ConversationBuffer keeps the most recent turns of a session, bounded by turn
// count and by total text length. Oldest turns are evicted first.
type ConversationBuffer struct {
	maxTurns int
	maxChars int
	turns    []Turn
}

func NewConversationBuffer(maxTurns, maxChars int) *ConversationBuffer {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &ConversationBuffer{maxTurns: maxTurns, maxChars: maxChars}
}

// AddTurn appends a turn and immediately re-applies both limits. Role is not
// validated here.
func (b *ConversationBuffer) AddTurn(role, text string) {
	b.turns = append(b.turns, Turn{Role: role, Text: text})
	b.trim()
}

func (b *ConversationBuffer) trim() {
	if len(b.turns) > b.maxTurns {
		b.turns = append([]Turn(nil), b.turns[len(b.turns)-b.maxTurns:]...)
	}
	// A single turn longer than the budget stays; text is never cut.
	for len(b.turns) > 1 && b.TotalChars() > b.maxChars {
		b.turns = b.turns[1:]
	}
}

// TotalChars counts characters (runes) across all buffered turns.
func (b *ConversationBuffer) TotalChars() int {
	n := 0
	for _, t := range b.turns {
		n += utf8.RuneCountInString(t.Text)
	}
	return n
}

func (b *ConversationBuffer) Len() int { return len(b.turns) }

func (b *ConversationBuffer) Turns() []Turn {
	out := make([]Turn, len(b.turns))
	copy(out, b.turns)
	return out
}

func (b *ConversationBuffer) Reset() { b.turns = nil }

// Summary serializes the buffer as a compact JSON array for prompt embedding.
func (b *ConversationBuffer) Summary() string {
	turns := b.turns
	if turns == nil {
		turns = []Turn{}
	}
	data, err := json.Marshal(turns)
	if err != nil {
		return "[]"
	}
	return string(data)
}
