package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ArchivedTurn is one turn written to the transcript archive.
type ArchivedTurn struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Role        string    `json:"role"`
	Text        string    `json:"text"`
	PIIRedacted bool      `json:"pii_redacted"`
	CreatedAt   time.Time `json:"created_at"`
}

// Archive is an append-only transcript log. It is never read back into the
// conversation buffer.
type Archive interface {
	SaveTurn(ctx context.Context, turn ArchivedTurn) error
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]ArchivedTurn, error)
	Close() error
}

// NewArchive returns a postgres-backed archive when databaseURL is set,
// otherwise an in-process one.
func NewArchive(ctx context.Context, databaseURL string) (Archive, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryArchive(), nil
	}
	return NewPostgresArchive(ctx, databaseURL)
}

func stampTurn(turn *ArchivedTurn) {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
}

type InMemoryArchive struct {
	mu    sync.RWMutex
	turns map[string][]ArchivedTurn
}

func NewInMemoryArchive() *InMemoryArchive {
	return &InMemoryArchive{turns: make(map[string][]ArchivedTurn)}
}

func (a *InMemoryArchive) SaveTurn(_ context.Context, turn ArchivedTurn) error {
	stampTurn(&turn)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.turns[turn.SessionID] = append(a.turns[turn.SessionID], turn)
	return nil
}

func (a *InMemoryArchive) RecentTurns(_ context.Context, sessionID string, limit int) ([]ArchivedTurn, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	arr := a.turns[sessionID]
	if len(arr) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(arr) {
		limit = len(arr)
	}
	out := make([]ArchivedTurn, limit)
	copy(out, arr[len(arr)-limit:])
	return out, nil
}

func (a *InMemoryArchive) Close() error { return nil }
