// Package session tracks the lifetime of the single active conversation.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

var ErrNotFound = errors.New("no active session")

type Session struct {
	ID             string    `json:"session_id"`
	Status         Status    `json:"status"`
	TurnCount      int       `json:"turn_count"`
	StartedAt      time.Time `json:"started_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// Tracker owns the current session. A session starts on first use and ends
// explicitly or after a period of inactivity.
type Tracker struct {
	mu                sync.Mutex
	current           *Session
	inactivityTimeout time.Duration
	onEnd             func(*Session)
	now               func() time.Time
}

func NewTracker(inactivityTimeout time.Duration) *Tracker {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	return &Tracker{
		inactivityTimeout: inactivityTimeout,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// SetEndHook registers a callback run after a session ends, outside the lock.
func (t *Tracker) SetEndHook(hook func(*Session)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEnd = hook
}

// Touch returns the active session, starting a new one if none is active,
// and records activity on it. started reports whether a session was created.
func (t *Tracker) Touch() (s *Session, started bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if t.current == nil || t.current.Status != StatusActive {
		t.current = &Session{
			ID:             uuid.NewString(),
			Status:         StatusActive,
			StartedAt:      now,
			LastActivityAt: now,
		}
		started = true
	}
	t.current.TurnCount++
	t.current.LastActivityAt = now
	return clone(t.current), started
}

func (t *Tracker) Current() (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil || t.current.Status != StatusActive {
		return nil, ErrNotFound
	}
	return clone(t.current), nil
}

// End closes the active session.
func (t *Tracker) End() (*Session, error) {
	t.mu.Lock()
	if t.current == nil || t.current.Status != StatusActive {
		t.mu.Unlock()
		return nil, ErrNotFound
	}
	ended := t.endLocked()
	hook := t.onEnd
	t.mu.Unlock()

	if hook != nil {
		hook(ended)
	}
	return ended, nil
}

func (t *Tracker) endLocked() *Session {
	t.current.Status = StatusEnded
	t.current.LastActivityAt = t.now()
	return clone(t.current)
}

func (t *Tracker) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.expireInactive()
			}
		}
	}()
}

func (t *Tracker) expireInactive() {
	t.mu.Lock()
	if t.current == nil || t.current.Status != StatusActive ||
		t.now().Sub(t.current.LastActivityAt) < t.inactivityTimeout {
		t.mu.Unlock()
		return
	}
	expired := t.endLocked()
	hook := t.onEnd
	t.mu.Unlock()

	if hook != nil {
		hook(expired)
	}
}

func clone(s *Session) *Session {
	c := *s
	return &c
}
