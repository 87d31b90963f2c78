package memory

import (
	"context"
	"testing"
)

func TestInMemoryArchiveRecentTurns(t *testing.T) {
	a := NewInMemoryArchive()
	ctx := context.Background()
	for _, text := range []string{"one", "two", "three"} {
		if err := a.SaveTurn(ctx, ArchivedTurn{SessionID: "s1", Role: RoleUser, Text: text}); err != nil {
			t.Fatalf("SaveTurn() error = %v", err)
		}
	}
	_ = a.SaveTurn(ctx, ArchivedTurn{SessionID: "s2", Role: RoleUser, Text: "other"})

	got, err := a.RecentTurns(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("RecentTurns() error = %v", err)
	}
	if len(got) != 2 || got[0].Text != "two" || got[1].Text != "three" {
		t.Fatalf("RecentTurns() = %+v", got)
	}
	if got[0].ID == "" || got[0].CreatedAt.IsZero() {
		t.Fatalf("turn not stamped: %+v", got[0])
	}
}

func TestNewArchiveDefaultsToInMemory(t *testing.T) {
	a, err := NewArchive(context.Background(), "  ")
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}
	defer a.Close()
	if _, ok := a.(*InMemoryArchive); !ok {
		t.Fatalf("NewArchive() = %T, want *InMemoryArchive", a)
	}
}
