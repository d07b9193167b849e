package transcript

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryOwnerLifecycle(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if _, err := s.FindOwner(ctx, "missing"); err != ErrOwnerNotFound {
		t.Fatalf("FindOwner() error = %v, want ErrOwnerNotFound", err)
	}

	created, err := s.CreateOwner(ctx, Owner{ID: "u1", Username: "default_user", Active: true})
	if err != nil {
		t.Fatalf("CreateOwner() error = %v", err)
	}
	if created.CreatedAt.IsZero() {
		t.Fatalf("CreateOwner() should fill CreatedAt")
	}

	got, err := s.FindOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("FindOwner() error = %v", err)
	}
	if got.Username != "default_user" || !got.Active {
		t.Fatalf("unexpected owner: %+v", got)
	}
}

func TestInMemoryListOrdersByTimestamp(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	day := "2026-08-28"
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	// Append out of chronological order on purpose.
	for i, offset := range []time.Duration{2 * time.Second, 0, time.Second} {
		_, err := s.AppendTurn(ctx, Turn{
			OwnerID:   "u1",
			Date:      day,
			Timestamp: base.Add(offset),
			Role:      RoleUser,
			Content:   string(rune('a' + i)),
		})
		if err != nil {
			t.Fatalf("AppendTurn() error = %v", err)
		}
	}

	turns, err := s.ListTurns(ctx, "u1", day, "")
	if err != nil {
		t.Fatalf("ListTurns() error = %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("len(turns) = %d, want 3", len(turns))
	}
	for i := 1; i < len(turns); i++ {
		if turns[i].Timestamp.Before(turns[i-1].Timestamp) {
			t.Fatalf("turns not ascending at index %d: %+v", i, turns)
		}
	}
}

func TestInMemoryExcludeRoleAndDelete(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	day := Today()

	for _, turn := range []Turn{
		{OwnerID: "u1", Date: day, Role: RoleSystem, Content: "preamble"},
		{OwnerID: "u1", Date: day, Role: RoleUser, Content: "Bonjour"},
		{OwnerID: "u1", Date: day, Role: RoleAssistant, Content: "Salut"},
	} {
		if _, err := s.AppendTurn(ctx, turn); err != nil {
			t.Fatalf("AppendTurn() error = %v", err)
		}
	}

	turns, err := s.ListTurns(ctx, "u1", day, RoleSystem)
	if err != nil {
		t.Fatalf("ListTurns() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2 (system excluded)", len(turns))
	}

	sys, found, err := s.FindSystemTurn(ctx, day)
	if err != nil || !found {
		t.Fatalf("FindSystemTurn() = (%+v, %v, %v), want found", sys, found, err)
	}

	deleted, err := s.DeleteTurns(ctx, "u1", day, RoleSystem)
	if err != nil {
		t.Fatalf("DeleteTurns() error = %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}

	remaining, err := s.ListTurns(ctx, "u1", day, "")
	if err != nil {
		t.Fatalf("ListTurns() error = %v", err)
	}
	if len(remaining) != 1 || remaining[0].Role != RoleSystem {
		t.Fatalf("remaining = %+v, want only the system turn", remaining)
	}
}

func TestInMemoryDeleteScopesToDay(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if _, err := s.AppendTurn(ctx, Turn{OwnerID: "u1", Date: "2026-08-27", Role: RoleUser, Content: "hier"}); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	if _, err := s.AppendTurn(ctx, Turn{OwnerID: "u1", Date: "2026-08-28", Role: RoleUser, Content: "aujourd'hui"}); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}

	deleted, err := s.DeleteTurns(ctx, "u1", "2026-08-28", RoleSystem)
	if err != nil {
		t.Fatalf("DeleteTurns() error = %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}

	yesterday, err := s.ListTurns(ctx, "u1", "2026-08-27", "")
	if err != nil {
		t.Fatalf("ListTurns() error = %v", err)
	}
	if len(yesterday) != 1 {
		t.Fatalf("yesterday's transcript should be untouched, got %+v", yesterday)
	}
}
