package transcript

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process transcript store for local/dev use.
type InMemoryStore struct {
	mu     sync.RWMutex
	owners map[string]Owner
	turns  map[string][]Turn
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		owners: make(map[string]Owner),
		turns:  make(map[string][]Turn),
	}
}

func dayKey(ownerID, date string) string {
	return ownerID + "|" + date
}

func (s *InMemoryStore) FindOwner(_ context.Context, id string) (Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.owners[id]
	if !ok {
		return Owner{}, ErrOwnerNotFound
	}
	return o, nil
}

func (s *InMemoryStore) CreateOwner(_ context.Context, owner Owner) (Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner.CreatedAt.IsZero() {
		owner.CreatedAt = time.Now().UTC()
	}
	s.owners[owner.ID] = owner
	return owner, nil
}

func (s *InMemoryStore) FindSystemTurn(_ context.Context, date string) (Turn, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, arr := range s.turns {
		for _, t := range arr {
			if t.Date == date && t.Role == RoleSystem {
				return t, true, nil
			}
		}
	}
	return Turn{}, false, nil
}

func (s *InMemoryStore) AppendTurn(_ context.Context, turn Turn) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	if turn.Date == "" {
		turn.Date = turn.Timestamp.Format(DateLayout)
	}
	key := dayKey(turn.OwnerID, turn.Date)
	s.turns[key] = append(s.turns[key], turn)
	return turn, nil
}

func (s *InMemoryStore) ListTurns(_ context.Context, ownerID, date, excludeRole string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.turns[dayKey(ownerID, date)]
	out := make([]Turn, 0, len(arr))
	for _, t := range arr {
		if excludeRole != "" && t.Role == excludeRole {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *InMemoryStore) DeleteTurns(_ context.Context, ownerID, date, excludeRole string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := dayKey(ownerID, date)
	arr := s.turns[key]
	kept := arr[:0]
	var deleted int64
	for _, t := range arr {
		if excludeRole != "" && t.Role == excludeRole {
			kept = append(kept, t)
			continue
		}
		deleted++
	}
	s.turns[key] = kept
	return deleted, nil
}

func (s *InMemoryStore) Close() error { return nil }
