package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/antoniostano/ami/internal/transcript"
)

// Defaults describes the well-known owner record created when none exists.
// The id is injected configuration, not a constant buried in logic.
type Defaults struct {
	OwnerID  string
	Username string
	Email    string
}

// Resolver looks up the default conversation owner, creating it on first use.
type Resolver struct {
	store    transcript.Store
	defaults Defaults

	mu sync.Mutex
}

func NewResolver(store transcript.Store, defaults Defaults) *Resolver {
	if defaults.OwnerID == "" {
		defaults.OwnerID = "default-user"
	}
	if defaults.Username == "" {
		defaults.Username = "default_user"
	}
	if defaults.Email == "" {
		defaults.Email = "default@example.com"
	}
	return &Resolver{store: store, defaults: defaults}
}

// ResolveDefaultOwner returns the default owner, creating the record if it is
// absent. Calls are serialized so repeated or concurrent resolution creates
// exactly one record. Store errors propagate; no retry happens here.
func (r *Resolver) ResolveDefaultOwner(ctx context.Context) (transcript.Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, err := r.store.FindOwner(ctx, r.defaults.OwnerID)
	if err == nil {
		return owner, nil
	}
	if !errors.Is(err, transcript.ErrOwnerNotFound) {
		return transcript.Owner{}, fmt.Errorf("lookup default owner: %w", err)
	}

	owner, err = r.store.CreateOwner(ctx, transcript.Owner{
		ID:        r.defaults.OwnerID,
		Username:  r.defaults.Username,
		Email:     r.defaults.Email,
		CreatedAt: time.Now().UTC(),
		Active:    true,
	})
	if err != nil {
		return transcript.Owner{}, fmt.Errorf("create default owner: %w", err)
	}
	return owner, nil
}
