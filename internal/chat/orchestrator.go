package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/ami/internal/brain"
	"github.com/antoniostano/ami/internal/identity"
	"github.com/antoniostano/ami/internal/observability"
	"github.com/antoniostano/ami/internal/transcript"
)

// ErrNoAdapter is returned when a turn is requested before an inference
// adapter has been attached. That is a wiring bug, never silently ignored.
var ErrNoAdapter = errors.New("inference adapter is not attached")

const defaultStoreTimeout = 5 * time.Second

// HistoryEntry is one element of a history read.
type HistoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Orchestrator coordinates one chat turn end to end: resolve the default
// owner, persist the user turn, drive inference over the full context, forward
// each fragment while accumulating it, then persist the assistant turn.
//
// A single turn mutex serializes StreamTurn and ResetHistory against the
// shared conversation context; history reads run concurrently.
type Orchestrator struct {
	store        transcript.Store
	resolver     *identity.Resolver
	adapter      brain.Adapter
	convo        *Context
	metrics      *observability.Metrics
	storeTimeout time.Duration

	turnMu sync.Mutex
}

func NewOrchestrator(
	store transcript.Store,
	resolver *identity.Resolver,
	adapter brain.Adapter,
	convo *Context,
	metrics *observability.Metrics,
	storeTimeout time.Duration,
) *Orchestrator {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &Orchestrator{
		store:        store,
		resolver:     resolver,
		adapter:      adapter,
		convo:        convo,
		metrics:      metrics,
		storeTimeout: storeTimeout,
	}
}

// StreamTurn runs one user message through inference, calling onFragment for
// every text fragment in emission order.
//
// The user turn is committed before any output is produced, so a persisted
// user turn with no assistant turn is the normal shape of an interrupted
// request. If onFragment fails (caller detached) accumulation continues and
// the assistant turn is still persisted once generation completes naturally;
// if generation itself fails, partial output is dropped, never partially saved.
func (o *Orchestrator) StreamTurn(ctx context.Context, message string, onFragment func(fragment string) error) error {
	if o.adapter == nil {
		return ErrNoAdapter
	}

	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	start := time.Now()

	o.convo.Append(transcript.RoleUser, message)

	owner, err := o.resolver.ResolveDefaultOwner(ctx)
	if err != nil {
		return err
	}

	if _, err := o.persistTurn(owner.ID, transcript.RoleUser, message); err != nil {
		return fmt.Errorf("persist user turn: %w", err)
	}
	o.observeTurn(transcript.RoleUser)

	var (
		full     strings.Builder
		detached bool
		firstAt  time.Time
	)
	req := brain.ChatRequest{
		TurnID: uuid.NewString(),
		Turns:  o.convo.Snapshot(),
	}
	_, err = o.adapter.StreamResponse(ctx, req, func(delta string) error {
		if delta == "" {
			return nil
		}
		if full.Len() == 0 {
			firstAt = time.Now()
		}
		full.WriteString(delta)
		if detached || onFragment == nil {
			return nil
		}
		if err := onFragment(delta); err != nil {
			// The caller stopped accepting fragments. Keep accumulating so a
			// naturally completed response is still persisted.
			detached = true
			if o.metrics != nil {
				o.metrics.ObserveIndicator("caller_detached")
			}
		}
		return nil
	})
	if err != nil {
		if o.metrics != nil {
			o.metrics.StreamErrors.WithLabelValues("brain").Inc()
		}
		return fmt.Errorf("generate response: %w", err)
	}

	response := full.String()
	o.convo.Append(transcript.RoleAssistant, response)
	if _, err := o.persistTurn(owner.ID, transcript.RoleAssistant, response); err != nil {
		if o.metrics != nil {
			o.metrics.StreamErrors.WithLabelValues("store").Inc()
		}
		return fmt.Errorf("persist assistant turn: %w", err)
	}
	o.observeTurn(transcript.RoleAssistant)

	if o.metrics != nil {
		if !firstAt.IsZero() {
			o.metrics.ObserveFirstFragmentLatency(firstAt.Sub(start))
			o.metrics.ObserveTurnStage("first_fragment", firstAt.Sub(start))
		}
		o.metrics.ObserveTurnStage("turn_total", time.Since(start))
	}
	return nil
}

// TodayHistory lists today's non-system turns in ascending timestamp order.
// Pure read, no serialization against in-flight turns.
func (o *Orchestrator) TodayHistory(ctx context.Context) ([]HistoryEntry, error) {
	owner, err := o.resolver.ResolveDefaultOwner(ctx)
	if err != nil {
		return nil, err
	}

	turns, err := o.store.ListTurns(ctx, owner.ID, transcript.Today(), transcript.RoleSystem)
	if err != nil {
		return nil, fmt.Errorf("list today's turns: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(turns))
	for _, t := range turns {
		entries = append(entries, HistoryEntry{
			Role:      t.Role,
			Content:   t.Content,
			Timestamp: t.Timestamp,
		})
	}
	return entries, nil
}

// ResetHistory deletes today's non-system turns and truncates the context back
// to the system turn. Both effects run under the turn mutex so a reset cannot
// interleave with an in-flight turn; if the delete fails the context is left
// untouched and the error surfaces.
func (o *Orchestrator) ResetHistory(ctx context.Context) (int64, error) {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	owner, err := o.resolver.ResolveDefaultOwner(ctx)
	if err != nil {
		return 0, err
	}

	deleted, err := o.store.DeleteTurns(ctx, owner.ID, transcript.Today(), transcript.RoleSystem)
	if err != nil {
		return 0, fmt.Errorf("delete today's turns: %w", err)
	}

	o.convo.Reset()
	if o.metrics != nil {
		o.metrics.ObserveIndicator("history_reset")
	}
	return deleted, nil
}

// EnsureSystemTurn persists today's system turn if it is not already there.
// Idempotent; called once at startup before traffic is served.
func (o *Orchestrator) EnsureSystemTurn(ctx context.Context) error {
	_, found, err := o.store.FindSystemTurn(ctx, transcript.Today())
	if err != nil {
		return fmt.Errorf("find system turn: %w", err)
	}
	if found {
		return nil
	}

	owner, err := o.resolver.ResolveDefaultOwner(ctx)
	if err != nil {
		return err
	}
	if _, err := o.persistTurn(owner.ID, transcript.RoleSystem, o.convo.SystemPrompt()); err != nil {
		return fmt.Errorf("persist system turn: %w", err)
	}
	return nil
}

// RestoreToday reloads today's persisted non-system turns into the fresh
// context so a restarted process continues the day's conversation.
func (o *Orchestrator) RestoreToday(ctx context.Context) (int, error) {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	owner, err := o.resolver.ResolveDefaultOwner(ctx)
	if err != nil {
		return 0, err
	}

	turns, err := o.store.ListTurns(ctx, owner.ID, transcript.Today(), transcript.RoleSystem)
	if err != nil {
		return 0, fmt.Errorf("list today's turns: %w", err)
	}
	for _, t := range turns {
		o.convo.Append(t.Role, t.Content)
	}
	return len(turns), nil
}

// persistTurn writes one turn with a detached timeout context so a caller
// disconnect cannot abort the commit and a dead store cannot hang the turn.
func (o *Orchestrator) persistTurn(ownerID, role, content string) (transcript.Turn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), o.storeTimeout)
	defer cancel()
	return o.store.AppendTurn(ctx, transcript.Turn{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Date:      transcript.Today(),
		Timestamp: time.Now().UTC(),
		Role:      role,
		Content:   content,
	})
}

func (o *Orchestrator) observeTurn(role string) {
	if o.metrics == nil {
		return
	}
	o.metrics.TurnsTotal.WithLabelValues(role).Inc()
}
