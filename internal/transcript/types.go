package transcript

import (
	"context"
	"errors"
	"time"
)

// Roles a persisted turn can carry.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DateLayout is the calendar-day partition key format for transcripts.
const DateLayout = "2006-01-02"

// Today returns the partition key for the current calendar day.
func Today() string {
	return time.Now().Format(DateLayout)
}

var ErrOwnerNotFound = errors.New("owner not found")

// Owner is the identity a transcript's turns are attributed to.
type Owner struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
}

// Turn is a single persisted conversational message, scoped to an owner
// and a calendar day.
type Turn struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
}

// Store persists owners and per-day transcript turns. Each call commits or
// fails on its own; callers needing a read-modify-write sequence on the same
// (owner, date) must serialize it themselves.
type Store interface {
	FindOwner(ctx context.Context, id string) (Owner, error)
	CreateOwner(ctx context.Context, owner Owner) (Owner, error)
	FindSystemTurn(ctx context.Context, date string) (Turn, bool, error)
	AppendTurn(ctx context.Context, turn Turn) (Turn, error)
	ListTurns(ctx context.Context, ownerID, date, excludeRole string) ([]Turn, error)
	DeleteTurns(ctx context.Context, ownerID, date, excludeRole string) (int64, error)
	Close() error
}
