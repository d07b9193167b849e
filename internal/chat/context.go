package chat

import (
	"sync"

	"github.com/antoniostano/ami/internal/brain"
	"github.com/antoniostano/ami/internal/transcript"
)

// Context is the live, append-only conversation buffer fed to inference.
// It is seeded with exactly one system turn and never reordered or pruned;
// Reset truncates back to that system turn.
type Context struct {
	mu    sync.Mutex
	turns []brain.Turn
}

func NewContext(systemPrompt string) *Context {
	return &Context{
		turns: []brain.Turn{{Role: transcript.RoleSystem, Content: systemPrompt}},
	}
}

func (c *Context) Append(role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, brain.Turn{Role: role, Content: content})
}

// Snapshot returns a copy of the full rolling context, system turn first.
func (c *Context) Snapshot() []brain.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]brain.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Reset truncates the context back to the single system turn. It is in-memory
// only; the orchestrator pairs it with the persisted-transcript delete.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = c.turns[:1]
}

func (c *Context) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

// SystemPrompt returns the content of the seeding system turn.
func (c *Context) SystemPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turns[0].Content
}
