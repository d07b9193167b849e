package render

import "strings"

// Buffer re-chunks a raw fragment stream into display units so clients don't
// repaint on every token-sized delta. A unit is flushed whenever the most
// recently consumed rune is a natural breakpoint; whatever remains when the
// stream ends is flushed by Finalize. Concatenating every emitted unit
// reproduces the input exactly.
type Buffer struct {
	pending strings.Builder
}

func NewBuffer() *Buffer { return &Buffer{} }

// Consume appends a fragment and returns the display units completed by it,
// in order. The returned slice is empty when no breakpoint was crossed.
func (b *Buffer) Consume(fragment string) []string {
	var out []string
	for _, r := range fragment {
		b.pending.WriteRune(r)
		if isBreakpoint(r) {
			out = append(out, b.pending.String())
			b.pending.Reset()
		}
	}
	return out
}

// Finalize returns the residual unit, which may be empty, and clears the buffer.
func (b *Buffer) Finalize() string {
	rest := b.pending.String()
	b.pending.Reset()
	return rest
}

func isBreakpoint(r rune) bool {
	switch r {
	case ' ', '\n', '.', ',', '!', '?':
		return true
	}
	return false
}
