package brain

import (
	"context"
	"fmt"
	"strings"
)

// MockAdapter provides deterministic local replies when no inference backend
// is configured. Replies are streamed in small fragments so callers exercise
// the same incremental path as a real backend.
type MockAdapter struct{}

func NewMockAdapter() *MockAdapter { return &MockAdapter{} }

func (a *MockAdapter) StreamResponse(ctx context.Context, req ChatRequest, onDelta DeltaHandler) (ChatResponse, error) {
	text := buildMockReply(req)

	var out strings.Builder
	for _, fragment := range splitMockFragments(text) {
		select {
		case <-ctx.Done():
			return ChatResponse{}, ctx.Err()
		default:
		}
		out.WriteString(fragment)
		if err := emitDelta(onDelta, fragment); err != nil {
			return ChatResponse{}, err
		}
	}
	return ChatResponse{Text: out.String()}, nil
}

func buildMockReply(req ChatRequest) string {
	var last string
	for _, t := range req.Turns {
		if t.Role == "user" {
			last = strings.TrimSpace(t.Content)
		}
	}
	if last == "" {
		return "I am listening."
	}
	return fmt.Sprintf("I heard you: %s", last)
}

// splitMockFragments cuts the reply after each space so the stream carries
// several word-sized deltas instead of one blob.
func splitMockFragments(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if r == ' ' {
			out = append(out, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}
