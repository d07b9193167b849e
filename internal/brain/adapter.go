package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Turn is one role/content element of the conversation context sent to the model.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the normalized request sent to the reasoning backend.
type ChatRequest struct {
	TurnID string `json:"turn_id,omitempty"`
	Turns  []Turn `json:"messages"`
}

// ChatResponse is the final response after streaming deltas.
type ChatResponse struct {
	Text string `json:"text"`
}

// DeltaHandler receives streaming text fragments in emission order.
type DeltaHandler func(delta string) error

// Adapter bridges the chat orchestrator with an inference backend. The
// backend is opaque, possibly slow, possibly failing; concatenating the
// deltas passed to the handler yields the complete response text.
type Adapter interface {
	StreamResponse(ctx context.Context, req ChatRequest, onDelta DeltaHandler) (ChatResponse, error)
}

// Config controls adapter construction.
type Config struct {
	Mode    string
	HTTPURL string
}

func NewAdapter(cfg Config) (Adapter, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.HTTPURL) != "" {
			return NewHTTPAdapter(cfg.HTTPURL), nil
		}
		return NewMockAdapter(), nil
	case "http":
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, errors.New("brain HTTP url is required for http mode")
		}
		return NewHTTPAdapter(cfg.HTTPURL), nil
	case "mock":
		return NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported brain adapter mode %q", cfg.Mode)
	}
}
