package brain

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPAdapter forwards the conversation to an HTTP inference endpoint, e.g. a
// llama.cpp server or any OpenAI-compatible chat-completions backend. It
// accepts SSE, NDJSON, or a single JSON/plain-text body.
type HTTPAdapter struct {
	url    string
	client *http.Client
}

func NewHTTPAdapter(url string) *HTTPAdapter {
	return &HTTPAdapter{
		url: strings.TrimSpace(url),
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (a *HTTPAdapter) StreamResponse(ctx context.Context, req ChatRequest, onDelta DeltaHandler) (ChatResponse, error) {
	payload, err := json.Marshal(map[string]any{
		"messages": req.Turns,
		"stream":   true,
	})
	if err != nil {
		return ChatResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return ChatResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream, application/x-ndjson, application/json")

	res, err := a.client.Do(httpReq)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return ChatResponse{}, fmt.Errorf("brain http status %d: %s", res.StatusCode, string(body))
	}

	ct := strings.ToLower(res.Header.Get("Content-Type"))
	switch {
	case strings.Contains(ct, "text/event-stream"):
		return a.consumeSSE(res.Body, onDelta)
	case strings.Contains(ct, "application/x-ndjson"):
		return a.consumeNDJSON(res.Body, onDelta)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("read response: %w", err)
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		text := strings.TrimSpace(string(body))
		if text == "" {
			return ChatResponse{}, nil
		}
		if err := emitDelta(onDelta, text); err != nil {
			return ChatResponse{}, err
		}
		return ChatResponse{Text: text}, nil
	}

	text := extractText(obj)
	if err := emitDelta(onDelta, text); err != nil {
		return ChatResponse{}, err
	}
	return ChatResponse{Text: text}, nil
}

func (a *HTTPAdapter) consumeSSE(body io.Reader, onDelta DeltaHandler) (ChatResponse, error) {
	scanner := newStreamScanner(body)

	var out strings.Builder
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		delta := data
		var obj map[string]any
		if err := json.Unmarshal([]byte(data), &obj); err == nil {
			delta = extractText(obj)
		}
		if delta == "" {
			continue
		}
		out.WriteString(delta)
		if err := emitDelta(onDelta, delta); err != nil {
			return ChatResponse{}, err
		}
	}
	if err := scanner.Err(); err != nil {
		return ChatResponse{}, fmt.Errorf("stream read: %w", err)
	}

	return ChatResponse{Text: out.String()}, nil
}

func (a *HTTPAdapter) consumeNDJSON(body io.Reader, onDelta DeltaHandler) (ChatResponse, error) {
	scanner := newStreamScanner(body)

	var out strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "[DONE]" {
			continue
		}

		delta := line
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
			delta = extractText(obj)
		}
		if delta == "" {
			continue
		}
		out.WriteString(delta)
		if err := emitDelta(onDelta, delta); err != nil {
			return ChatResponse{}, err
		}
	}
	if err := scanner.Err(); err != nil {
		return ChatResponse{}, fmt.Errorf("stream read: %w", err)
	}

	return ChatResponse{Text: out.String()}, nil
}

func newStreamScanner(body io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return scanner
}

func emitDelta(onDelta DeltaHandler, delta string) error {
	if onDelta == nil || delta == "" {
		return nil
	}
	return onDelta(delta)
}

// extractText pulls the delta text out of the common streaming payload shapes:
// OpenAI-style chat-completion chunks and flat {"text"|"delta"|"content": ...}.
func extractText(obj map[string]any) string {
	if choices, ok := obj["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			for _, k := range []string{"delta", "message"} {
				if inner, ok := choice[k].(map[string]any); ok {
					if s, ok := inner["content"].(string); ok {
						return s
					}
				}
			}
			if s, ok := choice["text"].(string); ok {
				return s
			}
		}
	}
	for _, k := range []string{"text", "delta", "content", "output", "message"} {
		if s, ok := obj[k].(string); ok {
			return s
		}
	}
	return ""
}
