package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/ami/internal/brain"
	"github.com/antoniostano/ami/internal/chat"
	"github.com/antoniostano/ami/internal/config"
	"github.com/antoniostano/ami/internal/identity"
	"github.com/antoniostano/ami/internal/transcript"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := transcript.NewInMemoryStore()
	resolver := identity.NewResolver(store, identity.Defaults{OwnerID: "default-user"})
	convo := chat.NewContext("preamble")
	orchestrator := chat.NewOrchestrator(store, resolver, brain.NewMockAdapter(), convo, nil, 0)

	srv := New(config.Config{}, orchestrator, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postStream(t *testing.T, ts *httptest.Server, message string) (*http.Response, string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"message": message})
	res, err := http.Post(ts.URL+"/chat/stream", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("stream request error = %v", err)
	}
	defer res.Body.Close()
	full, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read stream body: %v", err)
	}
	return res, string(full)
}

func TestChatStreamAndHistoryRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	res, streamed := postStream(t, ts, "Bonjour")
	if res.StatusCode != http.StatusOK {
		t.Fatalf("stream status = %d, want %d", res.StatusCode, http.StatusOK)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("stream content type = %q, want text/plain", ct)
	}
	if streamed != "I heard you: Bonjour" {
		t.Fatalf("streamed body = %q", streamed)
	}

	histRes, err := http.Get(ts.URL + "/chat/history")
	if err != nil {
		t.Fatalf("history request error = %v", err)
	}
	defer histRes.Body.Close()
	if histRes.StatusCode != http.StatusOK {
		t.Fatalf("history status = %d, want %d", histRes.StatusCode, http.StatusOK)
	}

	var entries []chat.HistoryEntry
	if err := json.NewDecoder(histRes.Body).Decode(&entries); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Role != "user" || entries[0].Content != "Bonjour" {
		t.Fatalf("entries[0] = %+v", entries[0])
	}
	if entries[1].Role != "assistant" || entries[1].Content != streamed {
		t.Fatalf("entries[1] = %+v, want streamed content %q", entries[1], streamed)
	}
	if entries[1].Timestamp.Before(entries[0].Timestamp) {
		t.Fatalf("assistant timestamp precedes user timestamp: %+v", entries)
	}
}

func TestChatStreamRejectsBlankMessage(t *testing.T) {
	ts := newTestServer(t)

	res, _ := postStream(t, ts, "   ")
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusBadRequest)
	}
}

func TestHistoryDeleteClearsToday(t *testing.T) {
	ts := newTestServer(t)

	if res, _ := postStream(t, ts, "Bonjour"); res.StatusCode != http.StatusOK {
		t.Fatalf("stream status = %d", res.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/chat/history", nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete request error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want %d", res.StatusCode, http.StatusOK)
	}

	var confirmation map[string]any
	if err := json.NewDecoder(res.Body).Decode(&confirmation); err != nil {
		t.Fatalf("decode delete response: %v", err)
	}
	if confirmation["message"] == "" {
		t.Fatalf("delete confirmation missing message: %+v", confirmation)
	}

	histRes, err := http.Get(ts.URL + "/chat/history")
	if err != nil {
		t.Fatalf("history request error = %v", err)
	}
	defer histRes.Body.Close()
	var entries []chat.HistoryEntry
	if err := json.NewDecoder(histRes.Body).Decode(&entries); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries after delete = %+v, want empty", entries)
	}
}

func TestRootAndHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/", "/healthz", "/readyz"} {
		res, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", path, res.StatusCode, http.StatusOK)
		}
	}
}

func TestChatWSStreamsDisplayUnits(t *testing.T) {
	ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("ws dial error = %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"message": "Bonjour"}); err != nil {
		t.Fatalf("ws write error = %v", err)
	}

	var units []string
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ws read error = %v", err)
		}
		if len(data) == 0 {
			break
		}
		units = append(units, string(data))
	}

	joined := strings.Join(units, "")
	if joined != "I heard you: Bonjour" {
		t.Fatalf("ws units join = %q", joined)
	}
	if len(units) < 2 {
		t.Fatalf("len(units) = %d, want several display units", len(units))
	}
	for _, unit := range units[:len(units)-1] {
		r := []rune(unit)
		switch r[len(r)-1] {
		case ' ', '\n', '.', ',', '!', '?':
		default:
			t.Fatalf("unit %q does not end at a breakpoint", unit)
		}
	}
}
