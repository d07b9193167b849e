package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/ami/internal/chat"
	"github.com/antoniostano/ami/internal/config"
	"github.com/antoniostano/ami/internal/observability"
)

// Orchestrator is the chat pipeline the API fronts.
type Orchestrator interface {
	StreamTurn(ctx context.Context, message string, onFragment func(fragment string) error) error
	TodayHistory(ctx context.Context) ([]chat.HistoryEntry, error)
	ResetHistory(ctx context.Context) (int64, error)
}

type Server struct {
	cfg          config.Config
	orchestrator Orchestrator
	metrics      *observability.Metrics
	upgrader     websocket.Upgrader
}

func New(cfg config.Config, orchestrator Orchestrator, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		metrics:      metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so a third-party page cannot drive the shared
				// conversation if the service is exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	r.Post("/chat/stream", s.handleChatStream)
	r.Get("/chat/history", s.handleGetHistory)
	r.Delete("/chat/history", s.handleDeleteHistory)
	r.Get("/chat/ws", s.handleChatWS)

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"message": "Bienvenue sur l'API AMI"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type chatRequest struct {
	Message string `json:"message"`
}

// handleChatStream streams the assistant response as an incremental
// plain-text body. The concatenated body equals the complete response; there
// is no framing, fragment boundaries are a delivery detail.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "empty_message", "message must not be blank")
		return
	}

	if s.metrics != nil {
		s.metrics.ActiveStreams.Inc()
		defer s.metrics.ActiveStreams.Dec()
	}

	flusher, canFlush := w.(http.Flusher)
	wroteAny := false

	err := s.orchestrator.StreamTurn(r.Context(), req.Message, func(fragment string) error {
		if !wroteAny {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			wroteAny = true
		}
		if _, err := io.WriteString(w, fragment); err != nil {
			return err
		}
		if canFlush {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		if wroteAny {
			// Headers and partial output are already on the wire; there is no
			// retraction protocol. Terminate the body.
			return
		}
		if errors.Is(err, chat.ErrNoAdapter) {
			respondError(w, http.StatusServiceUnavailable, "brain_unavailable", err.Error())
			return
		}
		respondError(w, http.StatusBadGateway, "stream_failed", err.Error())
		return
	}

	if !wroteAny {
		// Empty completion: still a success, just with no body.
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.orchestrator.TodayHistory(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "history_failed", err.Error())
		return
	}
	if entries == nil {
		entries = []chat.HistoryEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.orchestrator.ResetHistory(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "reset_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Historique supprimé avec succès",
		"deleted": deleted,
	})
}

func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		respondJSON(w, http.StatusOK, map[string]any{
			"generated_at": "",
			"window_size":  0,
			"stages":       []any{},
		})
		return
	}
	respondJSON(w, http.StatusOK, s.metrics.SnapshotTurnStages())
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
