package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/antoniostano/ami/internal/render"
)

const wsWriteTimeout = 10 * time.Second

// handleChatWS serves the websocket chat transport. The client sends one
// {"message": ...} text frame per turn; the server answers with a sequence of
// text frames carrying display units (fragments re-chunked at natural
// breakpoints) and terminates each turn with an empty text frame.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if s.metrics != nil {
		s.metrics.ObserveIndicator("ws_connected")
	}

	conn.SetReadLimit(1 << 20)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var req chatRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Message == "" {
			_ = writeWSUnit(conn, `{"error":"invalid_message"}`)
			continue
		}

		if s.metrics != nil {
			s.metrics.ActiveStreams.Inc()
		}

		buf := render.NewBuffer()
		streamErr := s.orchestrator.StreamTurn(r.Context(), req.Message, func(fragment string) error {
			for _, unit := range buf.Consume(fragment) {
				if err := writeWSUnit(conn, unit); err != nil {
					return err
				}
			}
			return nil
		})
		if streamErr == nil {
			if rest := buf.Finalize(); rest != "" {
				streamErr = writeWSUnit(conn, rest)
			}
		}

		if s.metrics != nil {
			s.metrics.ActiveStreams.Dec()
		}

		if streamErr != nil {
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "stream failed"),
				time.Now().Add(wsWriteTimeout),
			)
			return
		}

		// End-of-turn marker.
		if err := writeWSUnit(conn, ""); err != nil {
			return
		}
	}
}

func writeWSUnit(conn *websocket.Conn, unit string) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, []byte(unit))
}
