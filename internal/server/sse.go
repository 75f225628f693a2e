package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SSEWriter helps write Server-Sent Events.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer and sends the stream headers.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends one SSE event.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// handleRealtime serves the authenticated realtime stream. The bearer token
// arrives as ?token= or ?access= because EventSource cannot set headers; an
// auth failure closes with application code 4001.
func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.URL.Query().Get("access")
	}
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, authFailureCode, "authentication failed")
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, 0, "streaming not supported")
		return
	}

	sub := s.bus.Subscribe(claims.UserID)
	defer sub.Unsubscribe()

	_ = sse.WriteEvent("connected", map[string]any{"user_id": claims.UserID})

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if err := sse.WriteEvent("heartbeat", map[string]any{"ts": time.Now().UTC()}); err != nil {
				return
			}
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			if err := sse.WriteEvent(string(event.Type), event); err != nil {
				return
			}
			// Tell a consumer that fell behind to refetch instead of
			// trusting the (gapped) stream.
			if sub.Lapsed() {
				sub.ClearLapsed()
				if err := sse.WriteEvent("resync", map[string]any{"reason": "events dropped"}); err != nil {
					return
				}
			}
		}
	}
}
