package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/skillsenselab/vbdiar/logger"
)

// ConnectedEvent is the first event on every stream, confirming the
// subscription before any job events arrive.
type ConnectedEvent struct {
	ClientID string            `json:"client_id"`
	JobID    string            `json:"job_id,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ServeSSE upgrades the request to an event stream and pumps the
// client's events until it disconnects. Called from HTTP handlers.
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, clientID string, opts ...ClientOption) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.Error("[SSE] streaming not supported", logger.Fields("client_id", clientID))
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// The stream outlives the server's WriteTimeout, so the deadline
	// has to come off. Keep-alives carry the connection from here.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		logger.Warn("[SSE] could not disable write deadline", logger.Fields(
			"client_id", clientID,
			"error", err.Error()))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	client := NewClient(clientID, opts...)
	hub.Register(client)
	defer func() {
		hub.Unregister(client)
	}()

	connected := ConnectedEvent{
		ClientID: clientID,
		JobID:    client.JobID(),
		Metadata: client.Metadata(),
	}
	connectedData, _ := json.Marshal(connected)
	_, _ = fmt.Fprintf(w, "event: %s\n", EventTypeConnected)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", connectedData)
	flusher.Flush()

	logger.Debug("[SSE] client connected", logger.Fields(
		"client_id", clientID,
		"job_id", client.JobID(),
		"remote_addr", r.RemoteAddr))

	// Keep-alive interval stays under typical proxy idle timeouts (60s).
	keepAlive := time.NewTicker(30 * time.Second)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			logger.Debug("[SSE] client disconnected", logger.Fields(
				"client_id", clientID,
				"reason", ctx.Err().Error()))
			return

		case event, ok := <-client.Events():
			if !ok {
				// Channel closed, hub shut down or client unregistered.
				return
			}
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()

		case <-keepAlive.C:
			// SSE comment line; keeps proxies from closing the stream.
			_, _ = fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}
