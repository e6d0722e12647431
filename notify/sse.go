package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/voicekit/logger"
)

const keepAliveInterval = 30 * time.Second

// SSEHandler streams pipeline events to a UI over Server-Sent Events, as
// an alternative to the websocket Hub for clients that only need a
// one-way feed. Each connection subscribes to the Broadcaster and holds
// the subscription until the client goes away.
type SSEHandler struct {
	broadcaster *Broadcaster
	log         *logger.Logger
}

// NewSSEHandler creates an SSE handler over the given broadcaster.
func NewSSEHandler(broadcaster *Broadcaster) *SSEHandler {
	return &SSEHandler{
		broadcaster: broadcaster,
		log:         logger.WithComponent("notify"),
	}
}

// ServeHTTP streams events until the client disconnects. The current
// status is sent immediately so a reconnecting UI never shows a stale
// state.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// SSE connections are long-lived; the server's write timeout must not
	// tear them down.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.log.Warn("could not disable write deadline", logger.ErrorFields("set_write_deadline", err))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cancel := h.broadcaster.Subscribe()
	defer cancel()

	writeEvent(w, StatusEvent(h.broadcaster.Status()))
	flusher.Flush()

	h.log.Debug("sse client connected", logger.Fields("remote", r.RemoteAddr))

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("sse client disconnected", logger.Fields("remote", r.RemoteAddr))
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			writeEvent(w, event)
			flusher.Flush()

		case <-keepAlive.C:
			// SSE comment line; keeps proxies from closing the stream.
			_, _ = fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
}
