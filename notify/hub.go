package notify

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kbukum/voicekit/logger"
	"github.com/kbukum/voicekit/pipeline"
)

const (
	writeTimeout = 5 * time.Second
	readTimeout  = 120 * time.Second
)

// Hub forwards pipeline events to UI clients over websockets. The UI
// only listens; inbound messages other than pings are discarded.
type Hub struct {
	upgrader websocket.Upgrader
	log      *logger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates a websocket event hub. Origins are not checked; the hub
// is meant to be bound to loopback for a local UI.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log:     logger.WithComponent("notify"),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the connection and keeps it registered until the
// client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", logger.ErrorFields("upgrade", err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("event client connected", logger.Fields("remote", conn.RemoteAddr().String()))

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("event client read error", logger.ErrorFields("read", err))
			}
			return
		}
	}
}

// Broadcast sends an event to every connected client, dropping clients
// whose writes fail.
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(event); err != nil {
			h.log.Debug("dropping event client", logger.ErrorFields("write", err))
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// NotifyStatus implements pipeline.Notifier.
func (h *Hub) NotifyStatus(status pipeline.Status) {
	h.Broadcast(StatusEvent(status))
}

// NotifyTranscript implements pipeline.Notifier.
func (h *Hub) NotifyTranscript(text string) {
	h.Broadcast(TranscriptEvent(text))
}

// NotifyError implements pipeline.Notifier.
func (h *Hub) NotifyError(stage pipeline.Stage, message string) {
	h.Broadcast(ErrorEvent(stage, message))
}

var _ pipeline.Notifier = (*Hub)(nil)
