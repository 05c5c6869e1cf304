package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/statusboardhq/statusboard/internal/collector"
)

// StatusEvent is the message pushed to status page clients after each
// poll cycle
type StatusEvent struct {
	Type    string                 `json:"type"`
	Time    time.Time              `json:"time"`
	Outcome *collector.PollOutcome `json:"outcome,omitempty"`
	Health  collector.HealthStatus `json:"health"`
}

// StatusWSHandler pushes live poll results to connected status pages.
// Slow or dead clients are dropped rather than allowed to block a
// broadcast.
type StatusWSHandler struct {
	upgrader   websocket.Upgrader
	supervisor *collector.Supervisor

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewStatusWSHandler creates a new status WebSocket handler
func NewStatusWSHandler(supervisor *collector.Supervisor) *StatusWSHandler {
	return &StatusWSHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The status page is public, cross-origin reads are fine
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		supervisor: supervisor,
		conns:      make(map[*websocket.Conn]struct{}),
	}
}

// HandleWS upgrades the connection and registers the client
func (h *StatusWSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("StatusWSHandler: upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	count := len(h.conns)
	h.mu.Unlock()
	log.Printf("StatusWSHandler: client connected (%d total)", count)

	// Reader loop: we never expect client messages, but reading is what
	// surfaces close frames and dead connections.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// BroadcastOutcome pushes a poll outcome to all connected clients.
// Wired as the poll executor's observer.
func (h *StatusWSHandler) BroadcastOutcome(outcome *collector.PollOutcome) {
	event := StatusEvent{
		Type:    "poll_complete",
		Time:    time.Now(),
		Outcome: outcome,
		Health:  h.supervisor.HealthStatus(),
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("StatusWSHandler: dropping client: %v", err)
			h.drop(conn)
		}
	}
}

// ClientCount returns the number of connected clients
func (h *StatusWSHandler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close disconnects all clients
func (h *StatusWSHandler) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.conns = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
	}
}

func (h *StatusWSHandler) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, present := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()
	if present {
		conn.Close()
	}
}
