// Package feed broadcasts recorded track events to connected admin
// dashboards over WebSocket.
package feed

import (
	"encoding/json"
	"sync"
	"time"

	"dzika/logger"
	"dzika/model"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Hub fans recorded events out to all registered connections. Connections
// that fail a write are dropped; a slow dashboard never blocks event
// recording.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

// Register adds a connection to the broadcast set.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
	logger.Debug("activity feed client connected", logger.Int("clients", len(h.clients)))
}

// Unregister removes a connection and closes it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// ClientCount returns the number of connected dashboards.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends the event to every connected dashboard. Failed connections
// are dropped from the set.
func (h *Hub) Broadcast(event model.RecentEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("failed to marshal activity event", logger.ErrorField(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Warn("dropping activity feed client", logger.ErrorField(err))
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
