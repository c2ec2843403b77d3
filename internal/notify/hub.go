package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub manages push connections and user-scoped message delivery.
// In production, backed by Redis pub/sub for multi-instance support.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]*Conn // room -> connID -> conn
	logger *slog.Logger
}

// Conn represents a push connection (abstracted for testability).
type Conn struct {
	ID     string
	UserID string
	Send   chan []byte
}

// Message is the payload sent over the push channel.
type Message struct {
	Kind Kind        `json:"kind"`
	Data interface{} `json:"data"`
}

// NewHub creates a new push hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[string]*Conn),
		logger: logger,
	}
}

// Join adds a connection to its user-scoped room.
func (h *Hub) Join(conn *Conn) {
	room := userRoom(conn.UserID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Conn)
	}
	h.rooms[room][conn.ID] = conn
}

// Leave removes a connection from its user-scoped room.
func (h *Hub) Leave(conn *Conn) {
	room := userRoom(conn.UserID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[room]; ok {
		delete(conns, conn.ID)
		if len(conns) == 0 {
			delete(h.rooms, room)
		}
	}
}

// SendToUser delivers a message to all of the user's connections. A user with
// no open connection is not an error: missed notifications are served from
// the notifications table on reconnect.
func (h *Hub) SendToUser(_ context.Context, userID string, kind Kind, payload interface{}) error {
	msg, err := json.Marshal(Message{Kind: kind, Data: payload})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.rooms[userRoom(userID)]
	if !ok {
		return nil
	}

	for _, conn := range conns {
		select {
		case conn.Send <- msg:
		default:
			h.logger.Warn("push send buffer full", "conn_id", conn.ID, "user_id", userID)
		}
	}
	return nil
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, conns := range h.rooms {
		count += len(conns)
	}
	return count
}

// Shutdown closes all connections.
func (h *Hub) Shutdown(_ context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, conns := range h.rooms {
		for _, conn := range conns {
			close(conn.Send)
		}
		delete(h.rooms, room)
	}
}

func userRoom(userID string) string { return "user:" + userID }
