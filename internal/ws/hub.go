package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// WSMessage is the envelope for every message in either direction.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub tracks live connections and their room subscriptions, and fans out
// messages to every subscriber of a room code. Delivery is fire-and-forget
// per subscriber.
type Hub struct {
	mu        sync.RWMutex
	conns     map[string]*Connection            // conn id -> connection
	rooms     map[string]map[string]*Connection // code -> conn id -> connection
	connRooms map[string]string                 // conn id -> code
}

func NewHub() *Hub {
	return &Hub{
		conns:     make(map[string]*Connection),
		rooms:     make(map[string]map[string]*Connection),
		connRooms: make(map[string]string),
	}
}

// Register adds a freshly upgraded connection.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	h.conns[conn.ID] = conn
	h.mu.Unlock()
	log.Debug().Str("conn_id", conn.ID).Msg("ws: client connected")
}

// Unregister drops a connection and any subscription it held.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	if code, ok := h.connRooms[connID]; ok {
		h.removeFromRoom(code, connID)
	}
	delete(h.conns, connID)
	h.mu.Unlock()
	log.Debug().Str("conn_id", connID).Msg("ws: client disconnected")
}

// Subscribe associates a connection with a room code. A connection follows
// at most one room; joining another replaces the previous subscription.
func (h *Hub) Subscribe(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	if prev, ok := h.connRooms[connID]; ok && prev != code {
		h.removeFromRoom(prev, connID)
	}
	if h.rooms[code] == nil {
		h.rooms[code] = make(map[string]*Connection)
	}
	h.rooms[code][connID] = conn
	h.connRooms[connID] = code
}

// Unsubscribe detaches a connection from a room code. Idempotent.
func (h *Hub) Unsubscribe(code, connID string) {
	h.mu.Lock()
	h.removeFromRoom(code, connID)
	h.mu.Unlock()
}

// Broadcast sends one message to every subscriber of code, in subscriber
// order but without waiting on any of them.
func (h *Hub) Broadcast(code, event string, data any) {
	payload, err := marshal(event, data)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.rooms[code] {
		_ = conn.Send(payload)
	}
}

// SendToConn delivers a message to a single connection, used for
// caller-only replies and errors.
func (h *Hub) SendToConn(connID, event string, data any) {
	payload, err := marshal(event, data)
	if err != nil {
		return
	}

	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()
	if ok {
		_ = conn.Send(payload)
	}
}

// removeFromRoom requires h.mu held.
func (h *Hub) removeFromRoom(code, connID string) {
	if conns, ok := h.rooms[code]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(h.rooms, code)
		}
	}
	if h.connRooms[connID] == code {
		delete(h.connRooms, connID)
	}
}

func marshal(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(WSMessage{Type: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("ws: marshal error")
		return nil, err
	}
	return payload, nil
}
