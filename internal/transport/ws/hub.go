package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Message is the WebSocket envelope format.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Connection represents one live WebSocket client.
type Connection struct {
	ID     string
	UserID string
	Send   chan []byte
}

// Hub holds the broadcast groups: one group of connections per room.
// Group mutations are synchronous so the membership a caller sees
// inside a room's critical section is the membership broadcasts use.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Connection            // connID -> connection
	rooms map[string]map[string]*Connection // roomID -> connID -> connection
}

// NewHub creates a new hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[string]*Connection),
		rooms: make(map[string]map[string]*Connection),
	}
}

// Attach makes a connection known to the hub. It belongs to no room
// until AddToRoom.
func (h *Hub) Attach(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn.ID] = conn
}

// Detach removes the connection from the hub and any room group, and
// closes its send channel. Idempotent.
func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	delete(h.conns, connID)
	for roomID, group := range h.rooms {
		if _, ok := group[connID]; ok {
			delete(group, connID)
			if len(group) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	close(conn.Send)
}

// AddToRoom puts the connection into the room's broadcast group.
func (h *Hub) AddToRoom(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	group, ok := h.rooms[roomID]
	if !ok {
		group = make(map[string]*Connection)
		h.rooms[roomID] = group
	}
	group[connID] = conn
}

// RemoveFromRoom takes the connection out of the room's group and
// reports whether it was a member. Safe on unknown rooms and
// connections.
func (h *Hub) RemoveFromRoom(roomID, connID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.rooms[roomID]
	if !ok {
		return false
	}
	if _, member := group[connID]; !member {
		return false
	}
	delete(group, connID)
	if len(group) == 0 {
		delete(h.rooms, roomID)
	}
	return true
}

// RoomSize returns the number of connections in a room's group.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// BroadcastToRoom sends a message to every connection in the room.
func (h *Hub) BroadcastToRoom(roomID string, msgType string, payload interface{}) {
	h.BroadcastToRoomExcept(roomID, "", msgType, payload)
}

// BroadcastToRoomExcept sends a message to every connection in the
// room except the named one (typically the requester, which gets a
// directed acknowledgment instead).
func (h *Hub) BroadcastToRoomExcept(roomID, exceptConnID string, msgType string, payload interface{}) {
	data, ok := encode(msgType, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID, conn := range h.rooms[roomID] {
		if connID == exceptConnID {
			continue
		}
		deliver(conn, data)
	}
}

// SendTo sends a directed message to a single connection.
func (h *Hub) SendTo(connID string, msgType string, payload interface{}) {
	data, ok := encode(msgType, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if conn, ok := h.conns[connID]; ok {
		deliver(conn, data)
	}
}

func encode(msgType string, payload interface{}) ([]byte, bool) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("failed to marshal ws payload")
		return nil, false
	}
	data, err := json.Marshal(&Message{Type: msgType, Payload: body})
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("failed to marshal ws message")
		return nil, false
	}
	return data, true
}

func deliver(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
		// Drop rather than block the room on a slow client.
		log.Warn().Str("conn", conn.ID).Msg("ws send buffer full, message dropped")
	}
}
