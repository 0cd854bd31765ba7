package service

// Broadcaster is the room-group fan-out surface (avoids an import
// cycle with the ws transport, which implements it). Group membership
// mutations are synchronous so services can register a connection in
// the same serialized step that captures its join snapshot.
type Broadcaster interface {
	AddToRoom(roomID, connID string)
	// RemoveFromRoom reports whether the connection was actually in the
	// group, so callers can tell a real departure from a stray leave.
	RemoveFromRoom(roomID, connID string) bool
	BroadcastToRoom(roomID string, msgType string, payload interface{})
	BroadcastToRoomExcept(roomID, exceptConnID string, msgType string, payload interface{})
	SendTo(connID string, msgType string, payload interface{})
}
