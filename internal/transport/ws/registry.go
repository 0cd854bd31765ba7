package ws

import "sync"

// Entry ties a transport connection to a participant and, after a
// successful join, a room.
type Entry struct {
	UserID string
	RoomID string
}

// Registry maps connection IDs to their identity. An entry exists iff
// a live connection exists: it is created at handshake and removed
// synchronously on disconnect, so no reaping pass is needed.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Register records a new connection's identity. The identity is fixed
// for the connection's lifetime.
func (r *Registry) Register(connID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[connID] = Entry{UserID: userID}
}

// SetRoom marks the connection as joined to roomID. Returns false for
// an unknown connection.
func (r *Registry) SetRoom(connID, roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[connID]
	if !ok {
		return false
	}
	e.RoomID = roomID
	r.entries[connID] = e
	return true
}

// ClearRoom detaches the connection from its room, keeping the entry.
func (r *Registry) ClearRoom(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[connID]; ok {
		e.RoomID = ""
		r.entries[connID] = e
	}
}

// Lookup returns the connection's entry.
func (r *Registry) Lookup(connID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[connID]
	return e, ok
}

// Unregister removes the connection and returns what it was. Calling
// it twice is a no-op, not an error.
func (r *Registry) Unregister(connID string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[connID]
	if ok {
		delete(r.entries, connID)
	}
	return e, ok
}
