package model

import "errors"

// Domain errors surfaced to the requesting connection only; none of
// them crashes the event loop or reaches other room members.
var (
	// ErrNotRegistered means a connection attempted a room-scoped action
	// before joining a room.
	ErrNotRegistered = errors.New("connection not registered")

	// ErrRoomNotActive means the room does not exist, is not published,
	// or the current time is outside its scheduling window.
	ErrRoomNotActive = errors.New("room is not active")

	// ErrNotAParticipant means the identity is not a member of the session.
	ErrNotAParticipant = errors.New("not a participant of this room")

	// ErrTeamNotFound means the team was deleted (or never existed).
	ErrTeamNotFound = errors.New("team not found")

	// ErrInvalidTeam means a reassignment targeted a team that is not in
	// the room's live team list.
	ErrInvalidTeam = errors.New("invalid team")

	// ErrNotHost means the sender is not the host of record for the room.
	ErrNotHost = errors.New("not the room host")

	// ErrStorageUnavailable means the document store was unreachable or
	// the write failed; the operation was aborted whole.
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
