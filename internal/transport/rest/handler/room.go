package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"liveroom/internal/model"
	"liveroom/internal/service"
	"liveroom/internal/transport/rest/middleware"
)

// RoomHandler handles room lifecycle endpoints.
type RoomHandler struct {
	roomSvc *service.RoomService
	authSvc *service.AuthService
}

// NewRoomHandler creates a new room handler.
func NewRoomHandler(roomSvc *service.RoomService, authSvc *service.AuthService) *RoomHandler {
	return &RoomHandler{
		roomSvc: roomSvc,
		authSvc: authSvc,
	}
}

// CreateRoomRequest is the request body for creating a room.
type CreateRoomRequest struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	StartsAt  time.Time `json:"startsAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Create handles POST /v1/rooms.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	roomType := model.RoomTypeGame
	if model.RoomType(req.Type) == model.RoomTypeVote {
		roomType = model.RoomTypeVote
	}

	room, err := h.roomSvc.CreateRoom(r.Context(), service.CreateRoomParams{
		Name:      req.Name,
		Type:      roomType,
		StartsAt:  req.StartsAt,
		ExpiresAt: req.ExpiresAt,
		CreatedBy: claims.UserID,
	})
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// Get handles GET /v1/rooms/{id}.
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	room, err := h.roomSvc.GetRoom(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if room == nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// Publish handles POST /v1/rooms/{id}/publish.
func (h *RoomHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.roomSvc.Publish, string(model.RoomPublished))
}

// Archive handles POST /v1/rooms/{id}/archive.
func (h *RoomHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.roomSvc.Archive, string(model.RoomArchived))
}

func (h *RoomHandler) setStatus(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, roomID, userID string) error, status string) {
	id := mux.Vars(r)["id"]
	claims := middleware.GetClaims(r.Context())

	if err := op(r.Context(), id, claims.UserID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// Validate handles GET /v1/rooms/{id}/validate: the side-effect-free
// pre-join check clients run before opening the socket.
func (h *RoomHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	claims := middleware.GetClaims(r.Context())

	room, err := h.roomSvc.ValidateJoin(r.Context(), id, claims.UserID)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "room is joinable",
		"roomDetails": map[string]interface{}{
			"id":        room.ID,
			"name":      room.Name,
			"startsAt":  room.StartsAt,
			"expiresAt": room.ExpiresAt,
		},
	})
}

// AddParticipantRequest is the request body for registering a participant.
type AddParticipantRequest struct {
	UserID string `json:"userId"`
}

// AddParticipant handles POST /v1/rooms/{id}/participants. The
// response carries the opaque token the participant connects with.
func (h *RoomHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	claims := middleware.GetClaims(r.Context())

	var req AddParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := h.roomSvc.AddParticipant(r.Context(), id, claims.UserID, req.UserID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	token, err := h.authSvc.IssueParticipantToken(req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"userId": req.UserID,
		"token":  token,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrRoomNotActive):
		return http.StatusNotFound
	case errors.Is(err, model.ErrNotAParticipant), errors.Is(err, model.ErrNotHost):
		return http.StatusForbidden
	case errors.Is(err, model.ErrTeamNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidTeam):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
