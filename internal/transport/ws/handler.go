package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"liveroom/internal/model"
	"liveroom/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024

	// Bound for handling a single inbound event, store I/O included.
	eventTimeout = 10 * time.Second
)

// The hub is the Broadcaster the services fan out through.
var _ service.Broadcaster = (*Hub)(nil)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler owns the WebSocket endpoint: handshake authentication,
// connection lifecycle and the dispatch of client events to the
// coordination services.
type Handler struct {
	hub      *Hub
	registry *Registry
	authSvc  *service.AuthService

	roomSvc   *service.RoomService
	teamSvc   *service.TeamService
	buzzerSvc *service.BuzzerService
	presSvc   *service.PresentationService
	scoreSvc  *service.ScoreService
}

// NewHandler creates a new WebSocket handler.
func NewHandler(
	hub *Hub,
	registry *Registry,
	authSvc *service.AuthService,
	roomSvc *service.RoomService,
	teamSvc *service.TeamService,
	buzzerSvc *service.BuzzerService,
	presSvc *service.PresentationService,
	scoreSvc *service.ScoreService,
) *Handler {
	return &Handler{
		hub:       hub,
		registry:  registry,
		authSvc:   authSvc,
		roomSvc:   roomSvc,
		teamSvc:   teamSvc,
		buzzerSvc: buzzerSvc,
		presSvc:   presSvc,
		scoreSvc:  scoreSvc,
	}
}

// ServeWS handles GET /v1/ws. Identity comes from the opaque token in
// the query string; connections without a valid one are rejected at
// handshake.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := &Connection{
		ID:     uuid.NewString(),
		UserID: claims.UserID,
		Send:   make(chan []byte, 256),
	}

	h.hub.Attach(conn)
	h.registry.Register(conn.ID, claims.UserID)

	log.Info().Str("conn", conn.ID).Str("user", claims.UserID).Msg("websocket connected")

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		// Disconnect is an implicit leave: registry entry and group
		// membership go away synchronously, nothing else is held.
		if entry, ok := h.registry.Unregister(conn.ID); ok && entry.RoomID != "" {
			h.roomSvc.Leave(entry.RoomID, entry.UserID, conn.ID)
		}
		h.hub.Detach(conn.ID)
		wsConn.Close()
		log.Info().Str("conn", conn.ID).Msg("websocket disconnected")
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn", conn.ID).Msg("websocket read error")
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(conn, "bad_message", "malformed message envelope")
			continue
		}

		event, err := ParseClientEvent(&msg)
		if err != nil {
			h.sendError(conn, "bad_message", err.Error())
			continue
		}

		h.dispatch(conn, event)
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := wsConn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one decoded event. The switch is exhaustive over the
// ClientEvent union; validation failures become directed responses and
// never take the connection down.
func (h *Handler) dispatch(conn *Connection, event ClientEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	switch ev := event.(type) {
	case JoinRoomEvent:
		if ev.UserID != "" && ev.UserID != conn.UserID {
			h.hub.SendTo(conn.ID, MsgJoinRoomError, errPayload("identity_mismatch", "userId does not match connection identity"))
			return
		}
		snapshot, err := h.roomSvc.Join(ctx, ev.RoomID, conn.UserID, conn.ID)
		if err != nil {
			h.hub.SendTo(conn.ID, MsgJoinRoomError, errPayload(errorCode(err), err.Error()))
			return
		}
		h.registry.SetRoom(conn.ID, ev.RoomID)
		h.hub.SendTo(conn.ID, MsgJoinRoomSuccess, map[string]string{
			"roomId": ev.RoomID,
			"userId": conn.UserID,
		})
		h.hub.SendTo(conn.ID, MsgRoomJoined, snapshot)

	case LeaveRoomEvent:
		h.roomSvc.Leave(ev.RoomID, conn.UserID, conn.ID)
		h.registry.ClearRoom(conn.ID)

	case BuzzerClickEvent:
		if !h.requireRoom(conn, ev.RoomID) {
			return
		}
		if err := h.buzzerSvc.Buzz(ctx, ev.RoomID, conn.UserID, ev.ClientStamp); err != nil {
			h.sendError(conn, errorCode(err), err.Error())
		}

	case SetBuzzerEvent:
		if err := h.buzzerSvc.SetState(ctx, ev.RoomID, conn.UserID, ev.Locked); err != nil {
			h.sendError(conn, errorCode(err), err.Error())
		}

	case UpdateTeamNameEvent:
		if !h.requireRoom(conn, ev.RoomID) {
			return
		}
		if err := h.teamSvc.RenameTeam(ctx, ev.RoomID, ev.TeamID, ev.NewName); err != nil {
			h.hub.SendTo(conn.ID, MsgUpdateTeamNameError, errPayload(errorCode(err), err.Error()))
			return
		}
		h.hub.SendTo(conn.ID, MsgUpdateTeamNameSuccess, map[string]string{
			"teamId":  ev.TeamID,
			"newName": ev.NewName,
		})

	case CreateTeamEvent:
		if !h.requireRoom(conn, ev.RoomID) {
			return
		}
		team, err := h.teamSvc.CreateTeam(ctx, ev.RoomID, ev.Name)
		if err != nil {
			h.sendError(conn, errorCode(err), err.Error())
			return
		}
		h.hub.SendTo(conn.ID, MsgCreateTeamSuccess, team)

	case DeleteTeamEvent:
		if !h.requireRoom(conn, ev.RoomID) {
			return
		}
		if err := h.teamSvc.DeleteTeam(ctx, ev.RoomID, ev.TeamID); err != nil {
			h.hub.SendTo(conn.ID, MsgDeleteTeamError, errPayload(errorCode(err), err.Error()))
			return
		}
		h.hub.SendTo(conn.ID, MsgDeleteTeamSuccess, map[string]string{"teamId": ev.TeamID})

	case AssignTeamEvent:
		if !h.requireRoom(conn, ev.RoomID) {
			return
		}
		if err := h.teamSvc.ReassignParticipant(ctx, ev.RoomID, ev.UserID, ev.TeamID); err != nil {
			h.sendError(conn, errorCode(err), err.Error())
		}

	case UpdateScoreEvent:
		if err := h.scoreSvc.UpdateScore(ctx, ev.RoomID, conn.UserID, ev.TeamID, ev.Delta); err != nil {
			h.sendError(conn, errorCode(err), err.Error())
		}

	case ChangeSlideEvent:
		if err := h.presSvc.ChangeSlide(ctx, ev.RoomID, conn.UserID, ev.Slide); err != nil {
			h.sendError(conn, errorCode(err), err.Error())
		}
	}
}

// requireRoom checks the connection has joined roomID; otherwise it
// sends a directed not_registered rejection.
func (h *Handler) requireRoom(conn *Connection, roomID string) bool {
	entry, ok := h.registry.Lookup(conn.ID)
	if !ok || entry.RoomID != roomID {
		h.sendError(conn, errorCode(model.ErrNotRegistered), model.ErrNotRegistered.Error())
		return false
	}
	return true
}

func (h *Handler) sendError(conn *Connection, code, message string) {
	h.hub.SendTo(conn.ID, MsgError, errPayload(code, message))
}

func errPayload(code, message string) map[string]string {
	return map[string]string{
		"code":    code,
		"message": message,
	}
}

// errorCode maps domain errors to stable client-visible codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, model.ErrNotRegistered):
		return "not_registered"
	case errors.Is(err, model.ErrRoomNotActive):
		return "room_not_active"
	case errors.Is(err, model.ErrNotAParticipant):
		return "not_a_participant"
	case errors.Is(err, model.ErrTeamNotFound):
		return "team_not_found"
	case errors.Is(err, model.ErrInvalidTeam):
		return "invalid_team"
	case errors.Is(err, model.ErrNotHost):
		return "not_host"
	case errors.Is(err, model.ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal_error"
	}
}
