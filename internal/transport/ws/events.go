package ws

import (
	"encoding/json"
	"fmt"
	"time"
)

// Client → server message types.
const (
	MsgJoinRoom       = "joinRoom"
	MsgLeaveRoom      = "leaveRoom"
	MsgBuzzerClick    = "buzzerClick"
	MsgSetBuzzer      = "setBuzzer"
	MsgUpdateTeamName = "updateTeamName"
	MsgCreateTeam     = "createTeam"
	MsgDeleteTeam     = "deleteTeam"
	MsgAssignTeam     = "assignTeam"
	MsgUpdateScore    = "updateScore"
	MsgChangeSlide    = "changeSlide"
)

// Server → client message types. Broadcast names double as the events
// services emit through the Broadcaster; the rest are directed
// acknowledgments sent only to the requester.
const (
	MsgJoinRoomSuccess       = "joinRoomSuccess"
	MsgJoinRoomError         = "joinRoomError"
	MsgRoomJoined            = "roomJoined"
	MsgUserJoined            = "userJoined"
	MsgUserLeft              = "userLeft"
	MsgBuzzerStateChange     = "buzzerStateChange"
	MsgBuzzerInteraction     = "buzzerInteraction"
	MsgTeamCreated           = "teamCreated"
	MsgCreateTeamSuccess     = "createTeamSuccess"
	MsgTeamNameUpdated       = "teamNameUpdated"
	MsgUpdateTeamNameSuccess = "updateTeamNameSuccess"
	MsgUpdateTeamNameError   = "updateTeamNameError"
	MsgTeamDeleted           = "teamDeleted"
	MsgDeleteTeamSuccess     = "deleteTeamSuccess"
	MsgDeleteTeamError       = "deleteTeamError"
	MsgParticipantsUpdated   = "participantsUpdated"
	MsgScoresUpdate          = "scoresUpdate"
	MsgPresentationUpdate    = "presentationUpdate"
	MsgError                 = "error"
)

// ClientEvent is the closed union of messages a client may send.
// ParseClientEvent is the only constructor, so the dispatcher's type
// switch covers every kind by construction.
type ClientEvent interface {
	clientEvent()
}

type JoinRoomEvent struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

type LeaveRoomEvent struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

type BuzzerClickEvent struct {
	RoomID      string     `json:"roomId"`
	ClientStamp *time.Time `json:"clientStamp,omitempty"`
}

type SetBuzzerEvent struct {
	RoomID string `json:"roomId"`
	Locked bool   `json:"locked"`
}

type UpdateTeamNameEvent struct {
	RoomID  string `json:"roomId"`
	TeamID  string `json:"teamId"`
	NewName string `json:"newName"`
}

type CreateTeamEvent struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name,omitempty"`
}

type DeleteTeamEvent struct {
	RoomID string `json:"roomId"`
	TeamID string `json:"teamId"`
}

type AssignTeamEvent struct {
	RoomID string  `json:"roomId"`
	UserID string  `json:"userId"`
	TeamID *string `json:"teamId"` // null means "no team"
}

type UpdateScoreEvent struct {
	RoomID string `json:"roomId"`
	TeamID string `json:"teamId"`
	Delta  int    `json:"delta"`
}

type ChangeSlideEvent struct {
	RoomID string `json:"roomId"`
	Slide  int    `json:"slide"`
}

func (JoinRoomEvent) clientEvent()       {}
func (LeaveRoomEvent) clientEvent()      {}
func (BuzzerClickEvent) clientEvent()    {}
func (SetBuzzerEvent) clientEvent()      {}
func (UpdateTeamNameEvent) clientEvent() {}
func (CreateTeamEvent) clientEvent()     {}
func (DeleteTeamEvent) clientEvent()     {}
func (AssignTeamEvent) clientEvent()     {}
func (UpdateScoreEvent) clientEvent()    {}
func (ChangeSlideEvent) clientEvent()    {}

// ParseClientEvent decodes an envelope into its typed event.
func ParseClientEvent(msg *Message) (ClientEvent, error) {
	switch msg.Type {
	case MsgJoinRoom:
		return decode[JoinRoomEvent](msg.Payload)
	case MsgLeaveRoom:
		return decode[LeaveRoomEvent](msg.Payload)
	case MsgBuzzerClick:
		return decode[BuzzerClickEvent](msg.Payload)
	case MsgSetBuzzer:
		return decode[SetBuzzerEvent](msg.Payload)
	case MsgUpdateTeamName:
		return decode[UpdateTeamNameEvent](msg.Payload)
	case MsgCreateTeam:
		return decode[CreateTeamEvent](msg.Payload)
	case MsgDeleteTeam:
		return decode[DeleteTeamEvent](msg.Payload)
	case MsgAssignTeam:
		return decode[AssignTeamEvent](msg.Payload)
	case MsgUpdateScore:
		return decode[UpdateScoreEvent](msg.Payload)
	case MsgChangeSlide:
		return decode[ChangeSlideEvent](msg.Payload)
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
}

func decode[E ClientEvent](payload json.RawMessage) (ClientEvent, error) {
	var ev E
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode %T: %w", ev, err)
	}
	return ev, nil
}
