package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, msgType, payload string) ClientEvent {
	t.Helper()
	ev, err := ParseClientEvent(&Message{Type: msgType, Payload: json.RawMessage(payload)})
	require.NoError(t, err)
	return ev
}

func TestParseClientEvent(t *testing.T) {
	ev := parse(t, MsgJoinRoom, `{"roomId":"r1","userId":"alice"}`)
	assert.Equal(t, JoinRoomEvent{RoomID: "r1", UserID: "alice"}, ev)

	ev = parse(t, MsgLeaveRoom, `{"roomId":"r1","userId":"alice"}`)
	assert.Equal(t, LeaveRoomEvent{RoomID: "r1", UserID: "alice"}, ev)

	ev = parse(t, MsgSetBuzzer, `{"roomId":"r1","locked":true}`)
	assert.Equal(t, SetBuzzerEvent{RoomID: "r1", Locked: true}, ev)

	ev = parse(t, MsgUpdateTeamName, `{"roomId":"r1","teamId":"t1","newName":"Owls"}`)
	assert.Equal(t, UpdateTeamNameEvent{RoomID: "r1", TeamID: "t1", NewName: "Owls"}, ev)

	ev = parse(t, MsgCreateTeam, `{"roomId":"r1"}`)
	assert.Equal(t, CreateTeamEvent{RoomID: "r1"}, ev)

	ev = parse(t, MsgDeleteTeam, `{"roomId":"r1","teamId":"t1"}`)
	assert.Equal(t, DeleteTeamEvent{RoomID: "r1", TeamID: "t1"}, ev)

	ev = parse(t, MsgUpdateScore, `{"roomId":"r1","teamId":"t1","delta":-3}`)
	assert.Equal(t, UpdateScoreEvent{RoomID: "r1", TeamID: "t1", Delta: -3}, ev)

	ev = parse(t, MsgChangeSlide, `{"roomId":"r1","slide":9}`)
	assert.Equal(t, ChangeSlideEvent{RoomID: "r1", Slide: 9}, ev)
}

func TestParseBuzzerClickClientStampIsOptional(t *testing.T) {
	ev := parse(t, MsgBuzzerClick, `{"roomId":"r1"}`)
	click, ok := ev.(BuzzerClickEvent)
	require.True(t, ok)
	assert.Nil(t, click.ClientStamp)

	ev = parse(t, MsgBuzzerClick, `{"roomId":"r1","clientStamp":"2026-03-01T12:00:00Z"}`)
	click, ok = ev.(BuzzerClickEvent)
	require.True(t, ok)
	require.NotNil(t, click.ClientStamp)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), click.ClientStamp.UTC())
}

func TestParseAssignTeamNullMeansNoTeam(t *testing.T) {
	ev := parse(t, MsgAssignTeam, `{"roomId":"r1","userId":"alice","teamId":"t1"}`)
	assign, ok := ev.(AssignTeamEvent)
	require.True(t, ok)
	require.NotNil(t, assign.TeamID)
	assert.Equal(t, "t1", *assign.TeamID)

	ev = parse(t, MsgAssignTeam, `{"roomId":"r1","userId":"alice","teamId":null}`)
	assign, ok = ev.(AssignTeamEvent)
	require.True(t, ok)
	assert.Nil(t, assign.TeamID)
}

func TestParseClientEventRejectsUnknownType(t *testing.T) {
	_, err := ParseClientEvent(&Message{Type: "selfDestruct", Payload: json.RawMessage(`{}`)})
	assert.Error(t, err)

	// Server-to-client names are not valid inbound types.
	_, err = ParseClientEvent(&Message{Type: MsgRoomJoined, Payload: json.RawMessage(`{}`)})
	assert.Error(t, err)
}

func TestParseClientEventRejectsMalformedPayload(t *testing.T) {
	_, err := ParseClientEvent(&Message{Type: MsgJoinRoom, Payload: json.RawMessage(`"not-an-object"`)})
	assert.Error(t, err)

	_, err = ParseClientEvent(&Message{Type: MsgChangeSlide, Payload: json.RawMessage(`{"slide":"nine"}`)})
	assert.Error(t, err)
}
