package service

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"liveroom/internal/model"
)

// Fixed instant all service tests run at; rooms are seeded with a
// window around it.
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	rooms      *fakeRoomRepo
	games      *fakeGameRepo
	teams      *fakeTeamRepo
	inter      *fakeInteractionCache
	scores     *fakeScoreCache
	bcast      *fakeBroadcaster
	dispatcher *Dispatcher
	clock      *clockwork.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		rooms:      newFakeRoomRepo(),
		games:      newFakeGameRepo(),
		teams:      newFakeTeamRepo(),
		inter:      newFakeInteractionCache(5),
		scores:     newFakeScoreCache(),
		bcast:      newFakeBroadcaster(),
		dispatcher: NewDispatcher(),
		clock:      clockwork.NewFakeClockAt(testNow),
	}
	t.Cleanup(env.dispatcher.Close)
	return env
}

// seedRoom stores a published room with a one-hour window on either
// side of testNow, hosted by hostID.
func (e *testEnv) seedRoom(roomID, hostID string) *model.Room {
	room := &model.Room{
		ID:         roomID,
		Name:       "Quiz Night",
		Type:       model.RoomTypeGame,
		Status:     model.RoomPublished,
		StartsAt:   testNow.Add(-time.Hour),
		ExpiresAt:  testNow.Add(time.Hour),
		AdminUsers: []string{hostID},
		CreatedBy:  hostID,
		CreatedAt:  testNow,
		UpdatedAt:  testNow,
	}
	e.rooms.rooms[roomID] = room
	return room
}

// seedGame stores a game document for roomID with the given teams and
// participants. Scores start at zero and the buzzer starts frozen.
func (e *testEnv) seedGame(roomID string, teams []string, participants []model.Participant) *model.Game {
	scores := make(map[string]int, len(teams))
	for _, id := range teams {
		scores[id] = 0
	}
	game := &model.Game{
		ID:           "game-" + roomID,
		RoomID:       roomID,
		Teams:        teams,
		Participants: participants,
		Scores:       scores,
		Buzzer:       model.Buzzer{Status: model.BuzzerFrozen, ChangedAt: testNow},
		Interactions: []model.BuzzerInteraction{},
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	e.games.games[roomID] = game
	return game
}

func (e *testEnv) seedTeam(id, name string) *model.Team {
	team := &model.Team{ID: id, Name: name, CreatedAt: testNow, UpdatedAt: testNow}
	e.teams.teams[id] = team
	return team
}

func member(userID string) model.Participant {
	return model.Participant{UserID: userID, Active: true}
}

func memberOf(userID, teamID string) model.Participant {
	return model.Participant{UserID: userID, TeamID: &teamID, Active: true}
}

func newTestClockAt(at time.Time) *clockwork.FakeClock {
	return clockwork.NewFakeClockAt(at)
}

func strPtr(s string) *string { return &s }
