package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"liveroom/internal/cache"
	"liveroom/internal/model"
)

// In-memory fakes mirroring the repository and cache semantics the
// services rely on, including the conditional-update behavior of the
// Mongo layer.

var errFakeStorage = errors.New("fake storage down")

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*model.Room
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[string]*model.Room)}
}

func (f *fakeRoomRepo) Create(_ context.Context, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := *room
	f.rooms[room.ID] = &r
	return nil
}

func (f *fakeRoomRepo) GetByID(_ context.Context, id string) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return nil, nil
	}
	r := *room
	return &r, nil
}

func (f *fakeRoomRepo) SetStatus(_ context.Context, id string, status model.RoomStatus, updatedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return model.ErrRoomNotActive
	}
	room.Status = status
	return nil
}

func (f *fakeRoomRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, id)
	return nil
}

type fakeGameRepo struct {
	mu         sync.Mutex
	games      map[string]*model.Game // keyed by room ID
	failCreate bool
	failOps    bool
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{games: make(map[string]*model.Game)}
}

func cloneGame(g *model.Game) *model.Game {
	c := *g
	c.Teams = append([]string(nil), g.Teams...)
	c.Participants = make([]model.Participant, len(g.Participants))
	for i, p := range g.Participants {
		c.Participants[i] = p
		if p.TeamID != nil {
			id := *p.TeamID
			c.Participants[i].TeamID = &id
		}
	}
	c.Scores = make(map[string]int, len(g.Scores))
	for k, v := range g.Scores {
		c.Scores[k] = v
	}
	c.Interactions = append([]model.BuzzerInteraction(nil), g.Interactions...)
	return &c
}

func (f *fakeGameRepo) get(roomID string) *model.Game {
	return f.games[roomID]
}

func (f *fakeGameRepo) Create(_ context.Context, game *model.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errFakeStorage
	}
	f.games[game.RoomID] = cloneGame(game)
	return nil
}

func (f *fakeGameRepo) GetByRoomID(_ context.Context, roomID string) (*model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.get(roomID)
	if g == nil {
		return nil, nil
	}
	return cloneGame(g), nil
}

func (f *fakeGameRepo) AddParticipant(_ context.Context, roomID, userID string) (*model.Game, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.get(roomID)
	if g == nil || g.HasParticipant(userID) {
		return nil, false, nil
	}
	g.Participants = append(g.Participants, model.Participant{UserID: userID, Active: true})
	return cloneGame(g), true, nil
}

func (f *fakeGameRepo) AddTeam(_ context.Context, roomID, teamID string) (*model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOps {
		return nil, errFakeStorage
	}
	g := f.get(roomID)
	if g == nil {
		return nil, model.ErrRoomNotActive
	}
	g.Teams = append(g.Teams, teamID)
	g.Scores[teamID] = 0
	return cloneGame(g), nil
}

func (f *fakeGameRepo) RemoveTeam(_ context.Context, roomID, teamID string) (*model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOps {
		return nil, errFakeStorage
	}
	g := f.get(roomID)
	if g == nil || !g.HasTeam(teamID) {
		return nil, model.ErrTeamNotFound
	}
	teams := g.Teams[:0]
	for _, id := range g.Teams {
		if id != teamID {
			teams = append(teams, id)
		}
	}
	g.Teams = teams
	for i := range g.Participants {
		if g.Participants[i].TeamID != nil && *g.Participants[i].TeamID == teamID {
			g.Participants[i].TeamID = nil
		}
	}
	delete(g.Scores, teamID)
	return cloneGame(g), nil
}

func (f *fakeGameRepo) AssignTeam(_ context.Context, roomID, userID string, teamID *string) (*model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.get(roomID)
	if g == nil || !g.HasParticipant(userID) {
		if teamID != nil {
			return nil, model.ErrInvalidTeam
		}
		return nil, model.ErrNotAParticipant
	}
	if teamID != nil && !g.HasTeam(*teamID) {
		return nil, model.ErrInvalidTeam
	}
	for i := range g.Participants {
		if g.Participants[i].UserID == userID {
			g.Participants[i].TeamID = teamID
		}
	}
	return cloneGame(g), nil
}

func (f *fakeGameRepo) SetBuzzer(_ context.Context, roomID string, status model.BuzzerStatus, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.get(roomID)
	if g == nil {
		return model.ErrRoomNotActive
	}
	g.Buzzer = model.Buzzer{Status: status, Latched: false, ChangedAt: at}
	return nil
}

func (f *fakeGameRepo) RecordInteraction(_ context.Context, roomID string, in model.BuzzerInteraction, firstOnly bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.get(roomID)
	if g == nil || g.Buzzer.Status != model.BuzzerOpen {
		return false, nil
	}
	if firstOnly && g.Buzzer.Latched {
		return false, nil
	}
	g.Interactions = append(g.Interactions, in)
	g.Buzzer.Latched = true
	return true, nil
}

func (f *fakeGameRepo) SetCurrentSlide(_ context.Context, roomID string, slide int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.get(roomID)
	if g == nil {
		return model.ErrRoomNotActive
	}
	g.CurrentSlide = slide
	return nil
}

func (f *fakeGameRepo) AddPoints(_ context.Context, roomID, teamID string, delta int) (*model.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.get(roomID)
	if g == nil || !g.HasTeam(teamID) {
		return nil, model.ErrTeamNotFound
	}
	g.Scores[teamID] += delta
	return cloneGame(g), nil
}

func (f *fakeGameRepo) DeleteByRoomID(_ context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.games, roomID)
	return nil
}

type fakeTeamRepo struct {
	mu    sync.Mutex
	teams map[string]*model.Team
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{teams: make(map[string]*model.Team)}
}

func (f *fakeTeamRepo) Create(_ context.Context, team *model.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := *team
	f.teams[team.ID] = &t
	return nil
}

func (f *fakeTeamRepo) GetByID(_ context.Context, id string) (*model.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	team, ok := f.teams[id]
	if !ok {
		return nil, nil
	}
	t := *team
	return &t, nil
}

func (f *fakeTeamRepo) GetByIDs(_ context.Context, ids []string) ([]model.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	teams := make([]model.Team, 0, len(ids))
	for _, id := range ids {
		if t, ok := f.teams[id]; ok {
			teams = append(teams, *t)
		}
	}
	return teams, nil
}

func (f *fakeTeamRepo) Rename(_ context.Context, id, newName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	team, ok := f.teams[id]
	if !ok {
		return model.ErrTeamNotFound
	}
	team.Name = newName
	return nil
}

func (f *fakeTeamRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.teams, id)
	return nil
}

type fakeInteractionCache struct {
	mu         sync.Mutex
	entries    map[string][]model.BuzzerInteraction // newest first
	window     int
	failRecent bool
}

func newFakeInteractionCache(window int) *fakeInteractionCache {
	return &fakeInteractionCache{
		entries: make(map[string][]model.BuzzerInteraction),
		window:  window,
	}
}

func (f *fakeInteractionCache) Push(_ context.Context, roomID string, in model.BuzzerInteraction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := append([]model.BuzzerInteraction{in}, f.entries[roomID]...)
	if len(entries) > f.window {
		entries = entries[:f.window]
	}
	f.entries[roomID] = entries
	return nil
}

func (f *fakeInteractionCache) Recent(_ context.Context, roomID string) ([]model.BuzzerInteraction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRecent {
		return nil, errFakeStorage
	}
	return append([]model.BuzzerInteraction(nil), f.entries[roomID]...), nil
}

func (f *fakeInteractionCache) Clear(_ context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, roomID)
	return nil
}

type fakeScoreCache struct {
	mu            sync.Mutex
	scores        map[string]map[string]int
	failStandings bool
}

func newFakeScoreCache() *fakeScoreCache {
	return &fakeScoreCache{scores: make(map[string]map[string]int)}
}

func (f *fakeScoreCache) room(roomID string) map[string]int {
	m, ok := f.scores[roomID]
	if !ok {
		m = make(map[string]int)
		f.scores[roomID] = m
	}
	return m
}

func (f *fakeScoreCache) SetScore(_ context.Context, roomID, teamID string, points int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.room(roomID)[teamID] = points
	return nil
}

func (f *fakeScoreCache) RemoveTeam(_ context.Context, roomID, teamID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.room(roomID), teamID)
	return nil
}

func (f *fakeScoreCache) Standings(_ context.Context, roomID string) ([]cache.StandingEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failStandings {
		return nil, errFakeStorage
	}
	entries := make([]cache.StandingEntry, 0, len(f.room(roomID)))
	for teamID, points := range f.room(roomID) {
		entries = append(entries, cache.StandingEntry{TeamID: teamID, Points: points})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].TeamID < entries[j].TeamID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (f *fakeScoreCache) Delete(_ context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scores, roomID)
	return nil
}

// fakeBroadcaster records group membership and every message so tests
// can assert on fan-out.
type broadcastRecord struct {
	RoomID  string
	Except  string
	Type    string
	Payload interface{}
}

type directRecord struct {
	ConnID  string
	Type    string
	Payload interface{}
}

type fakeBroadcaster struct {
	mu      sync.Mutex
	rooms   map[string]map[string]bool
	events  []broadcastRecord
	directs []directRecord
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{rooms: make(map[string]map[string]bool)}
}

func (f *fakeBroadcaster) AddToRoom(roomID, connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rooms[roomID] == nil {
		f.rooms[roomID] = make(map[string]bool)
	}
	f.rooms[roomID][connID] = true
}

func (f *fakeBroadcaster) RemoveFromRoom(roomID, connID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.rooms[roomID][connID] {
		return false
	}
	delete(f.rooms[roomID], connID)
	return true
}

func (f *fakeBroadcaster) BroadcastToRoom(roomID string, msgType string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, broadcastRecord{RoomID: roomID, Type: msgType, Payload: payload})
}

func (f *fakeBroadcaster) BroadcastToRoomExcept(roomID, exceptConnID string, msgType string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, broadcastRecord{RoomID: roomID, Except: exceptConnID, Type: msgType, Payload: payload})
}

func (f *fakeBroadcaster) SendTo(connID string, msgType string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.directs = append(f.directs, directRecord{ConnID: connID, Type: msgType, Payload: payload})
}

func (f *fakeBroadcaster) inRoom(roomID, connID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms[roomID][connID]
}

func (f *fakeBroadcaster) roomSize(roomID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rooms[roomID])
}

func (f *fakeBroadcaster) eventsOfType(msgType string) []broadcastRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []broadcastRecord
	for _, e := range f.events {
		if e.Type == msgType {
			out = append(out, e)
		}
	}
	return out
}
