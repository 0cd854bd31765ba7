package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"liveroom/internal/cache"
	"liveroom/internal/model"
	"liveroom/internal/repository"
)

// RoomService owns the room lifecycle and the live membership
// semantics: two-phase room+game creation, publish/archive, and the
// join/leave path with its atomically-captured snapshot.
type RoomService struct {
	roomRepo     repository.RoomRepo
	gameRepo     repository.GameRepo
	teamRepo     repository.TeamRepo
	interactions cache.InteractionCache
	scores       cache.ScoreCache
	dispatcher   *Dispatcher
	broadcaster  Broadcaster
	clock        clockwork.Clock
	joinTimeout  time.Duration
}

// NewRoomService creates a new room service.
func NewRoomService(
	roomRepo repository.RoomRepo,
	gameRepo repository.GameRepo,
	teamRepo repository.TeamRepo,
	interactions cache.InteractionCache,
	scores cache.ScoreCache,
	dispatcher *Dispatcher,
	clock clockwork.Clock,
	joinTimeout time.Duration,
) *RoomService {
	return &RoomService{
		roomRepo:     roomRepo,
		gameRepo:     gameRepo,
		teamRepo:     teamRepo,
		interactions: interactions,
		scores:       scores,
		dispatcher:   dispatcher,
		clock:        clock,
		joinTimeout:  joinTimeout,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events.
func (s *RoomService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// CreateRoomParams is the input for CreateRoom.
type CreateRoomParams struct {
	Name      string
	Type      model.RoomType
	StartsAt  time.Time
	ExpiresAt time.Time
	CreatedBy string
}

// CreateRoom creates the room and its game document together. If the
// second phase fails the room is deleted again, so the pair either
// exists whole or not at all.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (*model.Room, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("room name is required")
	}
	if !params.ExpiresAt.After(params.StartsAt) {
		return nil, fmt.Errorf("room window must end after it starts")
	}

	now := s.clock.Now().UTC()
	room := &model.Room{
		ID:         primitive.NewObjectID().Hex(),
		Name:       params.Name,
		Type:       params.Type,
		Status:     model.RoomDraft,
		StartsAt:   params.StartsAt,
		ExpiresAt:  params.ExpiresAt,
		AdminUsers: []string{params.CreatedBy},
		CreatedBy:  params.CreatedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	game := &model.Game{
		ID:           primitive.NewObjectID().Hex(),
		RoomID:       room.ID,
		Teams:        []string{},
		Participants: []model.Participant{},
		Scores:       map[string]int{},
		Buzzer: model.Buzzer{
			Status:    model.BuzzerFrozen,
			ChangedAt: now,
		},
		Interactions: []model.BuzzerInteraction{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.gameRepo.Create(ctx, game); err != nil {
		// Compensate so the room is not left orphaned.
		if delErr := s.roomRepo.Delete(ctx, room.ID); delErr != nil {
			log.Error().Err(delErr).Str("room", room.ID).
				Msg("failed to compensate orphaned room after game create failure")
		}
		return nil, fmt.Errorf("create game: %w", err)
	}

	log.Info().Str("room", room.ID).Str("host", params.CreatedBy).Msg("room created")
	return room, nil
}

// GetRoom retrieves a room by ID.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*model.Room, error) {
	return s.roomRepo.GetByID(ctx, roomID)
}

// Publish transitions the room to published, opening it for joins
// inside its scheduling window.
func (s *RoomService) Publish(ctx context.Context, roomID, userID string) error {
	return s.setStatus(ctx, roomID, userID, model.RoomPublished)
}

// Archive transitions the room to archived (terminal).
func (s *RoomService) Archive(ctx context.Context, roomID, userID string) error {
	return s.setStatus(ctx, roomID, userID, model.RoomArchived)
}

func (s *RoomService) setStatus(ctx context.Context, roomID, userID string, status model.RoomStatus) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return model.ErrRoomNotActive
	}
	if !room.IsAdmin(userID) {
		return model.ErrNotHost
	}
	if err := s.roomRepo.SetStatus(ctx, roomID, status, userID); err != nil {
		return err
	}

	// Archived is terminal: nothing will read the room's Redis state
	// again, so drop it now instead of waiting out the TTL.
	if status == model.RoomArchived {
		if err := s.interactions.Clear(ctx, roomID); err != nil {
			log.Warn().Err(err).Str("room", roomID).Msg("interaction cache cleanup failed")
		}
		if err := s.scores.Delete(ctx, roomID); err != nil {
			log.Warn().Err(err).Str("room", roomID).Msg("score cache cleanup failed")
		}
	}
	return nil
}

// AddParticipant registers a user as a session member. Idempotent:
// re-adding an existing participant is a no-op.
func (s *RoomService) AddParticipant(ctx context.Context, roomID, hostID, userID string) error {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if room == nil {
		return model.ErrRoomNotActive
	}
	if !room.IsAdmin(hostID) {
		return model.ErrNotHost
	}

	return s.dispatcher.Do(ctx, roomID, func(ctx context.Context) error {
		game, added, err := s.gameRepo.AddParticipant(ctx, roomID, userID)
		if err != nil {
			return err
		}
		if !added {
			// Already a member (or the game is gone, in which case the
			// room check above already reported the real problem).
			return nil
		}
		s.broadcaster.BroadcastToRoom(roomID, "participantsUpdated", game.Participants)
		return nil
	})
}

// ValidateJoin runs the join checks without any side effect. Used by
// the REST pre-join endpoint.
func (s *RoomService) ValidateJoin(ctx context.Context, roomID, userID string) (*model.Room, error) {
	room, _, err := s.validate(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	return room, nil
}

// Join validates the room and membership, then captures the snapshot
// and registers the connection in the broadcast group inside one
// serialized step, so the snapshot and subsequent broadcasts never
// overlap or leave a gap. Validation is bounded by the join timeout.
func (s *RoomService) Join(ctx context.Context, roomID, userID, connID string) (*model.RoomSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.joinTimeout)
	defer cancel()

	var snapshot *model.RoomSnapshot
	err := s.dispatcher.Do(ctx, roomID, func(ctx context.Context) error {
		_, game, err := s.validate(ctx, roomID, userID)
		if err != nil {
			return err
		}

		teams, err := s.teamRepo.GetByIDs(ctx, game.Teams)
		if err != nil {
			return err
		}

		recent, err := s.interactions.Recent(ctx, roomID)
		if err != nil {
			// The cache is an optimization; fall back to the tail of the
			// authoritative log.
			log.Warn().Err(err).Str("room", roomID).Msg("interaction cache read failed, using store tail")
			recent = recentFromLog(game.Interactions, 5)
		}

		snapshot = &model.RoomSnapshot{
			RoomID:             roomID,
			CurrentSlide:       game.CurrentSlide,
			BuzzerLocked:       game.Buzzer.Locked(),
			Teams:              teams,
			Participants:       game.Participants,
			Scores:             computeStandings(game, teams),
			RecentInteractions: recent,
		}

		// No suspension between snapshot capture and group registration.
		s.broadcaster.AddToRoom(roomID, connID)
		s.broadcaster.BroadcastToRoomExcept(roomID, connID, "userJoined", map[string]string{
			"userId": userID,
			"roomId": roomID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("room", roomID).Str("user", userID).Msg("user joined room")
	return snapshot, nil
}

// Leave removes the connection from the broadcast group. Safe to call
// repeatedly or for a room that was never joined: userLeft only goes
// out when the connection really was a member.
func (s *RoomService) Leave(roomID, userID, connID string) {
	if !s.broadcaster.RemoveFromRoom(roomID, connID) {
		return
	}
	s.broadcaster.BroadcastToRoom(roomID, "userLeft", map[string]string{
		"userId": userID,
		"roomId": roomID,
	})
	log.Info().Str("room", roomID).Str("user", userID).Msg("user left room")
}

func (s *RoomService) validate(ctx context.Context, roomID, userID string) (*model.Room, *model.Game, error) {
	room, err := s.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if room == nil || !room.ActiveAt(s.clock.Now()) {
		return nil, nil, model.ErrRoomNotActive
	}

	game, err := s.gameRepo.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	if game == nil {
		return nil, nil, model.ErrRoomNotActive
	}
	// The host of record joins without appearing on the roster.
	if !game.HasParticipant(userID) && !room.IsAdmin(userID) {
		return nil, nil, model.ErrNotAParticipant
	}
	return room, game, nil
}

// computeStandings ranks teams by points (descending, name as
// tiebreak) from the game document.
func computeStandings(game *model.Game, teams []model.Team) []model.TeamScore {
	names := make(map[string]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}

	standings := make([]model.TeamScore, 0, len(game.Teams))
	for _, teamID := range game.Teams {
		standings = append(standings, model.TeamScore{
			TeamID: teamID,
			Name:   names[teamID],
			Points: game.Scores[teamID],
		})
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Points != standings[j].Points {
			return standings[i].Points > standings[j].Points
		}
		return standings[i].Name < standings[j].Name
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

// recentFromLog returns the newest n entries of the append-only log,
// newest first, matching the cache's ordering.
func recentFromLog(interactions []model.BuzzerInteraction, n int) []model.BuzzerInteraction {
	recent := make([]model.BuzzerInteraction, 0, n)
	for i := len(interactions) - 1; i >= 0 && len(recent) < n; i-- {
		recent = append(recent, interactions[i])
	}
	return recent
}
