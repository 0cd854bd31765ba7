package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"liveroom/internal/cache"
	"liveroom/internal/model"
	"liveroom/internal/repository"
)

// ScoreService applies host score adjustments and broadcasts the
// resulting standings. The game document is authoritative; the Redis
// sorted set mirrors it for cheap ranked reads and is rebuilt from the
// document whenever they disagree.
type ScoreService struct {
	roomRepo    repository.RoomRepo
	gameRepo    repository.GameRepo
	teamRepo    repository.TeamRepo
	scores      cache.ScoreCache
	dispatcher  *Dispatcher
	broadcaster Broadcaster
}

// NewScoreService creates a new score service.
func NewScoreService(
	roomRepo repository.RoomRepo,
	gameRepo repository.GameRepo,
	teamRepo repository.TeamRepo,
	scores cache.ScoreCache,
	dispatcher *Dispatcher,
) *ScoreService {
	return &ScoreService{
		roomRepo:   roomRepo,
		gameRepo:   gameRepo,
		teamRepo:   teamRepo,
		scores:     scores,
		dispatcher: dispatcher,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events.
func (s *ScoreService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// UpdateScore adds delta to a team's score. Host only.
func (s *ScoreService) UpdateScore(ctx context.Context, roomID, userID, teamID string, delta int) error {
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

	return s.dispatcher.Do(ctx, roomID, func(ctx context.Context) error {
		game, err := s.gameRepo.AddPoints(ctx, roomID, teamID, delta)
		if err != nil {
			return err
		}

		// Keep the cache in step within the same critical section that
		// performed the write.
		if err := s.scores.SetScore(ctx, roomID, teamID, game.Scores[teamID]); err != nil {
			log.Warn().Err(err).Str("room", roomID).Msg("score cache update failed")
		}

		teams, err := s.teamRepo.GetByIDs(ctx, game.Teams)
		if err != nil {
			return err
		}
		s.broadcaster.BroadcastToRoom(roomID, "scoresUpdate", computeStandings(game, teams))
		return nil
	})
}

// Standings returns the room's current ranked scores, served from the
// sorted-set mirror when it is warm. The game document stays
// authoritative: a cold or unreachable cache falls through to it.
func (s *ScoreService) Standings(ctx context.Context, roomID string) ([]model.TeamScore, error) {
	entries, err := s.scores.Standings(ctx, roomID)
	if err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("score cache read failed, using document")
	} else if len(entries) > 0 {
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.TeamID
		}
		teams, err := s.teamRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		names := make(map[string]string, len(teams))
		for _, t := range teams {
			names[t.ID] = t.Name
		}
		standings := make([]model.TeamScore, len(entries))
		for i, e := range entries {
			standings[i] = model.TeamScore{
				TeamID: e.TeamID,
				Name:   names[e.TeamID],
				Points: e.Points,
				Rank:   e.Rank,
			}
		}
		return standings, nil
	}

	return s.standingsFromStore(ctx, roomID)
}

func (s *ScoreService) standingsFromStore(ctx context.Context, roomID string) ([]model.TeamScore, error) {
	game, err := s.gameRepo.GetByRoomID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, model.ErrRoomNotActive
	}
	teams, err := s.teamRepo.GetByIDs(ctx, game.Teams)
	if err != nil {
		return nil, err
	}
	return computeStandings(game, teams), nil
}
