package service

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"liveroom/internal/cache"
	"liveroom/internal/model"
	"liveroom/internal/repository"
)

// TeamService coordinates the team roster: create, rename, delete and
// participant reassignment. Every mutation runs inside the room's
// serial queue; delete and reassign additionally rely on atomic
// document updates so a roster can never reference a deleted team.
type TeamService struct {
	gameRepo    repository.GameRepo
	teamRepo    repository.TeamRepo
	scores      cache.ScoreCache
	dispatcher  *Dispatcher
	broadcaster Broadcaster
	clock       clockwork.Clock
}

// NewTeamService creates a new team service.
func NewTeamService(
	gameRepo repository.GameRepo,
	teamRepo repository.TeamRepo,
	scores cache.ScoreCache,
	dispatcher *Dispatcher,
	clock clockwork.Clock,
) *TeamService {
	return &TeamService{
		gameRepo:   gameRepo,
		teamRepo:   teamRepo,
		scores:     scores,
		dispatcher: dispatcher,
		clock:      clock,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events.
func (s *TeamService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// CreateTeam adds a team to the room. An empty name defaults to
// "Team N" with N = current team count + 1; two racing creations can
// both land on the same N, which is an accepted naming collision.
func (s *TeamService) CreateTeam(ctx context.Context, roomID, name string) (*model.Team, error) {
	var team *model.Team
	err := s.dispatcher.Do(ctx, roomID, func(ctx context.Context) error {
		if name == "" {
			game, err := s.gameRepo.GetByRoomID(ctx, roomID)
			if err != nil {
				return err
			}
			if game == nil {
				return model.ErrRoomNotActive
			}
			name = fmt.Sprintf("Team %d", len(game.Teams)+1)
		}

		now := s.clock.Now().UTC()
		team = &model.Team{
			ID:        primitive.NewObjectID().Hex(),
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.teamRepo.Create(ctx, team); err != nil {
			return err
		}
		if _, err := s.gameRepo.AddTeam(ctx, roomID, team.ID); err != nil {
			// Un-referenced team docs are invisible to clients; remove it
			// anyway so the collection does not accumulate strays.
			if delErr := s.teamRepo.Delete(ctx, team.ID); delErr != nil {
				log.Warn().Err(delErr).Str("team", team.ID).Msg("failed to remove stray team doc")
			}
			return err
		}

		if err := s.scores.SetScore(ctx, roomID, team.ID, 0); err != nil {
			log.Warn().Err(err).Str("room", roomID).Msg("score cache init failed")
		}

		s.broadcaster.BroadcastToRoom(roomID, "teamCreated", team)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// RenameTeam is last-writer-wins: no optimistic lock, but it fails
// with ErrTeamNotFound when the team was concurrently deleted.
func (s *TeamService) RenameTeam(ctx context.Context, roomID, teamID, newName string) error {
	return s.dispatcher.Do(ctx, roomID, func(ctx context.Context) error {
		game, err := s.gameRepo.GetByRoomID(ctx, roomID)
		if err != nil {
			return err
		}
		if game == nil {
			return model.ErrRoomNotActive
		}
		if !game.HasTeam(teamID) {
			return model.ErrTeamNotFound
		}

		if err := s.teamRepo.Rename(ctx, teamID, newName); err != nil {
			return err
		}

		s.broadcaster.BroadcastToRoom(roomID, "teamNameUpdated", map[string]string{
			"teamId":  teamID,
			"newName": newName,
		})
		return nil
	})
}

// DeleteTeam removes the team from the room and clears every
// participant reference to it in one atomic document update, then
// broadcasts the new roster and the deletion. On any failure the
// room's observable state is exactly what it was before.
func (s *TeamService) DeleteTeam(ctx context.Context, roomID, teamID string) error {
	return s.dispatcher.Do(ctx, roomID, func(ctx context.Context) error {
		game, err := s.gameRepo.RemoveTeam(ctx, roomID, teamID)
		if err != nil {
			return err
		}

		// The game document is consistent from here on; the team doc and
		// cache entry are unreachable, so their cleanup is best effort.
		if err := s.teamRepo.Delete(ctx, teamID); err != nil {
			log.Warn().Err(err).Str("team", teamID).Msg("failed to delete team doc")
		}
		if err := s.scores.RemoveTeam(ctx, roomID, teamID); err != nil {
			log.Warn().Err(err).Str("room", roomID).Msg("score cache cleanup failed")
		}

		s.broadcaster.BroadcastToRoom(roomID, "participantsUpdated", game.Participants)
		s.broadcaster.BroadcastToRoom(roomID, "teamDeleted", map[string]string{"teamId": teamID})
		log.Info().Str("room", roomID).Str("team", teamID).Msg("team deleted")
		return nil
	})
}

// ReassignParticipant moves a participant to teamID, or to no team
// when teamID is nil. The storage update is conditional on the target
// team still being live, so a racing delete cannot produce a dangling
// reference in either ordering.
func (s *TeamService) ReassignParticipant(ctx context.Context, roomID, userID string, teamID *string) error {
	return s.dispatcher.Do(ctx, roomID, func(ctx context.Context) error {
		game, err := s.gameRepo.GetByRoomID(ctx, roomID)
		if err != nil {
			return err
		}
		if game == nil {
			return model.ErrRoomNotActive
		}
		if !game.HasParticipant(userID) {
			return model.ErrNotAParticipant
		}
		if teamID != nil && !game.HasTeam(*teamID) {
			return model.ErrInvalidTeam
		}

		updated, err := s.gameRepo.AssignTeam(ctx, roomID, userID, teamID)
		if err != nil {
			return err
		}

		s.broadcaster.BroadcastToRoom(roomID, "participantsUpdated", updated.Participants)
		return nil
	})
}
