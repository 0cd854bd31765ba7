package service

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"liveroom/internal/cache"
	"liveroom/internal/model"
	"liveroom/internal/repository"
)

// BuzzerService runs the frozen/open buzzer state machine per room.
// Buzzes are ordered by server receipt: they pass through the room's
// serial queue, and the receipt timestamp is taken inside it, so the
// recorded order is the processing order regardless of what the
// clients' clocks claim.
type BuzzerService struct {
	roomRepo     repository.RoomRepo
	gameRepo     repository.GameRepo
	interactions cache.InteractionCache
	dispatcher   *Dispatcher
	broadcaster  Broadcaster
	clock        clockwork.Clock
	policy       model.BuzzPolicy
}

// NewBuzzerService creates a new buzzer service.
func NewBuzzerService(
	roomRepo repository.RoomRepo,
	gameRepo repository.GameRepo,
	interactions cache.InteractionCache,
	dispatcher *Dispatcher,
	clock clockwork.Clock,
	policy model.BuzzPolicy,
) *BuzzerService {
	return &BuzzerService{
		roomRepo:     roomRepo,
		gameRepo:     gameRepo,
		interactions: interactions,
		dispatcher:   dispatcher,
		clock:        clock,
		policy:       policy,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events.
func (s *BuzzerService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetState transitions the buzzer between frozen and open. Host only.
// Opening clears the latch.
func (s *BuzzerService) SetState(ctx context.Context, roomID, userID string, locked bool) error {
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

	status := model.BuzzerOpen
	if locked {
		status = model.BuzzerFrozen
	}

	return s.dispatcher.Do(ctx, roomID, func(ctx context.Context) error {
		if err := s.gameRepo.SetBuzzer(ctx, roomID, status, s.clock.Now().UTC()); err != nil {
			return err
		}
		s.broadcaster.BroadcastToRoom(roomID, "buzzerStateChange", locked)
		log.Info().Str("room", roomID).Bool("locked", locked).Msg("buzzer state changed")
		return nil
	})
}

// Buzz records one buzz attempt. While frozen (or already latched
// under the first-only policy) it is dropped silently: no state
// change, no broadcast. The interaction is appended to the unbounded
// store log, pushed into the bounded recent window and fanned out to
// the room.
func (s *BuzzerService) Buzz(ctx context.Context, roomID, userID string, clientStamp *time.Time) error {
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

		in := model.BuzzerInteraction{
			UserID:      userID,
			ReceivedAt:  s.clock.Now().UTC(),
			ClientStamp: clientStamp,
		}
		recorded, err := s.gameRepo.RecordInteraction(ctx, roomID, in, s.policy == model.BuzzPolicyFirst)
		if err != nil {
			return err
		}
		if !recorded {
			// Frozen or latched: reject without a broadcast.
			log.Debug().Str("room", roomID).Str("user", userID).Msg("buzz rejected")
			return nil
		}

		if err := s.interactions.Push(ctx, roomID, in); err != nil {
			log.Warn().Err(err).Str("room", roomID).Msg("interaction cache push failed")
		}

		s.broadcaster.BroadcastToRoom(roomID, "buzzerInteraction", in)
		return nil
	})
}
