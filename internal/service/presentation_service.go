package service

import (
	"context"

	"liveroom/internal/model"
	"liveroom/internal/repository"
)

// PresentationService is a thin relay for slide pointer changes: the
// content itself lives in an external store, the coordination layer
// only verifies the sender is the host of record, persists the pointer
// and fans the change out to the room.
type PresentationService struct {
	roomRepo    repository.RoomRepo
	gameRepo    repository.GameRepo
	dispatcher  *Dispatcher
	broadcaster Broadcaster
}

// NewPresentationService creates a new presentation service.
func NewPresentationService(
	roomRepo repository.RoomRepo,
	gameRepo repository.GameRepo,
	dispatcher *Dispatcher,
) *PresentationService {
	return &PresentationService{
		roomRepo:   roomRepo,
		gameRepo:   gameRepo,
		dispatcher: dispatcher,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events.
func (s *PresentationService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// ChangeSlide moves the room's slide pointer and broadcasts the new
// position.
func (s *PresentationService) ChangeSlide(ctx context.Context, roomID, userID string, slide int) error {
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
		if err := s.gameRepo.SetCurrentSlide(ctx, roomID, slide); err != nil {
			return err
		}
		s.broadcaster.BroadcastToRoom(roomID, "presentationUpdate", map[string]int{"slide": slide})
		return nil
	})
}
