package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"liveroom/internal/model"
)

// GameRepo is the sole write path to the per-room game document.
// Invariant-preserving mutations (team removal, reassignment, buzz
// recording) are single atomic update expressions so a storage failure
// can never leave a partial write behind.
type GameRepo interface {
	Create(ctx context.Context, game *model.Game) error
	GetByRoomID(ctx context.Context, roomID string) (*model.Game, error)
	AddParticipant(ctx context.Context, roomID, userID string) (*model.Game, bool, error)
	AddTeam(ctx context.Context, roomID, teamID string) (*model.Game, error)
	RemoveTeam(ctx context.Context, roomID, teamID string) (*model.Game, error)
	AssignTeam(ctx context.Context, roomID, userID string, teamID *string) (*model.Game, error)
	SetBuzzer(ctx context.Context, roomID string, status model.BuzzerStatus, at time.Time) error
	RecordInteraction(ctx context.Context, roomID string, in model.BuzzerInteraction, firstOnly bool) (bool, error)
	SetCurrentSlide(ctx context.Context, roomID string, slide int) error
	AddPoints(ctx context.Context, roomID, teamID string, delta int) (*model.Game, error)
	DeleteByRoomID(ctx context.Context, roomID string) error
}

type gameRepo struct {
	collection *mongo.Collection
}

// NewGameRepo creates a new game repository.
func NewGameRepo(db *mongo.Database) GameRepo {
	return &gameRepo{
		collection: db.Collection("games"),
	}
}

func (r *gameRepo) Create(ctx context.Context, game *model.Game) error {
	if _, err := r.collection.InsertOne(ctx, game); err != nil {
		return fmt.Errorf("%w: insert game: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *gameRepo) GetByRoomID(ctx context.Context, roomID string) (*model.Game, error) {
	var game model.Game
	err := r.collection.FindOne(ctx, bson.M{"roomId": roomID}).Decode(&game)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Game not found
		}
		return nil, fmt.Errorf("%w: find game: %v", model.ErrStorageUnavailable, err)
	}
	return &game, nil
}

// AddParticipant appends userID to the roster unless already present.
// The second return is false when the guard filter matched nothing,
// i.e. the game is missing or the user is already a participant.
func (r *gameRepo) AddParticipant(ctx context.Context, roomID, userID string) (*model.Game, bool, error) {
	filter := bson.M{
		"roomId":             roomID,
		"participants.userId": bson.M{"$ne": userID},
	}
	update := bson.M{
		"$push": bson.M{"participants": model.Participant{UserID: userID, Active: true}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	game, err := r.findOneAndUpdate(ctx, filter, update, nil)
	if err != nil {
		return nil, false, err
	}
	if game == nil {
		return nil, false, nil
	}
	return game, true, nil
}

func (r *gameRepo) AddTeam(ctx context.Context, roomID, teamID string) (*model.Game, error) {
	filter := bson.M{"roomId": roomID}
	update := bson.M{
		"$push": bson.M{"teams": teamID},
		"$set": bson.M{
			"scores." + teamID: 0,
			"updatedAt":        time.Now().UTC(),
		},
	}
	game, err := r.findOneAndUpdate(ctx, filter, update, nil)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, model.ErrRoomNotActive
	}
	return game, nil
}

// RemoveTeam pulls the team from the team list, clears every
// participant reference to it and drops its score entry in one atomic
// document update, so no reader can observe a roster pointing at a
// deleted team.
func (r *gameRepo) RemoveTeam(ctx context.Context, roomID, teamID string) (*model.Game, error) {
	filter := bson.M{"roomId": roomID, "teams": teamID}
	update := bson.M{
		"$pull": bson.M{"teams": teamID},
		"$set": bson.M{
			"participants.$[assigned].teamId": nil,
			"updatedAt":                       time.Now().UTC(),
		},
		"$unset": bson.M{"scores." + teamID: ""},
	}
	arrayFilters := options.ArrayFilters{
		Filters: []interface{}{bson.M{"assigned.teamId": teamID}},
	}
	game, err := r.findOneAndUpdate(ctx, filter, update, &arrayFilters)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, model.ErrTeamNotFound
	}
	return game, nil
}

// AssignTeam moves a participant to teamID, or to no team when teamID
// is nil. The filter requires the target team to still be in the team
// list, which makes the check-and-set atomic against a concurrent
// delete.
func (r *gameRepo) AssignTeam(ctx context.Context, roomID, userID string, teamID *string) (*model.Game, error) {
	filter := bson.M{
		"roomId":              roomID,
		"participants.userId": userID,
	}
	if teamID != nil {
		filter["teams"] = *teamID
	}
	update := bson.M{
		"$set": bson.M{
			"participants.$[member].teamId": teamID,
			"updatedAt":                     time.Now().UTC(),
		},
	}
	arrayFilters := options.ArrayFilters{
		Filters: []interface{}{bson.M{"member.userId": userID}},
	}
	game, err := r.findOneAndUpdate(ctx, filter, update, &arrayFilters)
	if err != nil {
		return nil, err
	}
	if game == nil {
		if teamID != nil {
			return nil, model.ErrInvalidTeam
		}
		return nil, model.ErrNotAParticipant
	}
	return game, nil
}

func (r *gameRepo) SetBuzzer(ctx context.Context, roomID string, status model.BuzzerStatus, at time.Time) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"roomId": roomID},
		bson.M{"$set": bson.M{
			"buzzer.status":    status,
			"buzzer.latched":   false,
			"buzzer.changedAt": at,
			"updatedAt":        at,
		}},
	)
	if err != nil {
		return fmt.Errorf("%w: update buzzer: %v", model.ErrStorageUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return model.ErrRoomNotActive
	}
	return nil
}

// RecordInteraction appends a buzz iff the buzzer is open (and, under
// the first-only policy, not yet latched). Returns false without error
// when the buzz was not accepted.
func (r *gameRepo) RecordInteraction(ctx context.Context, roomID string, in model.BuzzerInteraction, firstOnly bool) (bool, error) {
	filter := bson.M{
		"roomId":        roomID,
		"buzzer.status": model.BuzzerOpen,
	}
	if firstOnly {
		filter["buzzer.latched"] = false
	}
	update := bson.M{
		"$push": bson.M{"interactions": in},
		"$set": bson.M{
			"buzzer.latched": true,
			"updatedAt":      in.ReceivedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("%w: record interaction: %v", model.ErrStorageUnavailable, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *gameRepo) SetCurrentSlide(ctx context.Context, roomID string, slide int) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"roomId": roomID},
		bson.M{"$set": bson.M{
			"currentSlide": slide,
			"updatedAt":    time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("%w: update slide: %v", model.ErrStorageUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return model.ErrRoomNotActive
	}
	return nil
}

func (r *gameRepo) AddPoints(ctx context.Context, roomID, teamID string, delta int) (*model.Game, error) {
	filter := bson.M{"roomId": roomID, "teams": teamID}
	update := bson.M{
		"$inc": bson.M{"scores." + teamID: delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	game, err := r.findOneAndUpdate(ctx, filter, update, nil)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, model.ErrTeamNotFound
	}
	return game, nil
}

func (r *gameRepo) DeleteByRoomID(ctx context.Context, roomID string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"roomId": roomID}); err != nil {
		return fmt.Errorf("%w: delete game: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}

// findOneAndUpdate runs the update and returns the post-image, or
// nil when the filter matched no document.
func (r *gameRepo) findOneAndUpdate(ctx context.Context, filter, update bson.M, arrayFilters *options.ArrayFilters) (*model.Game, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if arrayFilters != nil {
		opts = opts.SetArrayFilters(*arrayFilters)
	}

	var game model.Game
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&game)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: update game: %v", model.ErrStorageUnavailable, err)
	}
	return &game, nil
}
