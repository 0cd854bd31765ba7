package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"liveroom/internal/model"
)

type RoomRepo interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	SetStatus(ctx context.Context, id string, status model.RoomStatus, updatedBy string) error
	Delete(ctx context.Context, id string) error
}

type roomRepo struct {
	collection *mongo.Collection
}

// NewRoomRepo creates a new room repository.
func NewRoomRepo(db *mongo.Database) RoomRepo {
	return &roomRepo{
		collection: db.Collection("rooms"),
	}
}

func (r *roomRepo) Create(ctx context.Context, room *model.Room) error {
	if _, err := r.collection.InsertOne(ctx, room); err != nil {
		return fmt.Errorf("%w: insert room: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *roomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Room not found
		}
		return nil, fmt.Errorf("%w: find room: %v", model.ErrStorageUnavailable, err)
	}
	return &room, nil
}

func (r *roomRepo) SetStatus(ctx context.Context, id string, status model.RoomStatus, updatedBy string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":    status,
			"updatedBy": updatedBy,
			"updatedAt": time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("%w: update room status: %v", model.ErrStorageUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return model.ErrRoomNotActive
	}
	return nil
}

func (r *roomRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("%w: delete room: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}
