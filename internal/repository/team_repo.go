package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"liveroom/internal/model"
)

type TeamRepo interface {
	Create(ctx context.Context, team *model.Team) error
	GetByID(ctx context.Context, id string) (*model.Team, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Team, error)
	Rename(ctx context.Context, id, newName string) error
	Delete(ctx context.Context, id string) error
}

type teamRepo struct {
	collection *mongo.Collection
}

// NewTeamRepo creates a new team repository.
func NewTeamRepo(db *mongo.Database) TeamRepo {
	return &teamRepo{
		collection: db.Collection("teams"),
	}
}

func (r *teamRepo) Create(ctx context.Context, team *model.Team) error {
	if _, err := r.collection.InsertOne(ctx, team); err != nil {
		return fmt.Errorf("%w: insert team: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *teamRepo) GetByID(ctx context.Context, id string) (*model.Team, error) {
	var team model.Team
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&team)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Team not found
		}
		return nil, fmt.Errorf("%w: find team: %v", model.ErrStorageUnavailable, err)
	}
	return &team, nil
}

func (r *teamRepo) GetByIDs(ctx context.Context, ids []string) ([]model.Team, error) {
	if len(ids) == 0 {
		return []model.Team{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("%w: find teams: %v", model.ErrStorageUnavailable, err)
	}
	defer cursor.Close(ctx)

	var teams []model.Team
	if err := cursor.All(ctx, &teams); err != nil {
		return nil, fmt.Errorf("%w: decode teams: %v", model.ErrStorageUnavailable, err)
	}

	// Keep the game document's ordering, not the cursor's.
	byID := make(map[string]model.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}
	ordered := make([]model.Team, 0, len(teams))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			ordered = append(ordered, t)
		}
	}
	return ordered, nil
}

// Rename is last-writer-wins; it fails only when the team is gone.
func (r *teamRepo) Rename(ctx context.Context, id, newName string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"name":      newName,
			"updatedAt": time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("%w: rename team: %v", model.ErrStorageUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return model.ErrTeamNotFound
	}
	return nil
}

func (r *teamRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("%w: delete team: %v", model.ErrStorageUnavailable, err)
	}
	return nil
}
