package model

import "time"

// Team is referenced from a game's team list. Deletion is terminal:
// the game document is updated first so no roster ever points at a
// removed team.
type Team struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Name      string    `json:"name" bson:"name"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
