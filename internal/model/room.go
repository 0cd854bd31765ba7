package model

import "time"

type RoomStatus string

const (
	RoomDraft     RoomStatus = "draft"
	RoomPublished RoomStatus = "published"
	RoomArchived  RoomStatus = "archived"
)

type RoomType string

const (
	RoomTypeVote RoomType = "vote"
	RoomTypeGame RoomType = "game"
)

// Room is a scheduled event container owned by a host. The coordination
// layer reads it for status and window checks; only the REST surface
// mutates it.
type Room struct {
	ID         string     `json:"id" bson:"_id,omitempty"`
	Name       string     `json:"name" bson:"name"`
	Type       RoomType   `json:"type" bson:"type"`
	Status     RoomStatus `json:"status" bson:"status"`
	StartsAt   time.Time  `json:"startsAt" bson:"startsAt"`
	ExpiresAt  time.Time  `json:"expiresAt" bson:"expiresAt"`
	AdminUsers []string   `json:"adminUsers" bson:"adminUsers"`
	CreatedBy  string     `json:"createdBy" bson:"createdBy"`
	CreatedAt  time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// ActiveAt reports whether the room accepts joins at t: it must be
// published and t must fall inside [StartsAt, ExpiresAt).
func (r *Room) ActiveAt(t time.Time) bool {
	if r.Status != RoomPublished {
		return false
	}
	return !t.Before(r.StartsAt) && t.Before(r.ExpiresAt)
}

// IsAdmin reports whether userID is the host of record for this room.
func (r *Room) IsAdmin(userID string) bool {
	if userID == r.CreatedBy {
		return true
	}
	for _, id := range r.AdminUsers {
		if id == userID {
			return true
		}
	}
	return false
}
