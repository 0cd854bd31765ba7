package model

import "time"

type BuzzerStatus string

const (
	BuzzerFrozen BuzzerStatus = "frozen"
	BuzzerOpen   BuzzerStatus = "open"
)

// BuzzPolicy decides what happens to buzzes after the first one while
// the buzzer is open.
type BuzzPolicy string

const (
	// BuzzPolicyQueue records every buzz as a ranked queue in receipt order.
	BuzzPolicyQueue BuzzPolicy = "queue"
	// BuzzPolicyFirst latches on the first buzz and ignores the rest until
	// the host re-opens.
	BuzzPolicyFirst BuzzPolicy = "first"
)

// Buzzer is the per-room buzzer sub-state.
type Buzzer struct {
	Status    BuzzerStatus `json:"status" bson:"status"`
	Latched   bool         `json:"latched" bson:"latched"`
	ChangedAt time.Time    `json:"changedAt" bson:"changedAt"`
}

// Locked is the client-facing view of the buzzer: participants may buzz
// only while unlocked.
func (b Buzzer) Locked() bool {
	return b.Status != BuzzerOpen
}

// Participant is a session member with an optional team assignment.
type Participant struct {
	UserID string  `json:"userId" bson:"userId"`
	TeamID *string `json:"teamId" bson:"teamId,omitempty"`
	Active bool    `json:"active" bson:"active"`
}

// BuzzerInteraction is one accepted buzz. ReceivedAt is the server
// receipt time and is the canonical ordering key; ClientStamp is the
// untrusted client-side timestamp, kept for display only.
type BuzzerInteraction struct {
	UserID      string     `json:"userId" bson:"userId"`
	ReceivedAt  time.Time  `json:"receivedAt" bson:"receivedAt"`
	ClientStamp *time.Time `json:"clientStamp,omitempty" bson:"clientStamp,omitempty"`
}

// Game is the live session document for a room: slide pointer, roster,
// scores, buzzer state and the append-only interaction log. The
// coordination layer is its sole writer.
type Game struct {
	ID           string              `json:"id" bson:"_id,omitempty"`
	RoomID       string              `json:"roomId" bson:"roomId"`
	CurrentSlide int                 `json:"currentSlide" bson:"currentSlide"`
	Teams        []string            `json:"teams" bson:"teams"`
	Participants []Participant       `json:"participants" bson:"participants"`
	Scores       map[string]int      `json:"scores" bson:"scores"`
	Buzzer       Buzzer              `json:"buzzer" bson:"buzzer"`
	Interactions []BuzzerInteraction `json:"interactions" bson:"interactions"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// HasParticipant reports whether userID is a member of the session.
func (g *Game) HasParticipant(userID string) bool {
	for _, p := range g.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// HasTeam reports whether teamID is in the room's team list.
func (g *Game) HasTeam(teamID string) bool {
	for _, id := range g.Teams {
		if id == teamID {
			return true
		}
	}
	return false
}
