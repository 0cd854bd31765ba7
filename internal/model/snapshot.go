package model

// TeamScore is one row of the room's standings.
type TeamScore struct {
	TeamID string `json:"teamId"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Rank   int    `json:"rank"`
}

// RoomSnapshot is the full room state sent to a connection the moment
// it joins, captured in the same serialized step that registers the
// connection in the broadcast group so the client never misses or
// double-receives an event.
type RoomSnapshot struct {
	RoomID             string              `json:"roomId"`
	CurrentSlide       int                 `json:"currentSlide"`
	BuzzerLocked       bool                `json:"buzzerLocked"`
	Teams              []Team              `json:"teams"`
	Participants       []Participant       `json:"participants"`
	Scores             []TeamScore         `json:"scores"`
	RecentInteractions []BuzzerInteraction `json:"recentInteractions"`
}
