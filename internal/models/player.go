// internal/models/player.go
package models

// Player is a member of a team in a lobby. Identity is the numeric id;
// two Player values are the same player iff their IDs match.
type Player struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	TeamID string `json:"team_id"`
	Hits   int    `json:"hits"`
}
