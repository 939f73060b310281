// internal/models/team.go
package models

// Team is one of the two competing groups in a lobby. The ID doubles as the
// display name. Both teams in a lobby share one marker shape; the color is the
// only per-team distinguishing attribute.
type Team struct {
	ID         string    `json:"id"`
	Score      int       `json:"score"`
	Color      string    `json:"color"`
	Shape      string    `json:"shape"`
	Hits       int       `json:"hits"`
	Misses     int       `json:"misses"`
	Shots      int       `json:"shots"`
	Players    []*Player `json:"players"`
	MaxPlayers int       `json:"max_players"`
}

// GetPlayer returns the member with the given user id, or nil if the user is
// not on this team.
func (t *Team) GetPlayer(userID int) *Player {
	for _, p := range t.Players {
		if p.ID == userID {
			return p
		}
	}
	return nil
}

// IsFull reports whether the team has reached its capacity.
func (t *Team) IsFull() bool {
	return len(t.Players) >= t.MaxPlayers
}
