// internal/models/message.go
package models

// MessageType enumerates every event type the server pushes over a lobby
// socket.
type MessageType string

const (
	MessageHit         MessageType = "hit"
	MessageShot        MessageType = "shot"
	MessageGameOver    MessageType = "game_over"
	MessageMissedShot  MessageType = "missed_shot"
	MessageStartGame   MessageType = "start_game"
	MessageTimerReport MessageType = "timer_report"
	MessageJoin        MessageType = "join"
)

// Message is the wire envelope for every server push. Payload is one of the
// typed payload structs below, or absent (start_game).
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

// ShotHitPayload backs both "hit" (shooter team's view) and "shot" (target
// team's view). Each side only ever sees its own perspective.
type ShotHitPayload struct {
	TeamScore int    `json:"team_score"`
	TeamName  string `json:"team_name"`
	PlayerID  int    `json:"player_id"`
}

// GameOverPayload is the terminal event for a lobby; it is always the last
// message delivered before the sockets are closed.
type GameOverPayload struct {
	WinningTeamName  string `json:"winning_team_name"`
	WinningTeamScore int    `json:"winning_team_score"`
	LosingTeamName   string `json:"losing_team_name"`
	LosingTeamScore  int    `json:"losing_team_score"`
}

// MissedShotPayload goes to the requesting connection only, never the lobby.
type MissedShotPayload struct {
	ShooterID int `json:"shooter_id"`
}

// TimerReportPayload carries the seconds left in a running match.
type TimerReportPayload struct {
	TimeRemaining int `json:"time_remaining"`
}

// JoinedTeamPayload announces a new socket on a team.
type JoinedTeamPayload struct {
	UserName         string `json:"user_name"`
	TeamName         string `json:"team_name"`
	MembersRemaining int    `json:"members_remaining"`
	MaxMembers       int    `json:"max_members"`
}

// ClientFrame is the inbound shot attempt: a camera frame, the player taking
// the shot, and the color filter to mask the frame with.
type ClientFrame struct {
	Image  string `json:"image"`
	Player Player `json:"player"`
	Color  string `json:"color"`
}
