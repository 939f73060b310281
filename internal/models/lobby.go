// internal/models/lobby.go
package models

import (
	"sync"
	"time"
)

// GameStatus is the lobby-level state machine. Transitions are one-way:
// not_started -> running -> game_over, each at most once.
type GameStatus string

const (
	StatusNotStarted GameStatus = "not_started"
	StatusRunning    GameStatus = "running"
	StatusGameOver   GameStatus = "game_over"
)

// Lobby is a single game session identified by a unique code, holding exactly
// two teams. TeamOrder preserves creation order so that tie resolution and
// balanced joins are deterministic (Go map iteration is not).
//
// Mu guards all mutable lobby state (teams, scores, status, budgets). The
// store and the scheduler both touch lobbies concurrently; scoping the mutex
// per lobby keeps unrelated lobbies from serializing each other.
type Lobby struct {
	Code          string              `json:"code"`
	Teams         map[string]*Team    `json:"teams"`
	TeamOrder     [2]string           `json:"-"`
	GameStatus    GameStatus          `json:"game_status"`
	TimeRemaining int                 `json:"time_remaining"`

	// InactivityBudget counts scheduler ticks a lobby may sit in not_started
	// before it is reclaimed. RetentionBudget counts ticks a finished lobby
	// stays readable for spectator polling before deletion.
	InactivityBudget int `json:"-"`
	RetentionBudget  int `json:"-"`

	Mu sync.Mutex `json:"-"`
}

// TeamA returns the first-created team. Callers must hold Mu.
func (l *Lobby) TeamA() *Team { return l.Teams[l.TeamOrder[0]] }

// TeamB returns the second-created team. Callers must hold Mu.
func (l *Lobby) TeamB() *Team { return l.Teams[l.TeamOrder[1]] }

// ActiveMatch is the scheduler-owned record of a running match. It exists
// only while the lobby status is running.
type ActiveMatch struct {
	LobbyCode string
	StartTime time.Time
	Duration  time.Duration
}

// Remaining computes the match time left at the given instant.
func (m *ActiveMatch) Remaining(now time.Time) time.Duration {
	return m.Duration - now.Sub(m.StartTime)
}
