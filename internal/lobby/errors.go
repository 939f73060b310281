// internal/lobby/errors.go
package lobby

import "errors"

var (
	ErrLobbyNotFound    = errors.New("lobby not found")
	ErrTeamNotFound     = errors.New("team not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrLobbyFull        = errors.New("lobby is full")
	ErrInvalidLobbySize = errors.New("lobby size must be an even number of at least 2")
	ErrMatchOver        = errors.New("match is over")
)
