// internal/lobby/details.go
package lobby

import "github.com/lasershot/lasershot/internal/models"

// Details is the spectator-facing snapshot of a lobby, shaped for the
// details endpoint.
type Details struct {
	Code          string            `json:"code"`
	Colors        [2]string         `json:"colors"`
	Shape         string            `json:"shape"`
	Teams         []models.Team     `json:"teams"`
	GameStatus    models.GameStatus `json:"game_status"`
	TimeRemaining int               `json:"time_remaining"`
}

// Details builds a deep snapshot of the lobby. While a match is active the
// time remaining is overlaid from the live match clock rather than the last
// scheduler write, so spectator polls between ticks stay accurate.
func (s *Store) Details(code string) (Details, bool) {
	lob, ok := s.get(code)
	if !ok {
		return Details{}, false
	}

	remaining, active := -1, false
	if m, running := s.Active(code); running {
		remaining = int(m.Remaining(s.Now()).Seconds())
		active = true
	}

	lob.Mu.Lock()
	defer lob.Mu.Unlock()
	teamA, teamB := lob.TeamA(), lob.TeamB()
	d := Details{
		Code:          lob.Code,
		Colors:        [2]string{teamA.Color, teamB.Color},
		Shape:         teamA.Shape,
		Teams:         []models.Team{snapshotTeam(teamA), snapshotTeam(teamB)},
		GameStatus:    lob.GameStatus,
		TimeRemaining: lob.TimeRemaining,
	}
	if active {
		d.TimeRemaining = remaining
	}
	return d, true
}
