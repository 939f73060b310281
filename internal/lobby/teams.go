// internal/lobby/teams.go
package lobby

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/lasershot/lasershot/internal/models"
)

// Colors a team marker can be painted. Each maps to an HSV mask range in the
// vision package.
var Colors = []string{"red", "blue", "green", "yellow", "purple", "orange"}

// Shapes a team marker can take.
var Shapes = []string{"circle", "square", "triangle", "rectangle"}

// ShapeCycle hands out marker shapes round-robin across lobbies so
// consecutive lobbies in one venue do not all hunt the same shape. It is
// explicit state owned by the store, not a package global.
type ShapeCycle struct {
	mu  sync.Mutex
	idx int
}

// Next returns the next shape in rotation.
func (c *ShapeCycle) Next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	shape := Shapes[c.idx%len(Shapes)]
	c.idx++
	return shape
}

// teamName builds the display identifier, e.g. "Team_Red_Circle".
func teamName(color, shape string) string {
	return "Team_" + capitalize(color) + "_" + capitalize(shape)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// newTeamPair creates the two teams of a lobby: one shared shape, two
// distinct colors drawn at random, equal capacity.
func newTeamPair(rng *rand.Rand, cycle *ShapeCycle, capacity int) (*models.Team, *models.Team) {
	shape := cycle.Next()
	perm := rng.Perm(len(Colors))
	colorA, colorB := Colors[perm[0]], Colors[perm[1]]

	teamA := &models.Team{
		ID:         teamName(colorA, shape),
		Color:      colorA,
		Shape:      shape,
		Players:    []*models.Player{},
		MaxPlayers: capacity,
	}
	teamB := &models.Team{
		ID:         teamName(colorB, shape),
		Color:      colorB,
		Shape:      shape,
		Players:    []*models.Player{},
		MaxPlayers: capacity,
	}
	return teamA, teamB
}
