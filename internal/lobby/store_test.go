// internal/lobby/store_test.go
package lobby

import (
	"math/rand"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lasershot/lasershot/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return NewStore(log)
}

func TestCreateLobby(t *testing.T) {
	s := newTestStore(t)

	lob, err := s.CreateLobby(4)
	require.NoError(t, err)
	require.Len(t, lob.Code, CodeLength)
	require.Len(t, lob.Teams, 2)

	teamA, teamB := lob.TeamA(), lob.TeamB()
	assert.Equal(t, 2, teamA.MaxPlayers)
	assert.Equal(t, 2, teamB.MaxPlayers)
	assert.Equal(t, teamA.Shape, teamB.Shape, "teams share one marker shape")
	assert.NotEqual(t, teamA.Color, teamB.Color, "team colors must differ")
	assert.Equal(t, models.StatusNotStarted, lob.GameStatus)
}

func TestCreateLobbyRejectsBadSizes(t *testing.T) {
	s := newTestStore(t)
	for _, size := range []int{0, 1, 3, 7, -4} {
		_, err := s.CreateLobby(size)
		assert.ErrorIs(t, err, ErrInvalidLobbySize, "size %d", size)
	}
}

func TestLobbyCodesUnique(t *testing.T) {
	s := newTestStore(t)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		lob, err := s.CreateLobby(2)
		require.NoError(t, err)
		require.False(t, seen[lob.Code], "duplicate code %s", lob.Code)
		seen[lob.Code] = true
	}
}

// TestBalancedJoin drives random join sequences and checks the team-size
// invariant |lenA - lenB| <= 1 after every single join.
func TestBalancedJoin(t *testing.T) {
	s := newTestStore(t)
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 20; trial++ {
		size := 2 * (1 + rng.Intn(5)) // 2..10
		lob, err := s.CreateLobby(size)
		require.NoError(t, err)

		for i := 0; i < size; i++ {
			p := s.NewPlayer("player")
			require.NoError(t, s.AssignTeam(lob.Code, p))
			require.NotEmpty(t, p.TeamID)

			lob.Mu.Lock()
			diff := len(lob.TeamA().Players) - len(lob.TeamB().Players)
			lob.Mu.Unlock()
			assert.LessOrEqual(t, diff, 1)
			assert.GreaterOrEqual(t, diff, -1)
		}

		// One more join must not exceed either team's capacity.
		err = s.AssignTeam(lob.Code, s.NewPlayer("late"))
		assert.ErrorIs(t, err, ErrLobbyFull)
	}
}

func TestAssignTeamTieGoesToFirstTeam(t *testing.T) {
	s := newTestStore(t)
	lob, err := s.CreateLobby(4)
	require.NoError(t, err)

	p := s.NewPlayer("first")
	require.NoError(t, s.AssignTeam(lob.Code, p))
	assert.Equal(t, lob.TeamOrder[0], p.TeamID)
}

func TestAssignTeamUnknownLobby(t *testing.T) {
	s := newTestStore(t)
	err := s.AssignTeam("NOPE99", s.NewPlayer("ghost"))
	assert.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestPlayerIDsMonotonic(t *testing.T) {
	s := newTestStore(t)
	a := s.NewPlayer("a")
	b := s.NewPlayer("b")
	assert.Greater(t, b.ID, a.ID)
}

func TestStartMatchTransitions(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return now }

	lob, err := s.CreateLobby(2)
	require.NoError(t, err)

	s.StartMatch(lob.Code)
	require.True(t, s.IsActive(lob.Code))
	status, _ := s.Status(lob.Code)
	assert.Equal(t, models.StatusRunning, status)

	m, ok := s.Active(lob.Code)
	require.True(t, ok)
	assert.Equal(t, now, m.StartTime)
	assert.Equal(t, s.MatchDuration, m.Duration)

	// Starting again is a no-op.
	s.StartMatch(lob.Code)
	m2, _ := s.Active(lob.Code)
	assert.Equal(t, m.StartTime, m2.StartTime)

	// game_over is terminal; no restart.
	s.MarkGameOver(lob.Code)
	s.StartMatch(lob.Code)
	assert.False(t, s.IsActive(lob.Code))
	status, _ = s.Status(lob.Code)
	assert.Equal(t, models.StatusGameOver, status)

	// Missing lobby start is a no-op as well.
	s.StartMatch("NOPE99")
}

func TestTeamRankingTieFavorsSecondTeam(t *testing.T) {
	s := newTestStore(t)
	lob, err := s.CreateLobby(2)
	require.NoError(t, err)

	winner, loser, err := s.TeamRanking(lob.Code)
	require.NoError(t, err)
	assert.Equal(t, lob.TeamOrder[1], winner.ID)
	assert.Equal(t, lob.TeamOrder[0], loser.ID)
}

func TestTeamRankingByScore(t *testing.T) {
	s := newTestStore(t)
	lob, err := s.CreateLobby(2)
	require.NoError(t, err)

	p := s.NewPlayer("sharp")
	require.NoError(t, s.AssignTeam(lob.Code, p))
	_, _, _, err = s.RecordHit(lob.Code, p.TeamID, p.ID, 15)
	require.NoError(t, err)

	winner, loser, err := s.TeamRanking(lob.Code)
	require.NoError(t, err)
	assert.Equal(t, p.TeamID, winner.ID)
	assert.Equal(t, 15, winner.Score)
	assert.Equal(t, 0, loser.Score)
}

func TestRecordHit(t *testing.T) {
	s := newTestStore(t)
	lob, err := s.CreateLobby(4)
	require.NoError(t, err)

	shooter := s.NewPlayer("shooter")
	require.NoError(t, s.AssignTeam(lob.Code, shooter))

	hit, shot, opponentID, err := s.RecordHit(lob.Code, shooter.TeamID, shooter.ID, 15)
	require.NoError(t, err)

	assert.Equal(t, 15, hit.TeamScore)
	assert.Equal(t, shooter.TeamID, hit.TeamName)
	assert.Equal(t, shooter.ID, hit.PlayerID)
	assert.Equal(t, hit, shot, "both perspectives report the shooter's score")
	assert.NotEqual(t, shooter.TeamID, opponentID)

	lob.Mu.Lock()
	shooterTeam := lob.Teams[shooter.TeamID]
	opponent := lob.Teams[opponentID]
	assert.Equal(t, 1, shooterTeam.Hits)
	assert.Equal(t, 15, shooterTeam.Score)
	assert.Equal(t, 1, opponent.Shots)
	assert.Equal(t, 1, shooterTeam.GetPlayer(shooter.ID).Hits)
	lob.Mu.Unlock()

	// Scores keep accumulating by the fixed reward.
	_, _, _, err = s.RecordHit(lob.Code, shooter.TeamID, shooter.ID, 15)
	require.NoError(t, err)
	lob.Mu.Lock()
	assert.Equal(t, 30, lob.Teams[shooter.TeamID].Score)
	lob.Mu.Unlock()
}

func TestRecordHitAfterGameOver(t *testing.T) {
	s := newTestStore(t)
	lob, err := s.CreateLobby(2)
	require.NoError(t, err)
	p := s.NewPlayer("late")
	require.NoError(t, s.AssignTeam(lob.Code, p))

	s.MarkGameOver(lob.Code)
	_, _, _, err = s.RecordHit(lob.Code, p.TeamID, p.ID, 15)
	assert.ErrorIs(t, err, ErrMatchOver)
}

func TestRemovePlayerDeletesEmptyUnstartedLobby(t *testing.T) {
	s := newTestStore(t)
	lob, err := s.CreateLobby(2)
	require.NoError(t, err)

	p := s.NewPlayer("only")
	require.NoError(t, s.AssignTeam(lob.Code, p))

	deleted, err := s.RemovePlayer(lob.Code, p.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, s.Exists(lob.Code))
}

func TestRemovePlayerKeepsPopulatedLobby(t *testing.T) {
	s := newTestStore(t)
	lob, err := s.CreateLobby(4)
	require.NoError(t, err)

	p1 := s.NewPlayer("one")
	p2 := s.NewPlayer("two")
	require.NoError(t, s.AssignTeam(lob.Code, p1))
	require.NoError(t, s.AssignTeam(lob.Code, p2))

	deleted, err := s.RemovePlayer(lob.Code, p1.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.True(t, s.Exists(lob.Code))

	_, err = s.RemovePlayer(lob.Code, p1.ID)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestMemberInfo(t *testing.T) {
	s := newTestStore(t)
	lob, err := s.CreateLobby(4)
	require.NoError(t, err)

	p := s.NewPlayer("member")
	require.NoError(t, s.AssignTeam(lob.Code, p))

	got, seatsLeft, maxSeats, err := s.MemberInfo(lob.Code, p.TeamID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, 1, seatsLeft)
	assert.Equal(t, 2, maxSeats)

	_, _, _, err = s.MemberInfo(lob.Code, p.TeamID, 999)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	_, _, _, err = s.MemberInfo(lob.Code, "Team_Nowhere", p.ID)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestDetailsOverlaysLiveTimeRemaining(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := start
	s.Now = func() time.Time { return current }

	lob, err := s.CreateLobby(2)
	require.NoError(t, err)

	details, ok := s.Details(lob.Code)
	require.True(t, ok)
	assert.Equal(t, 60, details.TimeRemaining)

	s.StartMatch(lob.Code)
	current = start.Add(10 * time.Second)

	details, ok = s.Details(lob.Code)
	require.True(t, ok)
	assert.Equal(t, 50, details.TimeRemaining)
	assert.Equal(t, models.StatusRunning, details.GameStatus)
	assert.Len(t, details.Teams, 2)
	assert.Equal(t, details.Teams[0].Shape, details.Shape)
}

func TestAreTeamsFull(t *testing.T) {
	s := newTestStore(t)
	lob, err := s.CreateLobby(2)
	require.NoError(t, err)

	assert.False(t, s.AreTeamsFull(lob.Code))
	require.NoError(t, s.AssignTeam(lob.Code, s.NewPlayer("a")))
	assert.False(t, s.AreTeamsFull(lob.Code))
	require.NoError(t, s.AssignTeam(lob.Code, s.NewPlayer("b")))
	assert.True(t, s.AreTeamsFull(lob.Code))
}

func TestTryStartSingleWinner(t *testing.T) {
	s := newTestStore(t)
	lob, err := s.CreateLobby(2)
	require.NoError(t, err)

	assert.False(t, s.TryStart(lob.Code), "teams not full yet")
	require.NoError(t, s.AssignTeam(lob.Code, s.NewPlayer("a")))
	require.NoError(t, s.AssignTeam(lob.Code, s.NewPlayer("b")))

	assert.True(t, s.TryStart(lob.Code))
	assert.True(t, s.IsActive(lob.Code))
	assert.False(t, s.TryStart(lob.Code), "only one caller performs the transition")
}

func TestTryStartUnknownLobby(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, s.TryStart("NOPE99"))
}

func TestOpponentOf(t *testing.T) {
	s := newTestStore(t)
	lob, err := s.CreateLobby(2)
	require.NoError(t, err)

	opp, err := s.OpponentOf(lob.Code, lob.TeamOrder[0])
	require.NoError(t, err)
	assert.Equal(t, lob.TeamOrder[1], opp.ID)

	opp, err = s.OpponentOf(lob.Code, lob.TeamOrder[1])
	require.NoError(t, err)
	assert.Equal(t, lob.TeamOrder[0], opp.ID)
}

func TestShapeCycleRotates(t *testing.T) {
	c := &ShapeCycle{}
	first := c.Next()
	assert.Equal(t, Shapes[0], first)
	for i := 1; i < len(Shapes); i++ {
		assert.Equal(t, Shapes[i], c.Next())
	}
	assert.Equal(t, Shapes[0], c.Next(), "rotation wraps")
}
