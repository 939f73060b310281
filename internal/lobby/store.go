// internal/lobby/store.go
package lobby

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lasershot/lasershot/internal/models"
)

// Store owns every lobby record and the lobby-level state machine. It has no
// networking knowledge; the scheduler and the socket layer drive it.
//
// Locking: the store mutex guards the lobby and active-match maps, each
// lobby's own mutex guards that lobby's teams, scores and status. Lock order
// is always store before lobby, so unrelated lobbies never serialize each
// other on the hot scoring path.
type Store struct {
	log *logrus.Logger

	mu      sync.RWMutex
	lobbies map[string]*models.Lobby
	active  map[string]*models.ActiveMatch

	rng    *rand.Rand // guarded by mu; only used on lobby creation
	shapes *ShapeCycle

	playerIDs atomic.Int64

	// Now is the clock used for match timing; tests substitute it.
	Now func() time.Time

	// MatchDuration is the fixed length of a match.
	MatchDuration time.Duration
	// InactivityTicks is the budget a lobby may sit unstarted.
	InactivityTicks int
	// RetentionTicks is how long a finished lobby stays readable.
	RetentionTicks int
}

// NewStore returns a Store with production defaults: 60 s matches, a 60-tick
// inactivity budget and a 30-tick post-game retention window.
func NewStore(log *logrus.Logger) *Store {
	return &Store{
		log:             log,
		lobbies:         make(map[string]*models.Lobby),
		active:          make(map[string]*models.ActiveMatch),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		shapes:          &ShapeCycle{},
		Now:             time.Now,
		MatchDuration:   60 * time.Second,
		InactivityTicks: 60,
		RetentionTicks:  30,
	}
}

// NewPlayer allocates a player with the next id from the store-owned counter.
func (s *Store) NewPlayer(name string) *models.Player {
	return &models.Player{
		ID:   int(s.playerIDs.Add(1)),
		Name: name,
	}
}

// CreateLobby allocates a lobby with a fresh unique code and two teams
// sharing one shape with distinct colors, each holding maxPlayers/2 seats.
func (s *Store) CreateLobby(maxPlayers int) (*models.Lobby, error) {
	if maxPlayers < 2 || maxPlayers%2 != 0 {
		return nil, ErrInvalidLobbySize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	code := generateCode(s.rng, func(c string) bool {
		_, taken := s.lobbies[c]
		return taken
	})

	teamA, teamB := newTeamPair(s.rng, s.shapes, maxPlayers/2)
	lob := &models.Lobby{
		Code:             code,
		Teams:            map[string]*models.Team{teamA.ID: teamA, teamB.ID: teamB},
		TeamOrder:        [2]string{teamA.ID, teamB.ID},
		GameStatus:       models.StatusNotStarted,
		TimeRemaining:    int(s.MatchDuration.Seconds()),
		InactivityBudget: s.InactivityTicks,
		RetentionBudget:  s.RetentionTicks,
	}
	s.lobbies[code] = lob

	s.log.WithFields(logrus.Fields{
		"lobby": code,
		"teams": lob.TeamOrder,
		"shape": teamA.Shape,
	}).Info("lobby created")
	return lob, nil
}

// AssignTeam places the player on whichever team currently has fewer members;
// a tie goes to the first-created team. Sets the player's TeamID.
func (s *Store) AssignTeam(code string, p *models.Player) error {
	lob, ok := s.get(code)
	if !ok {
		return ErrLobbyNotFound
	}

	lob.Mu.Lock()
	defer lob.Mu.Unlock()

	target := lob.TeamA()
	if len(lob.TeamB().Players) < len(target.Players) {
		target = lob.TeamB()
	}
	if target.IsFull() {
		return ErrLobbyFull
	}
	p.TeamID = target.ID
	target.Players = append(target.Players, p)
	return nil
}

// RemovePlayer takes a player off their team. A lobby emptied of all players
// before its match started is deleted immediately; otherwise the record lives
// on until the scheduler reclaims it. Reports whether the lobby was deleted.
func (s *Store) RemovePlayer(code string, playerID int) (bool, error) {
	lob, ok := s.get(code)
	if !ok {
		return false, ErrLobbyNotFound
	}

	lob.Mu.Lock()
	found := false
	remaining := 0
	for _, team := range lob.Teams {
		for i, p := range team.Players {
			if p.ID == playerID {
				team.Players = append(team.Players[:i], team.Players[i+1:]...)
				found = true
				break
			}
		}
		remaining += len(team.Players)
	}
	empty := remaining == 0 && lob.GameStatus == models.StatusNotStarted
	lob.Mu.Unlock()

	if !found {
		return false, ErrPlayerNotFound
	}
	if empty {
		s.Delete(code)
		return true, nil
	}
	return false, nil
}

// StartMatch records the start time and fixed duration and flips the lobby to
// running. A missing lobby or an already-active match is a no-op.
func (s *Store) StartMatch(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lob, ok := s.lobbies[code]
	if !ok {
		return
	}
	if _, running := s.active[code]; running {
		return
	}

	lob.Mu.Lock()
	defer lob.Mu.Unlock()
	if lob.GameStatus != models.StatusNotStarted {
		return // status transitions are one-way
	}
	s.active[code] = &models.ActiveMatch{
		LobbyCode: code,
		StartTime: s.Now(),
		Duration:  s.MatchDuration,
	}
	lob.GameStatus = models.StatusRunning
	s.log.WithField("lobby", code).Info("match started")
}

// TryStart starts the match when both teams are full and the lobby has not
// started, reporting whether this call performed the transition. Two
// last-player connects racing here see exactly one true, so the start
// announcement goes out once.
func (s *Store) TryStart(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	lob, ok := s.lobbies[code]
	if !ok {
		return false
	}
	if _, running := s.active[code]; running {
		return false
	}

	lob.Mu.Lock()
	defer lob.Mu.Unlock()
	if lob.GameStatus != models.StatusNotStarted {
		return false
	}
	for _, team := range lob.Teams {
		if !team.IsFull() {
			return false
		}
	}
	s.active[code] = &models.ActiveMatch{
		LobbyCode: code,
		StartTime: s.Now(),
		Duration:  s.MatchDuration,
	}
	lob.GameStatus = models.StatusRunning
	s.log.WithField("lobby", code).Info("match started")
	return true
}

// get returns the live lobby pointer.
func (s *Store) get(code string) (*models.Lobby, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lob, ok := s.lobbies[code]
	return lob, ok
}

// Exists reports whether the code names a stored lobby.
func (s *Store) Exists(code string) bool {
	_, ok := s.get(code)
	return ok
}

// IsActive reports whether the lobby has a running match entry.
func (s *Store) IsActive(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.active[code]
	return ok
}

// Active returns a copy of the lobby's active-match entry.
func (s *Store) Active(code string) (models.ActiveMatch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.active[code]
	if !ok {
		return models.ActiveMatch{}, false
	}
	return *m, true
}

// Codes lists every stored lobby code.
func (s *Store) Codes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]string, 0, len(s.lobbies))
	for code := range s.lobbies {
		codes = append(codes, code)
	}
	return codes
}

// AreTeamsFull reports whether both teams have reached capacity.
func (s *Store) AreTeamsFull(code string) bool {
	lob, ok := s.get(code)
	if !ok {
		return false
	}
	lob.Mu.Lock()
	defer lob.Mu.Unlock()
	return lob.TeamA().IsFull() && lob.TeamB().IsFull()
}

// SharedShape returns the marker shape both teams in the lobby hunt.
func (s *Store) SharedShape(code string) (string, bool) {
	lob, ok := s.get(code)
	if !ok {
		return "", false
	}
	lob.Mu.Lock()
	defer lob.Mu.Unlock()
	return lob.TeamA().Shape, true
}

// HasTeam reports whether the lobby contains the named team.
func (s *Store) HasTeam(code, teamID string) bool {
	lob, ok := s.get(code)
	if !ok {
		return false
	}
	lob.Mu.Lock()
	defer lob.Mu.Unlock()
	_, ok = lob.Teams[teamID]
	return ok
}

// MemberInfo checks that userID belongs to the named team and returns the
// player's current record plus the team's open-seat count and capacity.
func (s *Store) MemberInfo(code, teamID string, userID int) (models.Player, int, int, error) {
	lob, ok := s.get(code)
	if !ok {
		return models.Player{}, 0, 0, ErrLobbyNotFound
	}
	lob.Mu.Lock()
	defer lob.Mu.Unlock()
	team, ok := lob.Teams[teamID]
	if !ok {
		return models.Player{}, 0, 0, ErrTeamNotFound
	}
	p := team.GetPlayer(userID)
	if p == nil {
		return models.Player{}, 0, 0, ErrPlayerNotFound
	}
	return *p, team.MaxPlayers - len(team.Players), team.MaxPlayers, nil
}

// OpponentOf returns a snapshot of the team facing teamID in the lobby.
func (s *Store) OpponentOf(code, teamID string) (models.Team, error) {
	lob, ok := s.get(code)
	if !ok {
		return models.Team{}, ErrLobbyNotFound
	}
	lob.Mu.Lock()
	defer lob.Mu.Unlock()
	if _, ok := lob.Teams[teamID]; !ok {
		return models.Team{}, ErrTeamNotFound
	}
	opponent := lob.TeamA()
	if opponent.ID == teamID {
		opponent = lob.TeamB()
	}
	return snapshotTeam(opponent), nil
}

// TeamRanking orders the two teams by score. On a tie the second-created team
// wins; see DESIGN.md for why that quirk is preserved.
func (s *Store) TeamRanking(code string) (models.Team, models.Team, error) {
	lob, ok := s.get(code)
	if !ok {
		return models.Team{}, models.Team{}, ErrLobbyNotFound
	}
	lob.Mu.Lock()
	defer lob.Mu.Unlock()
	teamA, teamB := lob.TeamA(), lob.TeamB()
	if teamA.Score > teamB.Score {
		return snapshotTeam(teamA), snapshotTeam(teamB), nil
	}
	return snapshotTeam(teamB), snapshotTeam(teamA), nil
}

// RecordHit applies a validated hit: the shooter's team gains a hit and the
// reward, the shooter gains a hit, the opposing team gains a shot against it.
// Returns the per-perspective payloads for fan-out. Scoring is refused once
// the lobby is game_over.
func (s *Store) RecordHit(code, shooterTeamID string, shooterID, reward int) (models.ShotHitPayload, models.ShotHitPayload, string, error) {
	var zero models.ShotHitPayload
	lob, ok := s.get(code)
	if !ok {
		return zero, zero, "", ErrLobbyNotFound
	}

	lob.Mu.Lock()
	defer lob.Mu.Unlock()

	if lob.GameStatus == models.StatusGameOver {
		return zero, zero, "", ErrMatchOver
	}
	shooter, ok := lob.Teams[shooterTeamID]
	if !ok {
		return zero, zero, "", ErrTeamNotFound
	}
	opponent := lob.TeamA()
	if opponent.ID == shooterTeamID {
		opponent = lob.TeamB()
	}

	shooter.Hits++
	shooter.Score += reward
	opponent.Shots++
	if p := shooter.GetPlayer(shooterID); p != nil {
		p.Hits++
	}

	hit := models.ShotHitPayload{TeamScore: shooter.Score, TeamName: shooter.ID, PlayerID: shooterID}
	shot := models.ShotHitPayload{TeamScore: shooter.Score, TeamName: shooter.ID, PlayerID: shooterID}
	return hit, shot, opponent.ID, nil
}

// RecordMiss bumps the shooter team's miss counter.
func (s *Store) RecordMiss(code, shooterTeamID string) {
	lob, ok := s.get(code)
	if !ok {
		return
	}
	lob.Mu.Lock()
	defer lob.Mu.Unlock()
	if team, ok := lob.Teams[shooterTeamID]; ok && lob.GameStatus != models.StatusGameOver {
		team.Misses++
	}
}

// Remove marks the lobby game_over without deleting it, leaving the grace
// window for spectator reads. The scheduler performs the eventual deletion.
func (s *Store) Remove(code string) {
	s.MarkGameOver(code)
}

// MarkGameOver flips the lobby to its terminal status and clears the
// active-match entry. Idempotent.
func (s *Store) MarkGameOver(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lob, ok := s.lobbies[code]
	if !ok {
		return
	}
	delete(s.active, code)
	lob.Mu.Lock()
	defer lob.Mu.Unlock()
	if lob.GameStatus != models.StatusGameOver {
		lob.GameStatus = models.StatusGameOver
		s.log.WithField("lobby", code).Info("lobby marked game over")
	}
}

// Delete removes the lobby record entirely.
func (s *Store) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, code)
	if _, ok := s.lobbies[code]; ok {
		delete(s.lobbies, code)
		s.log.WithField("lobby", code).Info("lobby deleted")
	}
}

// SetTimeRemaining stores the scheduler-computed seconds left.
func (s *Store) SetTimeRemaining(code string, secs int) {
	lob, ok := s.get(code)
	if !ok {
		return
	}
	lob.Mu.Lock()
	defer lob.Mu.Unlock()
	lob.TimeRemaining = secs
}

// TickInactivity burns one tick of the unstarted lobby's budget and reports
// whether it just ran out.
func (s *Store) TickInactivity(code string) bool {
	lob, ok := s.get(code)
	if !ok {
		return false
	}
	lob.Mu.Lock()
	defer lob.Mu.Unlock()
	lob.InactivityBudget--
	return lob.InactivityBudget <= 0
}

// TickRetention burns one tick of the finished lobby's retention window and
// reports whether it just ran out.
func (s *Store) TickRetention(code string) bool {
	lob, ok := s.get(code)
	if !ok {
		return false
	}
	lob.Mu.Lock()
	defer lob.Mu.Unlock()
	lob.RetentionBudget--
	return lob.RetentionBudget <= 0
}

// Status returns the lobby's current game status.
func (s *Store) Status(code string) (models.GameStatus, bool) {
	lob, ok := s.get(code)
	if !ok {
		return "", false
	}
	lob.Mu.Lock()
	defer lob.Mu.Unlock()
	return lob.GameStatus, true
}

func snapshotTeam(t *models.Team) models.Team {
	cp := *t
	cp.Players = make([]*models.Player, len(t.Players))
	for i, p := range t.Players {
		pc := *p
		cp.Players[i] = &pc
	}
	return cp
}
