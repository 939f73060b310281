// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lasershot/lasershot/internal/lobby"
	"github.com/lasershot/lasershot/internal/models"
)

// Fanout is the slice of the connection registry the scheduler drives:
// lobby-wide delivery, forced teardown, and the per-lobby fan-out order
// lock shared with the scoring path.
type Fanout interface {
	BroadcastToLobby(ctx context.Context, lobbyCode string, msg models.Message)
	CloseLobby(lobbyCode string)
	Sequenced(lobbyCode string, fn func())
}

// Scheduler is the single background loop that advances match time, reclaims
// lobbies that never started, and deletes finished lobbies once their
// spectator grace window runs out. One scheduler runs for the life of the
// process.
type Scheduler struct {
	log   *logrus.Logger
	store *lobby.Store
	conns Fanout

	// Interval is the tick period; one second in production.
	Interval time.Duration
}

// New returns a scheduler ticking once per second.
func New(log *logrus.Logger, store *lobby.Store, conns Fanout) *Scheduler {
	return &Scheduler{
		log:      log,
		store:    store,
		conns:    conns,
		Interval: time.Second,
	}
}

// Run ticks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.log.WithField("interval", s.Interval).Info("match scheduler running")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("match scheduler stopped")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick evaluates every stored lobby once. A fault in one lobby never aborts
// processing of the rest of the tick.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	for _, code := range s.store.Codes() {
		s.tickLobby(ctx, code, now)
	}
}

func (s *Scheduler) tickLobby(ctx context.Context, code string, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{"lobby": code, "panic": r}).Error("lobby tick failed")
		}
	}()

	if m, running := s.store.Active(code); running {
		remaining := m.Remaining(now)
		secs := int(remaining.Seconds())
		s.store.SetTimeRemaining(code, secs)
		if remaining <= 0 {
			s.EndMatch(ctx, code)
			return
		}
		s.conns.BroadcastToLobby(ctx, code, models.Message{
			Type:    models.MessageTimerReport,
			Payload: models.TimerReportPayload{TimeRemaining: secs},
		})
		return
	}

	status, ok := s.store.Status(code)
	if !ok {
		return
	}
	switch status {
	case models.StatusGameOver:
		if s.store.TickRetention(code) {
			s.conns.CloseLobby(code)
			s.store.Delete(code)
		}
	default:
		// Lobby never filled up; burn its idle budget.
		if s.store.TickInactivity(code) {
			s.EndMatch(ctx, code)
		}
	}
}

// EndMatch finishes a lobby: the status flips, the ranking is broadcast as
// the terminal game_over event, and every socket is closed and purged. The
// lobby record itself survives until the retention window expires.
//
// Ranking, status flip and the terminal broadcast run inside one sequenced
// block, and the flip happens before the broadcast. A concurrent shot either
// fans out before game_over or is refused by RecordHit; it can never land
// after the terminal event.
func (s *Scheduler) EndMatch(ctx context.Context, code string) {
	ended := false
	s.conns.Sequenced(code, func() {
		winner, loser, err := s.store.TeamRanking(code)
		if err != nil {
			s.log.WithError(err).WithField("lobby", code).Warn("cannot rank teams at match end")
			return
		}
		s.store.MarkGameOver(code)
		s.conns.BroadcastToLobby(ctx, code, models.Message{
			Type: models.MessageGameOver,
			Payload: models.GameOverPayload{
				WinningTeamName:  winner.ID,
				WinningTeamScore: winner.Score,
				LosingTeamName:   loser.ID,
				LosingTeamScore:  loser.Score,
			},
		})
		ended = true
		s.log.WithFields(logrus.Fields{
			"lobby":  code,
			"winner": winner.ID,
			"score":  winner.Score,
		}).Info("match ended")
	})
	if ended {
		s.conns.CloseLobby(code)
	}
}
