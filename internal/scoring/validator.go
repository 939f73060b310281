// internal/scoring/validator.go
package scoring

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/lasershot/lasershot/internal/lobby"
	"github.com/lasershot/lasershot/internal/models"
)

// HitReward is the fixed score a validated hit is worth.
const HitReward = 15

// Validator turns a recognizer result into game events. It consumes store
// state, mutates scores through the store, and fans events out through the
// injected broadcast functions so tests can collect them instead.
type Validator struct {
	Store  *lobby.Store
	Reward int

	// BroadcastToTeam delivers a message to every socket on one team.
	BroadcastToTeam func(ctx context.Context, lobbyCode, teamID string, msg models.Message)

	// Sequence serializes a score-then-fanout block against the match
	// scheduler's terminal fan-out for the same lobby, so no hit or shot
	// event lands on the wire after game_over.
	Sequence func(lobbyCode string, fn func())

	log *logrus.Logger
}

// NewValidator wires a validator with the standard reward. Sequence defaults
// to running the block inline.
func NewValidator(log *logrus.Logger, store *lobby.Store) *Validator {
	return &Validator{
		Store:    store,
		Reward:   HitReward,
		Sequence: func(_ string, fn func()) { fn() },
		log:      log,
	}
}

// Decide reports whether the detected shape scores for the shooter's team.
// Valid iff the shape equals the lobby's shared marker shape; both teams hunt
// the same shape, color is the only per-team attribute. On a valid hit the
// opposing team is returned.
func (v *Validator) Decide(lobbyCode, shooterTeamID, detectedShape string) (bool, *models.Team, error) {
	shape, ok := v.Store.SharedShape(lobbyCode)
	if !ok {
		return false, nil, lobby.ErrLobbyNotFound
	}
	if detectedShape != shape {
		return false, nil, nil
	}
	opponent, err := v.Store.OpponentOf(lobbyCode, shooterTeamID)
	if err != nil {
		return false, nil, err
	}
	return true, &opponent, nil
}

// Apply scores a validated hit and emits exactly two messages: "hit" to the
// shooter's team and "shot" to the opponent's, each scoped to its own
// perspective. The score write and both sends happen inside one sequenced
// block; once the scheduler has fanned out game_over, RecordHit refuses the
// hit before anything is sent.
func (v *Validator) Apply(ctx context.Context, lobbyCode, shooterTeamID string, shooterID int) error {
	var applyErr error
	v.Sequence(lobbyCode, func() {
		hit, shot, opponentID, err := v.Store.RecordHit(lobbyCode, shooterTeamID, shooterID, v.Reward)
		if err != nil {
			applyErr = err
			return
		}
		v.BroadcastToTeam(ctx, lobbyCode, shooterTeamID, models.Message{Type: models.MessageHit, Payload: hit})
		v.BroadcastToTeam(ctx, lobbyCode, opponentID, models.Message{Type: models.MessageShot, Payload: shot})
	})
	return applyErr
}

// Miss records a missed attempt and notifies only the requesting connection.
func (v *Validator) Miss(lobbyCode, shooterTeamID string, shooterID int, reply func(models.Message)) {
	v.Store.RecordMiss(lobbyCode, shooterTeamID)
	reply(models.Message{Type: models.MessageMissedShot, Payload: models.MissedShotPayload{ShooterID: shooterID}})
}

// HandleDetection resolves one shot attempt end to end. A detection with zero
// or more than one candidate shape, or an unrecognized color filter, is a
// miss before Decide is even consulted.
func (v *Validator) HandleDetection(ctx context.Context, lobbyCode string, shooter models.Player, shapes []string, colorKnown bool, reply func(models.Message)) {
	if !colorKnown || len(shapes) != 1 {
		v.Miss(lobbyCode, shooter.TeamID, shooter.ID, reply)
		return
	}
	valid, _, err := v.Decide(lobbyCode, shooter.TeamID, shapes[0])
	if err != nil {
		v.log.WithError(err).WithField("lobby", lobbyCode).Warn("hit decision failed")
		v.Miss(lobbyCode, shooter.TeamID, shooter.ID, reply)
		return
	}
	if !valid {
		v.Miss(lobbyCode, shooter.TeamID, shooter.ID, reply)
		return
	}
	if err := v.Apply(ctx, lobbyCode, shooter.TeamID, shooter.ID); err != nil {
		v.log.WithError(err).WithField("lobby", lobbyCode).Warn("hit apply failed")
		v.Miss(lobbyCode, shooter.TeamID, shooter.ID, reply)
	}
}
