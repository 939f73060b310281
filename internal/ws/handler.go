// internal/ws/handler.go
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/lasershot/lasershot/internal/connection"
	"github.com/lasershot/lasershot/internal/lobby"
	"github.com/lasershot/lasershot/internal/models"
	"github.com/lasershot/lasershot/internal/scoring"
	"github.com/lasershot/lasershot/internal/vision"
)

// Handler owns the persistent game channel: admission checks, the join
// broadcast, match start when the teams fill, and the per-frame shot flow.
type Handler struct {
	Log        *logrus.Logger
	Store      *lobby.Store
	Registry   *connection.Registry
	Validator  *scoring.Validator
	Recognizer vision.Recognizer
}

// Serve upgrades /ws/{code}/{team}/{user} connections. A connection is
// refused with an immediate close when the lobby or team does not exist, the
// match is already running, or the user id is not a member of that team.
func (h *Handler) Serve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		teamID := chi.URLParam(r, "team")
		userParam := chi.URLParam(r, "user")

		ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			h.Log.WithError(err).Warn("websocket accept failed")
			return
		}

		userID, err := strconv.Atoi(userParam)
		if err != nil {
			ws.Close(CloseBadConnectParam, "user id must be numeric")
			return
		}
		if !h.Store.Exists(code) {
			ws.Close(CloseLobbyNotFound, "lobby does not exist")
			return
		}
		if h.Store.IsActive(code) {
			ws.Close(CloseMatchRunning, "match already running")
			return
		}
		player, seatsLeft, maxSeats, err := h.Store.MemberInfo(code, teamID, userID)
		if err != nil {
			switch {
			case errors.Is(err, lobby.ErrTeamNotFound):
				ws.Close(CloseTeamNotFound, "team does not exist")
			case errors.Is(err, lobby.ErrPlayerNotFound):
				ws.Close(CloseUnknownMember, "user is not on this team")
			default:
				ws.Close(CloseLobbyNotFound, "lobby does not exist")
			}
			return
		}

		conn := connection.NewWSConn(ws)
		h.Registry.Register(code, teamID, conn)
		defer func() {
			h.Registry.Unregister(code, teamID, conn)
			ws.Close(websocket.StatusNormalClosure, "bye")
		}()

		h.Log.WithFields(logrus.Fields{
			"lobby":  code,
			"team":   teamID,
			"player": userID,
			"remote": r.RemoteAddr,
		}).Info("player channel connected")

		ctx := r.Context()
		h.Registry.BroadcastToLobby(ctx, code, models.Message{
			Type: models.MessageJoin,
			Payload: models.JoinedTeamPayload{
				UserName:         player.Name,
				TeamName:         teamID,
				MembersRemaining: seatsLeft,
				MaxMembers:       maxSeats,
			},
		})

		// Both teams full means the match can begin. TryStart is the
		// arbiter, so of two racing last-player connects only one
		// announces start_game.
		if h.Store.TryStart(code) {
			h.Registry.BroadcastToLobby(ctx, code, models.Message{Type: models.MessageStartGame})
		}

		h.readLoop(ctx, ws, conn, code, player)
	}
}

// readLoop consumes shot frames until the client goes away. Each frame is a
// camera capture plus the color filter to look through; the recognizer and
// validator turn it into hit/shot/missed_shot events.
func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, conn connection.Conn, code string, player models.Player) {
	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
				strings.Contains(err.Error(), "context canceled") {
				return
			}
			h.Log.WithError(err).WithFields(logrus.Fields{
				"lobby":  code,
				"player": player.ID,
			}).Debug("read loop ended")
			return
		}
		if typ != websocket.MessageText {
			continue
		}

		var frame models.ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.Log.WithError(err).WithField("lobby", code).Warn("invalid shot frame")
			continue
		}

		reply := func(msg models.Message) {
			h.Registry.SendToOne(ctx, conn, msg)
		}

		ranges, colorKnown := vision.RangesFor(frame.Color)
		var shapes []string
		if colorKnown {
			shapes, err = h.Recognizer.Detect(frame.Image, ranges)
			if err != nil {
				// Undecodable frames are a miss, not a fault.
				h.Log.WithError(err).WithField("lobby", code).Debug("frame rejected")
			}
		}
		h.Validator.HandleDetection(ctx, code, player, shapes, colorKnown, reply)
	}
}
