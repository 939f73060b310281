// internal/connection/registry.go
package connection

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lasershot/lasershot/internal/models"
)

// Registry tracks the live sockets of every lobby, bucketed per team. It has
// no knowledge of game rules; its side effects are purely network I/O.
//
// Buckets are created lazily on Register and pruned on Unregister so the map
// never outgrows the set of live connections.
type Registry struct {
	log *logrus.Logger

	mu    sync.Mutex
	conns map[string]map[string]map[uuid.UUID]Conn // lobby -> team -> conn id -> conn

	ordersMu sync.Mutex
	orders   map[string]*sync.Mutex // lobby -> fan-out order lock
}

// NewRegistry returns an empty registry.
func NewRegistry(log *logrus.Logger) *Registry {
	return &Registry{
		log:    log,
		conns:  make(map[string]map[string]map[uuid.UUID]Conn),
		orders: make(map[string]*sync.Mutex),
	}
}

// Sequenced runs fn while holding the lobby's fan-out order lock. A state
// check plus broadcast executed inside one block can never interleave with
// another sequenced block for the same lobby, which keeps the terminal
// game_over event last on the wire.
func (r *Registry) Sequenced(lobbyCode string, fn func()) {
	r.ordersMu.Lock()
	mu, ok := r.orders[lobbyCode]
	if !ok {
		mu = &sync.Mutex{}
		r.orders[lobbyCode] = mu
	}
	r.ordersMu.Unlock()

	mu.Lock()
	defer mu.Unlock()
	fn()
}

// Register adds a socket to the lobby/team bucket, creating buckets lazily.
// The websocket handshake has already happened by the time a Conn exists, so
// there is no failure path here.
func (r *Registry) Register(lobbyCode, teamID string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lobby, ok := r.conns[lobbyCode]
	if !ok {
		lobby = make(map[string]map[uuid.UUID]Conn)
		r.conns[lobbyCode] = lobby
	}
	team, ok := lobby[teamID]
	if !ok {
		team = make(map[uuid.UUID]Conn)
		lobby[teamID] = team
	}
	team[c.ID()] = c
}

// Unregister removes a socket from its bucket. Removing an absent socket is a
// no-op. Empty team buckets are pruned, then empty lobby buckets, to bound
// memory.
func (r *Registry) Unregister(lobbyCode, teamID string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lobby, ok := r.conns[lobbyCode]
	if !ok {
		return
	}
	team, ok := lobby[teamID]
	if !ok {
		return
	}
	delete(team, c.ID())
	if len(team) == 0 {
		delete(lobby, teamID)
	}
	if len(lobby) == 0 {
		delete(r.conns, lobbyCode)
	}
}

// BroadcastToTeam delivers a message to every open socket on one team.
func (r *Registry) BroadcastToTeam(ctx context.Context, lobbyCode, teamID string, msg models.Message) {
	r.deliver(ctx, r.snapshot(lobbyCode, teamID), msg)
}

// BroadcastToLobby delivers a message to every open socket in the lobby.
func (r *Registry) BroadcastToLobby(ctx context.Context, lobbyCode string, msg models.Message) {
	r.deliver(ctx, r.snapshot(lobbyCode, ""), msg)
}

// SendToOne delivers a message to a single socket if it is open.
func (r *Registry) SendToOne(ctx context.Context, c Conn, msg models.Message) {
	r.deliver(ctx, []Conn{c}, msg)
}

// CloseLobby force-closes every socket in the lobby with a normal-closure
// code and drops the lobby's connection entry.
func (r *Registry) CloseLobby(lobbyCode string) {
	r.mu.Lock()
	conns := collect(r.conns[lobbyCode], "")
	delete(r.conns, lobbyCode)
	r.mu.Unlock()

	r.ordersMu.Lock()
	delete(r.orders, lobbyCode)
	r.ordersMu.Unlock()

	for _, c := range conns {
		if c.Open() {
			if err := c.Close(websocket.StatusNormalClosure, "lobby closed"); err != nil {
				r.log.WithError(err).Debug("close during lobby teardown")
			}
		}
	}
}

// snapshot copies the target conns out under the lock so delivery happens
// without holding it. teamID == "" means the whole lobby.
func (r *Registry) snapshot(lobbyCode, teamID string) []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return collect(r.conns[lobbyCode], teamID)
}

func collect(lobby map[string]map[uuid.UUID]Conn, teamID string) []Conn {
	if lobby == nil {
		return nil
	}
	var out []Conn
	for id, team := range lobby {
		if teamID != "" && id != teamID {
			continue
		}
		for _, c := range team {
			out = append(out, c)
		}
	}
	return out
}

// deliver serializes once and writes to each open socket. A closed socket is
// skipped silently; a failed write marks the socket closed but never raises.
func (r *Registry) deliver(ctx context.Context, conns []Conn, msg models.Message) {
	if len(conns) == 0 {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		r.log.WithError(err).WithField("type", msg.Type).Error("marshal outbound message")
		return
	}
	for _, c := range conns {
		if !c.Open() {
			continue
		}
		if err := c.Send(ctx, data); err != nil {
			r.log.WithError(err).WithField("type", msg.Type).Debug("dropping unreachable socket")
		}
	}
}
