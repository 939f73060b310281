// internal/connection/registry_test.go
package connection

import (
	"context"
	"sync"
	"testing"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lasershot/lasershot/internal/models"
)

// fakeConn records everything written to it in place of a real socket.
type fakeConn struct {
	id uuid.UUID

	mu        sync.Mutex
	sent      [][]byte
	open      bool
	closeCode websocket.StatusCode
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: uuid.New(), open: true}
}

func (f *fakeConn) ID() uuid.UUID { return f.id }

func (f *fakeConn) Send(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, append([]byte(nil), data...))
	return nil
}

func (f *fakeConn) Close(code websocket.StatusCode, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.closeCode = code
	return nil
}

func (f *fakeConn) Open() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeConn) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestRegistry() *Registry {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return NewRegistry(log)
}

func TestBroadcastToTeamScoping(t *testing.T) {
	r := newTestRegistry()
	a1, a2, b1 := newFakeConn(), newFakeConn(), newFakeConn()
	r.Register("ABC123", "Team_Red_Circle", a1)
	r.Register("ABC123", "Team_Red_Circle", a2)
	r.Register("ABC123", "Team_Blue_Circle", b1)

	msg := models.Message{Type: models.MessageHit, Payload: models.ShotHitPayload{TeamScore: 15}}
	r.BroadcastToTeam(context.Background(), "ABC123", "Team_Red_Circle", msg)

	assert.Equal(t, 1, a1.received())
	assert.Equal(t, 1, a2.received())
	assert.Equal(t, 0, b1.received(), "opposing team must not see the hit event")
}

func TestBroadcastToLobbyReachesBothTeams(t *testing.T) {
	r := newTestRegistry()
	a, b := newFakeConn(), newFakeConn()
	r.Register("ABC123", "Team_Red_Circle", a)
	r.Register("ABC123", "Team_Blue_Circle", b)
	other := newFakeConn()
	r.Register("ZZZ999", "Team_Green_Square", other)

	r.BroadcastToLobby(context.Background(), "ABC123", models.Message{Type: models.MessageStartGame})

	assert.Equal(t, 1, a.received())
	assert.Equal(t, 1, b.received())
	assert.Equal(t, 0, other.received(), "broadcast must not leak across lobbies")
}

func TestBroadcastSkipsClosedConn(t *testing.T) {
	r := newTestRegistry()
	live, dead := newFakeConn(), newFakeConn()
	r.Register("ABC123", "Team_Red_Circle", live)
	r.Register("ABC123", "Team_Red_Circle", dead)
	require.NoError(t, dead.Close(websocket.StatusNormalClosure, ""))

	r.BroadcastToTeam(context.Background(), "ABC123", "Team_Red_Circle", models.Message{Type: models.MessageTimerReport})

	assert.Equal(t, 1, live.received())
	assert.Equal(t, 0, dead.received())
}

func TestSendToOne(t *testing.T) {
	r := newTestRegistry()
	target, bystander := newFakeConn(), newFakeConn()
	r.Register("ABC123", "Team_Red_Circle", target)
	r.Register("ABC123", "Team_Red_Circle", bystander)

	msg := models.Message{Type: models.MessageMissedShot, Payload: models.MissedShotPayload{ShooterID: 7}}
	r.SendToOne(context.Background(), target, msg)

	require.Equal(t, 1, target.received())
	assert.JSONEq(t, `{"type":"missed_shot","payload":{"shooter_id":7}}`, string(target.sent[0]))
	assert.Equal(t, 0, bystander.received())
}

func TestUnregisterIsIdempotentAndPrunes(t *testing.T) {
	r := newTestRegistry()
	c := newFakeConn()
	r.Register("ABC123", "Team_Red_Circle", c)

	r.Unregister("ABC123", "Team_Red_Circle", c)
	r.Unregister("ABC123", "Team_Red_Circle", c)
	r.Unregister("MISSING", "Team_Red_Circle", c)

	r.BroadcastToLobby(context.Background(), "ABC123", models.Message{Type: models.MessageTimerReport})
	assert.Equal(t, 0, c.received(), "unregistered socket must receive nothing")
	assert.Empty(t, r.conns, "empty buckets are pruned all the way up")
}

func TestSequencedSerializesPerLobby(t *testing.T) {
	r := newTestRegistry()

	var events []int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Sequenced("ABC123", func() {
				events = append(events, n)
			})
		}(i)
	}
	wg.Wait()

	assert.Len(t, events, 50, "blocks for one lobby never overlap")
}

func TestCloseLobbyClosesAndPurges(t *testing.T) {
	r := newTestRegistry()
	a, b := newFakeConn(), newFakeConn()
	r.Register("ABC123", "Team_Red_Circle", a)
	r.Register("ABC123", "Team_Blue_Circle", b)

	r.CloseLobby("ABC123")

	assert.False(t, a.Open())
	assert.False(t, b.Open())
	assert.Equal(t, websocket.StatusNormalClosure, a.closeCode)
	assert.Equal(t, websocket.StatusNormalClosure, b.closeCode)

	r.BroadcastToLobby(context.Background(), "ABC123", models.Message{Type: models.MessageTimerReport})
	assert.Equal(t, 0, a.received())
	assert.Equal(t, 0, b.received())
}
