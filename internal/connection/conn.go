// internal/connection/conn.go
package connection

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Conn is a single live client socket as the registry sees it. The registry
// only ever sends to connections observed open at send time; anything else is
// skipped silently.
type Conn interface {
	// ID identifies the connection (not the player) for bookkeeping.
	ID() uuid.UUID
	// Send writes one serialized message frame.
	Send(ctx context.Context, data []byte) error
	// Close closes the underlying socket with the given status code.
	Close(code websocket.StatusCode, reason string) error
	// Open reports whether the socket was open last time we looked.
	Open() bool
}

// WSConn adapts a coder/websocket connection to the registry's Conn. The open
// flag flips once on close or on the first failed write and never flips back.
type WSConn struct {
	id   uuid.UUID
	ws   *websocket.Conn
	open atomic.Bool

	// WriteTimeout bounds each outbound write so one stuck client cannot
	// stall a broadcast.
	WriteTimeout time.Duration
}

// NewWSConn wraps an accepted websocket connection.
func NewWSConn(ws *websocket.Conn) *WSConn {
	c := &WSConn{
		id:           uuid.New(),
		ws:           ws,
		WriteTimeout: 5 * time.Second,
	}
	c.open.Store(true)
	return c
}

func (c *WSConn) ID() uuid.UUID { return c.id }

func (c *WSConn) Open() bool { return c.open.Load() }

func (c *WSConn) Send(ctx context.Context, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, c.WriteTimeout)
	defer cancel()
	if err := c.ws.Write(writeCtx, websocket.MessageText, data); err != nil {
		c.open.Store(false)
		return err
	}
	return nil
}

func (c *WSConn) Close(code websocket.StatusCode, reason string) error {
	c.open.Store(false)
	return c.ws.Close(code, reason)
}
