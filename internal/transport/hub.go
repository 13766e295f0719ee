// internal/transport/hub.go
package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/picturepoker/internal/lobby"
)

// DefaultSendBuffer is the number of outbound frames queued per connection.
const DefaultSendBuffer = 32

var (
	ErrUnknownConn  = errors.New("unknown connection")
	ErrConnClosed   = errors.New("connection closed")
	ErrSlowConsumer = errors.New("send buffer full")
)

// Conn wraps a single websocket connection registered with the hub.
// The owning handler drains OutChan in its write pump and watches Done.
type Conn struct {
	ID      lobby.ConnID
	Remote  string
	OutChan chan []byte

	ctx    context.Context
	cancel context.CancelFunc
	closed bool // guarded by Hub.mu
}

// Done is closed once the hub closes the connection or the parent context ends.
func (c *Conn) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Context is cancelled together with the connection.
func (c *Conn) Context() context.Context {
	return c.ctx
}

// Hub tracks live websocket connections and implements lobby.Transport.
// Send never blocks; a peer that cannot keep up is closed instead.
type Hub struct {
	mu     sync.Mutex
	conns  map[lobby.ConnID]*Conn
	buffer int
	logger *logrus.Entry
}

var _ lobby.Transport = (*Hub)(nil)

// NewHub creates a hub whose connections buffer up to buffer outbound frames.
func NewHub(buffer int, logger *logrus.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Hub{
		conns:  make(map[lobby.ConnID]*Conn),
		buffer: buffer,
		logger: logger.WithField("component", "hub"),
	}
}

// Register allocates a handle for a freshly accepted connection. The returned
// Conn's context derives from parent.
func (h *Hub) Register(parent context.Context, remote string) *Conn {
	ctx, cancel := context.WithCancel(parent)
	c := &Conn{
		ID:      lobby.NewConnID(),
		Remote:  remote,
		OutChan: make(chan []byte, h.buffer),
		ctx:     ctx,
		cancel:  cancel,
	}
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()
	h.logger.WithFields(logrus.Fields{"conn": c.ID, "remote": remote}).Debug("connection registered")
	return c
}

// Unregister closes the connection and forgets it.
func (h *Hub) Unregister(id lobby.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[id]
	if !ok {
		return
	}
	h.closeUnsafe(c)
	delete(h.conns, id)
}

// IsAlive reports whether id is registered and not closed.
func (h *Hub) IsAlive(id lobby.ConnID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[id]
	return ok && !c.closed && c.ctx.Err() == nil
}

// Send queues payload for id's write pump.
func (h *Hub) Send(id lobby.ConnID, payload []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[id]
	if !ok {
		return ErrUnknownConn
	}
	if c.closed || c.ctx.Err() != nil {
		return ErrConnClosed
	}
	select {
	case c.OutChan <- payload:
		return nil
	default:
		h.logger.WithField("conn", id).Warn("send buffer full, closing connection")
		h.closeUnsafe(c)
		return ErrSlowConsumer
	}
}

// Close cancels the connection's context; its pumps shut the socket down.
// OutChan is left open so late senders never panic.
func (h *Hub) Close(id lobby.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.conns[id]; ok {
		h.closeUnsafe(c)
	}
}

func (h *Hub) closeUnsafe(c *Conn) {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
}

// Len returns the number of registered connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
