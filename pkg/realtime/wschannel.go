package realtime

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/medvoice-ai/medvoice/pkg/core"
)

const defaultDialTimeout = 15 * time.Second

// WSChannel is a ControlChannel over a WebSocket connection. Peer
// implementations whose media stack carries no data channel use it to reach
// the provider's realtime WebSocket endpoint with the same event contract.
type WSChannel struct {
	conn  *websocket.Conn
	label string

	events chan []byte
	done   chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool

	errMu sync.Mutex
	err   error
}

// DialWSChannel opens a channel against url with the given headers. The
// read loop starts immediately; frames arrive on Events until the
// connection dies.
func DialWSChannel(ctx context.Context, url string, header http.Header, label string) (*WSChannel, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: defaultDialTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, core.NewConnectionError("dial control channel", err)
	}
	if resp != nil {
		resp.Body.Close()
	}

	ch := &WSChannel{
		conn:   conn,
		label:  label,
		events: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	go ch.readLoop()
	return ch, nil
}

// Label returns the channel label.
func (c *WSChannel) Label() string {
	return c.label
}

// Send marshals v to JSON and writes one text frame. Delivery fails once
// the channel is closed; nothing is queued.
func (c *WSChannel) Send(v any) error {
	if c == nil {
		return core.NewPreconditionError("nil control channel")
	}
	if c.closed.Load() {
		return core.NewPreconditionError("control channel closed")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(v); err != nil {
		return core.NewConnectionError("control channel write", err)
	}
	return nil
}

// Events yields inbound frames and closes when the connection dies.
func (c *WSChannel) Events() <-chan []byte {
	return c.events
}

// Err reports why the read loop stopped, nil on a clean close.
func (c *WSChannel) Err() error {
	if c == nil {
		return nil
	}
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Close sends a close frame, drops the connection, and waits for the read
// loop to finish. Safe to call repeatedly.
func (c *WSChannel) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(2*time.Second))
		c.writeMu.Unlock()
		_ = c.conn.Close()
	})
	<-c.done
	return nil
}

func (c *WSChannel) readLoop() {
	defer close(c.done)
	defer close(c.events)

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			if !c.closed.Load() {
				c.setErr(err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		c.emit(append([]byte(nil), data...))
	}
}

func (c *WSChannel) emit(frame []byte) {
	select {
	case c.events <- frame:
	default:
		// Slow consumers lose frames rather than stalling the socket.
	}
}

func (c *WSChannel) setErr(err error) {
	c.errMu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.errMu.Unlock()
}
