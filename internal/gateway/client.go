// Package gateway is the bot side of the grid gateway websocket protocol.
// One connection carries both halves of the pipeline's outside world: the
// cell-change subscription (EVENT stream) and the batch flip submissions
// (FLIP/RESULT pairs matched by correlation id).
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"flipfield.gg/internal/pipeline"
	"flipfield.gg/internal/protocol"
)

const (
	writeTimeout = 5 * time.Second
	eventBuffer  = 256
)

type Client struct {
	conn *websocket.Conn
	log  *log.Logger
	grid string

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  uint64
	waiters map[uint64]chan protocol.ResultMsg
	closed  bool

	events chan pipeline.Event
	done   chan struct{}
}

// Dial connects, subscribes to the grid's cell-change stream and starts the
// read loop.
func Dial(ctx context.Context, url, grid string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Default()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &Client{
		conn:    conn,
		log:     logger,
		grid:    grid,
		waiters: make(map[uint64]chan protocol.ResultMsg),
		events:  make(chan pipeline.Event, eventBuffer),
		done:    make(chan struct{}),
	}

	sub := protocol.SubMsg{
		Type:            protocol.TypeSub,
		ProtocolVersion: protocol.Version,
		Grid:            grid,
	}
	if err := c.writeJSON(sub); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("send SUB: %w", err)
	}

	go c.readLoop()
	return c, nil
}

// Subscribe implements pipeline.Feed. The returned channel closes when ctx
// is cancelled or the connection drops; the connection itself stays up for
// in-flight Execute calls until Close.
func (c *Client) Subscribe(ctx context.Context) (<-chan pipeline.Event, error) {
	out := make(chan pipeline.Event, eventBuffer)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-c.events:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Execute implements pipeline.Executor: one FLIP per chunk, answered by the
// RESULT carrying the same id. The action reference is the success token.
func (c *Client) Execute(ctx context.Context, claims []pipeline.Claim) (string, error) {
	if len(claims) == 0 {
		return "", fmt.Errorf("empty chunk")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", fmt.Errorf("gateway closed")
	}
	c.nextID++
	id := c.nextID
	resp := make(chan protocol.ResultMsg, 1)
	c.waiters[id] = resp
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.waiters, id)
		c.mu.Unlock()
	}()

	cells := make([]protocol.FlipCell, len(claims))
	for i, cl := range claims {
		cells[i] = protocol.FlipCell{X: cl.X, Y: cl.Y, Team: cl.Team}
	}
	flip := protocol.FlipMsg{
		Type:            protocol.TypeFlip,
		ProtocolVersion: protocol.Version,
		ID:              id,
		Grid:            c.grid,
		Cells:           cells,
	}
	if err := c.writeJSON(flip); err != nil {
		return "", fmt.Errorf("send FLIP: %w", err)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.done:
		return "", fmt.Errorf("gateway closed")
	case res := <-resp:
		if !res.OK {
			code := res.Err
			if !protocol.IsKnownCode(code) {
				c.log.Printf("unknown error code %q from gateway", code)
			}
			return "", fmt.Errorf("flip rejected: %s", code)
		}
		return res.Ref, nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) readLoop() {
	defer func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.done)
		close(c.events)
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeEvent:
			var ev protocol.EventMsg
			if err := json.Unmarshal(msg, &ev); err != nil {
				continue
			}
			select {
			case c.events <- pipeline.Event{Key: ev.Key, Value: ev.Value, X: ev.X, Y: ev.Y}:
			default:
				// Subscriber is behind; the feed will re-announce live cells.
				c.log.Printf("event buffer full, dropping key=%s", ev.Key)
			}
		case protocol.TypeResult:
			var res protocol.ResultMsg
			if err := json.Unmarshal(msg, &res); err != nil {
				continue
			}
			c.mu.Lock()
			waiter := c.waiters[res.ID]
			c.mu.Unlock()
			if waiter != nil {
				waiter <- res
			}
		}
	}
}

func (c *Client) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}
