// Package peer is the client side of the relay: a websocket channel that
// carries protocol messages to the opponent and reports relay status
// frames and incoming messages back to the game.
package peer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nfrund/hexgames/internal/game"
	"github.com/nfrund/hexgames/internal/protocol"
)

const writeWait = 10 * time.Second

var (
	// ErrDisconnected is returned once the channel to the opponent is gone.
	// There is no reconnection.
	ErrDisconnected = errors.New("peer disconnected")
	// ErrBusy is returned when the relay already seats two players.
	ErrBusy = errors.New("relay busy")
)

// Event is one frame received from the relay: either a status frame or a
// gameplay message.
type Event struct {
	Status  *protocol.Status
	Message *protocol.Message
}

// Game is what incoming events are applied to.
type Game interface {
	Connected(player string) error
	Handle(msg protocol.Message) error
}

// Conn is a websocket connection to the relay. Send is safe for
// concurrent use; Receive must be called from one goroutine.
type Conn struct {
	ws  *websocket.Conn
	log *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Dial connects to the relay at url.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Conn{ws: ws, log: logger.With("component", "peer", "relay", url)}, nil
}

// Send encodes msg and writes it to the relay.
func (c *Conn) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrDisconnected
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	c.log.Debug("Sent", "type", msg.Type)
	return nil
}

// Receive blocks for the next frame. A disconnected status frame or a
// failed read yields ErrDisconnected; a busy status yields ErrBusy.
// Malformed frames are returned as errors without ending the channel.
func (c *Conn) Receive() (Event, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		c.Close()
		return Event{}, fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	ev, err := parse(data)
	if errors.Is(err, ErrDisconnected) || errors.Is(err, ErrBusy) {
		c.Close()
	}
	return ev, err
}

// parse tells status frames from gameplay messages by their keys.
func parse(data []byte) (Event, error) {
	var probe struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Event{}, fmt.Errorf("%w: %v", protocol.ErrMalformed, err)
	}
	if probe.Status != "" {
		st, err := protocol.DecodeStatus(data)
		if err != nil {
			return Event{}, err
		}
		switch st.Status {
		case protocol.StatusDisconnected:
			return Event{Status: &st}, ErrDisconnected
		case protocol.StatusBusy:
			return Event{Status: &st}, ErrBusy
		}
		return Event{Status: &st}, nil
	}
	msg, err := protocol.Decode(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Message: &msg}, nil
}

// Close ends the connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	return c.ws.Close()
}

// Apply hands ev to g: a connected status starts the game as the assigned
// player, a message is replayed. Waiting statuses are only logged.
func Apply(g Game, ev Event, logger *slog.Logger) error {
	switch {
	case ev.Status != nil:
		switch ev.Status.Status {
		case protocol.StatusConnected:
			return g.Connected(ev.Status.Player)
		case protocol.StatusWaiting:
			if logger != nil {
				logger.Info("Waiting for an opponent")
			}
		}
		return nil
	case ev.Message != nil:
		return g.Handle(*ev.Message)
	}
	return nil
}

// Run receives frames and passes them to apply until the channel ends or
// ctx is done. apply runs on the calling goroutine. A game.ErrDesync from
// apply is fatal and closes the channel; other errors are logged and play
// goes on.
func (c *Conn) Run(ctx context.Context, apply func(Event) error) error {
	events := make(chan Event)
	errs := make(chan error, 1)
	go func() {
		for {
			ev, err := c.Receive()
			if errors.Is(err, ErrDisconnected) || errors.Is(err, ErrBusy) {
				errs <- err
				return
			}
			if err != nil {
				c.log.Warn("Malformed frame", "error", err)
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			c.Close()
			return ctx.Err()
		case err := <-errs:
			c.Close()
			return err
		case ev := <-events:
			err := apply(ev)
			if errors.Is(err, game.ErrDesync) {
				c.log.Error("Game out of sync with the opponent", "error", err)
				c.Close()
				return err
			}
			if err != nil {
				c.log.Warn("Event rejected", "error", err)
			}
		}
	}
}
