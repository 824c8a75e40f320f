// Package relay pairs two websocket peers and forwards every frame one
// sends to the other, verbatim. The first peer to connect waits and plays
// French; the second plays English. A third connection is turned away as
// busy, and when either player leaves the other is told and dropped.
package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/nfrund/hexgames/internal/protocol"
	"github.com/nfrund/hexgames/internal/pubsub"
)

const (
	// Time allowed to write a frame to a peer.
	writeWait = 10 * time.Second
	// Largest frame accepted from a peer.
	readLimit = 64 << 10
	// Frames queued for a slow peer before it is dropped.
	sendBuffer = 64
)

// Match lifecycle events published on pubsub.TopicMatches.
const (
	MatchPaired = "paired"
	MatchEnded  = "ended"
)

// MatchEvent is the payload of pubsub.TopicMatches.
type MatchEvent struct {
	Kind    string    `json:"kind"`
	French  string    `json:"french"`
	English string    `json:"english"`
	At      time.Time `json:"at"`
}

// MatchEvents is the typed topic match events are published on.
var MatchEvents = pubsub.NewEvent[MatchEvent](pubsub.TopicMatches)

// Relay holds the pairing state. At most two peers are seated at a time.
type Relay struct {
	pub pubsub.Publisher
	log *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	a, b  *client
	match string
}

// client is one seated websocket peer.
type client struct {
	id     string
	player string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

// close stops the write pump once the queued frames are written.
func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// queue adds a frame to the client's outbox. It reports false when the
// outbox is full.
func (c *client) queue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// New creates a relay publishing its traffic on pub.
func New(pub pubsub.Publisher, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Relay{
		pub:    pub,
		log:    logger.With("component", "relay"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Peers returns the number of seated peers and the current match, if any.
func (r *Relay) Peers() (int, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	if r.a != nil {
		n++
	}
	if r.b != nil {
		n++
	}
	return n, r.match
}

// ServeHTTP upgrades the request and serves the peer until it leaves.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		r.log.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	conn.SetReadLimit(readLimit)

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	if !r.seat(c) {
		r.log.Info("Peer turned away", "peer", c.id)
		ctx, cancel := context.WithTimeout(r.ctx, writeWait)
		defer cancel()
		if err := conn.Write(ctx, websocket.MessageText, protocol.EncodeStatus(protocol.Status{Status: protocol.StatusBusy})); err != nil {
			r.log.Debug("Failed to send busy status", "peer", c.id, "error", err)
		}
		conn.Close(websocket.StatusTryAgainLater, protocol.StatusBusy)
		return
	}

	go r.writePump(c)
	r.readPump(c)
}

// seat places c in the first free slot and announces the new state.
func (r *Relay) seat(c *client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.a == nil:
		r.a = c
		c.player = protocol.PlayerFrench
		c.queue(protocol.EncodeStatus(protocol.Status{Status: protocol.StatusWaiting}))
		r.log.Info("Peer waiting", "peer", c.id)
		return true

	case r.b == nil:
		r.b = c
		c.player = protocol.PlayerEnglish
		r.match = uuid.NewString()
		r.a.queue(protocol.EncodeStatus(protocol.Status{Status: protocol.StatusConnected, Player: r.a.player}))
		r.b.queue(protocol.EncodeStatus(protocol.Status{Status: protocol.StatusConnected, Player: r.b.player}))
		r.log.Info("Match paired", "match", r.match, "french", r.a.id, "english", r.b.id)
		r.announce(MatchPaired)
		return true
	}
	return false
}

// leave removes c from its slot. Its opponent is told and dropped too.
// Must be called with r.mu held.
func (r *Relay) leave(c *client) {
	var other *client
	switch c {
	case r.a:
		r.a, other = nil, r.b
	case r.b:
		r.b, other = nil, r.a
	default:
		c.close()
		return
	}
	c.close()
	r.log.Info("Peer left", "peer", c.id, "player", c.player, "match", r.match)

	if other != nil {
		if r.a == other {
			r.a = nil
		} else {
			r.b = nil
		}
		other.queue(protocol.EncodeStatus(protocol.Status{Status: protocol.StatusDisconnected}))
		other.close()
	}
	if r.match != "" {
		r.announce(MatchEnded)
		r.match = ""
	}
}

// announce publishes a match event. Must be called with r.mu held.
func (r *Relay) announce(kind string) {
	ev := MatchEvent{Kind: kind, At: time.Now().UTC()}
	if r.a != nil {
		ev.French = r.a.id
	}
	if r.b != nil {
		ev.English = r.b.id
	}
	if err := pubsub.Publish(r.ctx, r.pub, MatchEvents, r.match, ev); err != nil {
		r.log.Error("Failed to publish match event", "kind", kind, "match", r.match, "error", err)
	}
}

// forward hands a frame from c to its opponent. Frames sent while c waits
// alone are dropped.
func (r *Relay) forward(c *client, frame []byte) {
	r.mu.Lock()
	var other *client
	switch c {
	case r.a:
		other = r.b
	case r.b:
		other = r.a
	}
	match := r.match
	if other != nil && !other.queue(frame) {
		r.log.Warn("Peer send queue full, dropping match", "peer", other.id, "match", match)
		r.leave(other)
		other = nil
	}
	r.mu.Unlock()

	if other == nil {
		r.log.Debug("Frame dropped without opponent", "peer", c.id)
		return
	}
	err := r.pub.Publish(r.ctx, pubsub.Message{
		Topic:   pubsub.TopicFrames,
		Match:   match,
		Payload: frame,
		Metadata: map[string]string{
			pubsub.MetaFrom: c.player,
		},
	})
	if err != nil {
		r.log.Error("Failed to publish frame", "match", match, "error", err)
	}
}

// readPump reads frames from the peer until the connection ends.
func (r *Relay) readPump(c *client) {
	defer func() {
		r.mu.Lock()
		r.leave(c)
		r.mu.Unlock()
	}()

	for {
		_, frame, err := c.conn.Read(r.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				r.log.Info("WebSocket closed normally by peer", "peer", c.id)
			case errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
			default:
				r.log.Debug("WebSocket read ended", "peer", c.id, "error", err)
			}
			return
		}
		r.forward(c, frame)
	}
}

// writePump writes queued frames to the peer. It closes the connection
// once the outbox is closed and drained.
func (r *Relay) writePump(c *client) {
	defer c.conn.Close(websocket.StatusNormalClosure, "")

	for frame := range c.send {
		ctx, cancel := context.WithTimeout(r.ctx, writeWait)
		err := c.conn.Write(ctx, websocket.MessageText, frame)
		cancel()
		if err != nil {
			r.log.Error("WebSocket write error", "peer", c.id, "error", err)
			return
		}
	}
}

// Shutdown drops both peers and stops every pump.
func (r *Relay) Shutdown() {
	r.mu.Lock()
	for _, c := range []*client{r.a, r.b} {
		if c != nil {
			r.leave(c)
		}
	}
	r.mu.Unlock()
	r.cancel()
}
