package relay

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nfrund/hexgames/internal/pubsub"
)

// Frame is one forwarded frame as seen on the bus.
type Frame struct {
	From    string    `json:"from"`
	Payload string    `json:"payload"`
	At      time.Time `json:"at"`
}

// MatchLog is the recorded history of one match.
type MatchLog struct {
	ID      string     `json:"id"`
	French  string     `json:"french"`
	English string     `json:"english"`
	Started time.Time  `json:"started"`
	Ended   *time.Time `json:"ended,omitempty"`
	Frames  []Frame    `json:"frames,omitempty"`
}

// Recorder keeps the frames of recent matches by listening on the bus.
// Only the last limit matches are kept.
type Recorder struct {
	limit int

	mu      sync.RWMutex
	matches map[string]*MatchLog
	order   []string
}

// NewRecorder returns a recorder keeping at most limit matches.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 16
	}
	return &Recorder{limit: limit, matches: map[string]*MatchLog{}}
}

// Subscribe starts recording from sub until ctx is done.
func (rec *Recorder) Subscribe(ctx context.Context, sub pubsub.Subscriber) error {
	if err := sub.Subscribe(ctx, MatchEvents.Name(), rec.onMatch); err != nil {
		return err
	}
	return sub.Subscribe(ctx, pubsub.TopicFrames, rec.onFrame)
}

func (rec *Recorder) onMatch(_ context.Context, msg pubsub.Message) error {
	ev, err := MatchEvents.Decode(msg)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	m := rec.get(msg.Match, ev.At)
	switch ev.Kind {
	case MatchPaired:
		m.French, m.English, m.Started = ev.French, ev.English, ev.At
	case MatchEnded:
		at := ev.At
		m.Ended = &at
	}
	return nil
}

// get returns the log of match, starting one if needed. Frames and match
// events arrive on separate subscriptions, so either may come first.
// Must be called with rec.mu held.
func (rec *Recorder) get(match string, at time.Time) *MatchLog {
	if m, ok := rec.matches[match]; ok {
		return m
	}
	m := &MatchLog{ID: match, Started: at}
	rec.matches[match] = m
	rec.order = append(rec.order, match)
	for len(rec.order) > rec.limit {
		delete(rec.matches, rec.order[0])
		rec.order = rec.order[1:]
	}
	return m
}

func (rec *Recorder) onFrame(_ context.Context, msg pubsub.Message) error {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	now := time.Now().UTC()
	m := rec.get(msg.Match, now)
	m.Frames = append(m.Frames, Frame{
		From:    msg.Metadata[pubsub.MetaFrom],
		Payload: string(msg.Payload),
		At:      now,
	})
	return nil
}

// Matches lists the recorded matches without their frames, newest first.
func (rec *Recorder) Matches() []MatchLog {
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	out := make([]MatchLog, 0, len(rec.matches))
	for _, m := range rec.matches {
		c := *m
		c.Frames = nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Started.After(out[j].Started) })
	return out
}

// Match returns a copy of one recorded match.
func (rec *Recorder) Match(id string) (MatchLog, bool) {
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	m, ok := rec.matches[id]
	if !ok {
		return MatchLog{}, false
	}
	c := *m
	c.Frames = append([]Frame(nil), m.Frames...)
	return c, true
}
