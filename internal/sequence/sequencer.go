package sequence

import (
	"fmt"
	"log/slog"
)

// TraceEvent describes one sequence transition.
type TraceEvent struct {
	Sequence string `json:"sequence"`
	Index    int    `json:"index"`
	Step     string `json:"step,omitempty"`
	Ended    bool   `json:"ended,omitempty"`
}

// Tracer observes sequence transitions.
type Tracer func(TraceEvent)

// SlogTracer logs every transition at debug level.
func SlogTracer(ev TraceEvent) {
	if ev.Ended {
		slog.Debug("Sequence ended", "sequence", ev.Sequence)
		return
	}
	slog.Debug("Sequence step", "sequence", ev.Sequence, "index", ev.Index, "step", ev.Step)
}

// Sequencer owns a set of sequences by name and the chain that starts at
// the top sequence.
type Sequencer struct {
	sequences map[string]*Sequence
	top       *Sequence
	tracer    Tracer
}

// NewSequencer returns an empty registry.
func NewSequencer() *Sequencer {
	return &Sequencer{sequences: make(map[string]*Sequence)}
}

// SetTracer installs an observer for transitions; nil removes it.
func (r *Sequencer) SetTracer(t Tracer) {
	r.tracer = t
}

// Add registers seq. When top is set, seq becomes the root of the chain.
func (r *Sequencer) Add(seq *Sequence, top bool) error {
	if _, ok := r.sequences[seq.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSequence, seq.Name)
	}
	seq.owner = r
	r.sequences[seq.Name] = seq
	if top {
		r.top = seq
	}
	return nil
}

// Get returns the sequence registered under name.
func (r *Sequencer) Get(name string) (*Sequence, bool) {
	seq, ok := r.sequences[name]
	return seq, ok
}

// Top returns the root of the chain.
func (r *Sequencer) Top() *Sequence {
	return r.top
}

// Leaf returns the innermost sequence of the chain, or nil without a top.
func (r *Sequencer) Leaf() *Sequence {
	if r.top == nil {
		return nil
	}
	seq := r.top
	for seq.next != nil {
		seq = seq.next
	}
	return seq
}

// Advance advances the leaf of the chain.
func (r *Sequencer) Advance() error {
	leaf := r.Leaf()
	if leaf == nil {
		return ErrNoTopSequence
	}
	leaf.Advance()
	return nil
}

// Jump links the sequence named to below from, optionally resets it, and
// advances it. A jump that would revisit from or one of its ancestors is
// refused with ErrCycle; use Return to unwind.
func (r *Sequencer) Jump(from *Sequence, to string, reset bool) error {
	target, ok := r.sequences[to]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSequence, to)
	}

	ancestors := map[*Sequence]bool{}
	for s := from; s != nil; s = s.prev {
		ancestors[s] = true
	}
	for s := target; s != nil; s = s.next {
		if ancestors[s] {
			return fmt.Errorf("%w: %q is already active above %q", ErrCycle, to, from.Name)
		}
	}

	if from.next != nil && from.next != target {
		from.next.prev = nil
	}
	if target.prev != nil && target.prev != from {
		target.prev.next = nil
	}
	from.next = target
	target.prev = from
	if reset {
		target.Reset()
	}
	target.Advance()
	return nil
}

// Return unlinks seq from the sequence that jumped into it and advances
// that parent. A sequence without a parent is left alone.
func (r *Sequencer) Return(seq *Sequence) {
	parent := seq.prev
	if parent == nil {
		return
	}
	seq.prev = nil
	parent.next = nil
	parent.Advance()
}

// ChainEntry is the saved position of one sequence in the chain.
type ChainEntry struct {
	Name    string `json:"name"`
	Index   int    `json:"index"`
	Started bool   `json:"started"`
	Next    string `json:"next,omitempty"`
}

// Snapshot is the chain from top to leaf.
type Snapshot []ChainEntry

// Snapshot records the chain. It is empty without a top sequence.
func (r *Sequencer) Snapshot() Snapshot {
	var snap Snapshot
	for seq := r.top; seq != nil; seq = seq.next {
		e := ChainEntry{Name: seq.Name, Index: seq.index, Started: seq.started}
		if seq.next != nil {
			e.Next = seq.next.Name
		}
		snap = append(snap, e)
	}
	return snap
}

// Restore relinks the chain recorded in snap and repositions every
// sequence in it. No callback runs; the caller decides whether to re-enter
// the leaf's current step. The first entry becomes the top. Restore
// returns the leaf, or nil for an empty snapshot.
func (r *Sequencer) Restore(snap Snapshot) (*Sequence, error) {
	if len(snap) == 0 {
		return nil, nil
	}
	chain := make([]*Sequence, 0, len(snap))
	seen := map[*Sequence]bool{}
	for _, e := range snap {
		seq, ok := r.sequences[e.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSequence, e.Name)
		}
		if seen[seq] {
			return nil, fmt.Errorf("%w: %q appears twice", ErrCycle, e.Name)
		}
		if e.Index < 0 || e.Index > len(seq.Steps) {
			return nil, fmt.Errorf("invalid step index %d for sequence %q", e.Index, e.Name)
		}
		seen[seq] = true
		chain = append(chain, seq)
	}

	for _, seq := range r.sequences {
		seq.prev, seq.next = nil, nil
	}
	var prev *Sequence
	for i, seq := range chain {
		seq.index = snap[i].Index
		seq.started = snap[i].Started
		if prev != nil {
			prev.next = seq
			seq.prev = prev
		}
		prev = seq
	}
	r.top = chain[0]
	return prev, nil
}
