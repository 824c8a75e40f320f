// Package sequence drives the turn structure of a game: named sequences of
// steps, chained into nested sub-sequences, with a single driver that
// always advances the innermost active sequence.
//
// A step's Enter callback may advance, jump or return; the whole cascade
// completes before the triggering call returns. Exit callbacks must not
// jump or return.
package sequence

import (
	"errors"
	"fmt"
)

var (
	// ErrStepNotFound is returned by Goto for an unknown step name.
	ErrStepNotFound = errors.New("step not found")
	// ErrUnknownSequence is returned when a name does not match any
	// registered sequence.
	ErrUnknownSequence = errors.New("unknown sequence")
	// ErrNoTopSequence is returned when the driver has nothing to advance.
	ErrNoTopSequence = errors.New("no top sequence")
	// ErrCycle is returned when linking would make the chain loop.
	ErrCycle = errors.New("sequence chain cycle")
	// ErrDuplicateSequence is returned when a name is registered twice.
	ErrDuplicateSequence = errors.New("duplicate sequence name")
)

// State is the position of a sequence in its steps.
type State int

const (
	NotStarted State = iota
	AtStep
	Ended
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case AtStep:
		return "at step"
	case Ended:
		return "ended"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Step is one phase of a sequence. Enter runs when the step becomes
// current, Exit when the sequence advances past it.
type Step struct {
	Name  string
	Enter func(*Sequence)
	Exit  func(*Sequence)
}

// Sequence is an ordered list of steps.
type Sequence struct {
	Name  string
	Steps []Step

	index   int
	started bool

	prev, next *Sequence
	owner      *Sequencer
}

// New returns a sequence that has not started.
func New(name string, steps ...Step) *Sequence {
	return &Sequence{Name: name, Steps: steps}
}

// State returns where the sequence is.
func (s *Sequence) State() State {
	switch {
	case !s.started:
		return NotStarted
	case s.index >= len(s.Steps):
		return Ended
	}
	return AtStep
}

// Index returns the current step index.
func (s *Sequence) Index() int {
	return s.index
}

// Current returns the current step, if the sequence is at one.
func (s *Sequence) Current() (Step, bool) {
	if s.State() != AtStep {
		return Step{}, false
	}
	return s.Steps[s.index], true
}

// Sequencer returns the registry the sequence was added to, or nil.
func (s *Sequence) Sequencer() *Sequencer {
	return s.owner
}

// Next returns the sub-sequence this one has jumped into, or nil.
func (s *Sequence) Next() *Sequence {
	return s.next
}

// Prev returns the sequence that jumped into this one, or nil.
func (s *Sequence) Prev() *Sequence {
	return s.prev
}

// Reset puts the sequence back before its first step without running any
// callback. Chain links are kept.
func (s *Sequence) Reset() {
	s.index = 0
	s.started = false
}

// Advance moves to the next step. The first call enters step 0. Later calls
// run the current step's Exit, then enter the following step or end the
// sequence. Advancing an ended sequence does nothing.
func (s *Sequence) Advance() {
	switch s.State() {
	case Ended:
		return
	case NotStarted:
		if len(s.Steps) == 0 {
			s.started = true
			s.trace()
			return
		}
		s.started = true
		s.index = 0
		s.enter()
		return
	}

	if exit := s.Steps[s.index].Exit; exit != nil {
		exit(s)
	}
	s.index++
	if s.index >= len(s.Steps) {
		s.trace()
		return
	}
	s.enter()
}

// RepeatStep runs the current step's Enter again without running its
// Exit. It does nothing unless the sequence is at a step.
func (s *Sequence) RepeatStep() {
	if s.State() != AtStep {
		return
	}
	s.enter()
}

// Goto makes the named step current and runs its Enter. The Exit of the
// step being left is not run. An unknown name leaves the state unchanged.
func (s *Sequence) Goto(name string) error {
	for i, step := range s.Steps {
		if step.Name == name {
			s.started = true
			s.index = i
			s.enter()
			return nil
		}
	}
	return fmt.Errorf("%w: %q in sequence %q", ErrStepNotFound, name, s.Name)
}

func (s *Sequence) enter() {
	s.trace()
	if enter := s.Steps[s.index].Enter; enter != nil {
		enter(s)
	}
}

func (s *Sequence) trace() {
	if s.owner == nil || s.owner.tracer == nil {
		return
	}
	ev := TraceEvent{Sequence: s.Name, Index: s.index}
	if step, ok := s.Current(); ok {
		ev.Step = step.Name
	} else {
		ev.Ended = true
	}
	s.owner.tracer(ev)
}

// Back returns from seq to the sequence that jumped into it. It is meant
// to be used as the Enter of a sequence's final step.
func Back(seq *Sequence) {
	if seq.owner != nil {
		seq.owner.Return(seq)
	}
}
