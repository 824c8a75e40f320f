package game

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nfrund/hexgames/internal/combat"
	"github.com/nfrund/hexgames/internal/hexmap"
	"github.com/nfrund/hexgames/internal/movement"
	"github.com/nfrund/hexgames/internal/protocol"
	"github.com/nfrund/hexgames/internal/sequence"
	"github.com/nfrund/hexgames/internal/units"
)

var (
	// ErrNotConnected is returned for actions before the players are known.
	ErrNotConnected = errors.New("session is not connected")
	// ErrNotYourTurn is returned for actions of the player not to act.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrWrongPhase is returned for actions the current phase does not allow.
	ErrWrongPhase = errors.New("action not allowed in this phase")
	// ErrNotYourUnit is returned for a unit of the other side.
	ErrNotYourUnit = errors.New("unit belongs to the other side")
	// ErrNoSelection is returned when an action needs a selected unit.
	ErrNoSelection = errors.New("no unit selected")
	// ErrAlreadyMoved is returned when selecting a unit that moved this phase.
	ErrAlreadyMoved = errors.New("unit has already moved")
	// ErrUnreachable is returned for a move outside the reachable hexes.
	ErrUnreachable = errors.New("hex is not reachable")
	// ErrOffMap is returned for a coordinate outside the map.
	ErrOffMap = errors.New("hex is outside the map")
	// ErrInvalidDeployment is returned when deployed units had to be removed.
	ErrInvalidDeployment = errors.New("invalid deployment")
	// ErrNoExchange is returned when paying losses with no exchange open.
	ErrNoExchange = errors.New("no exchange to pay")
	// ErrDesync is returned when a peer message does not fit the local state.
	ErrDesync = errors.New("peer out of sync")
)

// Sequence and step names.
const (
	GameSequence   = "game"
	PlayerSequence = "player"

	StepConnect       = "Connect to Server"
	StepPrepare       = "Prepare"
	StepCheckWinner   = "Check Winner"
	StepStepTurn      = "Step Turn"
	StepDeclareWinner = "Declare Winner"
	StepEndOfGame     = "End of Game"

	PhaseMovement = "Movement"
	PhaseCombat   = "Combat"
	StepProceed   = "Proceed turn"
)

func deploymentStep(s Side) string { return s.Player + " Deployment" }
func validateStep(s Side) string   { return "Validate " + s.Player + " Deployment" }
func turnStep(s Side) string       { return s.Player + " Turn" }

// Sender delivers messages to the remote player.
type Sender interface {
	Send(protocol.Message) error
}

// CostSource returns the movement cost function of a unit. Both
// movement.Rules and a compiled cost script satisfy it.
type CostSource interface {
	For(u *units.Unit) movement.CostFunc
}

// Options configures a session. The zero value is a hot-seat game with
// the standard rules and random dice.
type Options struct {
	Sender Sender
	Dice   combat.Dice
	Cost   CostSource
	Tracer sequence.Tracer
	Logger *slog.Logger
}

// Session is one game of a scenario. It is driven by a single goroutine:
// local actions and remote messages must not be applied concurrently.
type Session struct {
	sc   *Scenario
	m    *hexmap.Map
	pop  *units.Population
	seqr *sequence.Sequencer
	opts Options
	log  *slog.Logger

	connected bool
	me        string
	clock     Clock
	side      Side
	phase     string
	winner    string
	builds    []string

	objectives []*hexmap.Hex
	resolver   *combat.Resolver
	selected   *units.Unit
	reach      map[*hexmap.Hex]int
	rejected   []*units.Unit
}

// NewSession builds the scenario and its turn sequences. The session is
// idle until Start.
func NewSession(sc *Scenario, opts Options) (*Session, error) {
	m, pop, err := sc.Build()
	if err != nil {
		return nil, err
	}
	if opts.Dice == nil {
		opts.Dice = combat.NewRandomDice()
	}
	if opts.Cost == nil {
		opts.Cost = movement.Rules{StackLimit: sc.StackLimit}
	}
	if opts.Tracer == nil {
		opts.Tracer = sequence.SlogTracer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		sc:         sc,
		m:          m,
		pop:        pop,
		seqr:       sequence.NewSequencer(),
		opts:       opts,
		log:        logger.With("scenario", sc.Name),
		clock:      sc.Clock.Start,
		side:       sc.Sides[0],
		builds:     []string{},
		objectives: m.HexesWithProp(hexmap.Objective),
	}
	s.seqr.SetTracer(opts.Tracer)
	if err := s.seqr.Add(s.gameSequence(), true); err != nil {
		return nil, err
	}
	if err := s.seqr.Add(s.playerSequence(), false); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) gameSequence() *sequence.Sequence {
	first, second := s.sc.Sides[0], s.sc.Sides[1]
	steps := []sequence.Step{{Name: StepConnect}}
	for _, side := range []Side{first, second} {
		steps = append(steps, s.deploymentSteps(side)...)
	}
	steps = append(steps,
		sequence.Step{Name: StepPrepare, Enter: func(seq *sequence.Sequence) { seq.Advance() }},
		s.turnStep(second),
		s.turnStep(first),
		sequence.Step{Name: StepCheckWinner, Enter: s.checkWinner},
		sequence.Step{Name: StepStepTurn, Enter: s.stepTurn},
		sequence.Step{Name: StepDeclareWinner, Enter: s.declareWinner},
		sequence.Step{Name: StepEndOfGame, Enter: s.updatePhase},
	)
	return sequence.New(GameSequence, steps...)
}

func (s *Session) deploymentSteps(side Side) []sequence.Step {
	return []sequence.Step{
		{
			Name: deploymentStep(side),
			Enter: func(seq *sequence.Sequence) {
				s.side = side
				s.updatePhase(seq)
				if !s.local() {
					seq.Advance()
				}
			},
		},
		{
			Name: validateStep(side),
			Enter: func(seq *sequence.Sequence) {
				if !s.local() {
					return
				}
				if !s.validateDeployment(side) {
					if err := seq.Goto(deploymentStep(side)); err != nil {
						s.log.Error("Failed to return to deployment", "error", err)
					}
					return
				}
				s.send(protocol.NewDeployment(s.placed(side.Nation)))
				s.send(protocol.NewNextStep())
				seq.Advance()
			},
		},
	}
}

func (s *Session) turnStep(side Side) sequence.Step {
	return sequence.Step{
		Name: turnStep(side),
		Enter: func(seq *sequence.Sequence) {
			s.side = side
			if err := s.seqr.Jump(seq, PlayerSequence, true); err != nil {
				s.log.Error("Failed to start player turn", "player", side.Player, "error", err)
			}
		},
	}
}

func (s *Session) playerSequence() *sequence.Sequence {
	return sequence.New(PlayerSequence,
		sequence.Step{
			Name: PhaseMovement,
			Enter: func(seq *sequence.Sequence) {
				s.updatePhase(seq)
				s.m.ComputeZOC(s.side.Nation)
			},
			Exit: func(*sequence.Sequence) {
				s.pop.ResetTurn(s.side.Nation)
				s.unselect()
				if s.local() {
					s.send(protocol.NewNextStep())
				}
			},
		},
		sequence.Step{
			Name: PhaseCombat,
			Enter: func(seq *sequence.Sequence) {
				s.updatePhase(seq)
				for _, u := range s.pop.All() {
					u.Attacked = false
				}
				s.resolver = combat.NewResolver(s.m, s.side.Nation, s.opts.Dice)
			},
			Exit: func(*sequence.Sequence) {
				s.resolver = nil
				if s.local() {
					s.send(protocol.NewNextStep())
				}
			},
		},
		sequence.Step{Name: StepProceed, Enter: sequence.Back},
	)
}

func (s *Session) updatePhase(seq *sequence.Sequence) {
	if step, ok := seq.Current(); ok {
		s.phase = step.Name
	}
	s.log.Info("Phase", "clock", s.clock, "player", s.side.Player, "phase", s.phase)
}

func (s *Session) checkWinner(seq *sequence.Sequence) {
	if holder, ok := s.objectiveHolder(); ok && s.holdsObjectives(holder.Nation) {
		s.winner = holder.Country
		if err := seq.Goto(StepDeclareWinner); err != nil {
			s.log.Error("Failed to declare winner", "error", err)
		}
		return
	}
	seq.Advance()
}

func (s *Session) stepTurn(seq *sequence.Sequence) {
	s.clock = s.clock.Add(s.sc.Clock.Step)
	if s.clock.Before(s.sc.Clock.End) {
		if err := seq.Goto(turnStep(s.sc.Sides[1])); err != nil {
			s.log.Error("Failed to start next turn", "error", err)
		}
		return
	}
	seq.Advance()
}

func (s *Session) declareWinner(seq *sequence.Sequence) {
	if s.winner == "" {
		for _, side := range s.sc.Sides {
			if !side.Objectives {
				s.winner = side.Country
				break
			}
		}
	}
	s.updatePhase(seq)
	s.log.Info("Game over", "winner", s.winner, "clock", s.clock)
}

func (s *Session) objectiveHolder() (Side, bool) {
	for _, side := range s.sc.Sides {
		if side.Objectives {
			return side, true
		}
	}
	return Side{}, false
}

// holdsObjectives reports whether every objective hex holds a unit of
// nation. A scenario without objectives can not be won this way.
func (s *Session) holdsObjectives(nation string) bool {
	if len(s.objectives) == 0 {
		return false
	}
	for _, h := range s.objectives {
		held := false
		for _, u := range h.Units() {
			if u.Nation == nation {
				held = true
				break
			}
		}
		if !held {
			return false
		}
	}
	return true
}

// validateDeployment removes every unit of side outside its zone or in an
// overstacked hex and reports whether none had to be removed.
func (s *Session) validateDeployment(side Side) bool {
	s.rejected = nil
	limit := s.stackLimit()
	var bad []*units.Unit
	for _, u := range s.pop.Nation(side.Nation) {
		h, ok := s.m.HexOf(u)
		if !ok {
			continue
		}
		if !h.Has(side.Zone[0]) || h.Count() > limit {
			bad = append(bad, u)
		}
	}
	for _, u := range bad {
		s.m.RemoveUnit(u)
	}
	if len(bad) > 0 {
		s.rejected = bad
		s.log.Warn("Invalid deployment", "player", side.Player, "removed", len(bad))
	}
	return len(bad) == 0
}

func (s *Session) stackLimit() int {
	if s.sc.StackLimit > 0 {
		return s.sc.StackLimit
	}
	return movement.DefaultStackLimit
}

func (s *Session) placed(nation string) []protocol.Placed {
	var out []protocol.Placed
	for _, u := range s.pop.Nation(nation) {
		if u.Hex != nil {
			out = append(out, protocol.Placed{I: u.Index, Hex: *u.Hex})
		}
	}
	return out
}

func (s *Session) send(msg protocol.Message) {
	if s.opts.Sender == nil {
		return
	}
	if err := s.opts.Sender.Send(msg); err != nil {
		s.log.Error("Failed to send message", "type", msg.Type, "error", err)
	}
}

// local reports whether the player to act plays at this end.
func (s *Session) local() bool {
	return s.localSide(s.side)
}

func (s *Session) localSide(side Side) bool {
	return s.me == "" || s.me == side.Player
}

func (s *Session) other(side Side) Side {
	if s.sc.Sides[0].Nation == side.Nation {
		return s.sc.Sides[1]
	}
	return s.sc.Sides[0]
}

func (s *Session) unselect() {
	s.selected = nil
	s.reach = nil
	s.m.ClearMovement()
}

// Start enters the first step and waits for Connected.
func (s *Session) Start() error {
	if s.seqr.Top().State() != sequence.NotStarted {
		return fmt.Errorf("session already started")
	}
	return s.seqr.Advance()
}

// Connected records which player plays at this end and starts the game,
// or resumes it after Restore. An empty player makes every side local,
// for hot-seat play without a peer.
func (s *Session) Connected(player string) error {
	if s.connected {
		return fmt.Errorf("session already connected as %q", s.me)
	}
	if player != "" {
		found := false
		for _, side := range s.sc.Sides {
			found = found || side.Player == player
		}
		if !found {
			return fmt.Errorf("unknown player %q", player)
		}
	}
	step, ok := s.seqr.Top().Current()
	if !ok {
		return fmt.Errorf("%w: session not started", ErrWrongPhase)
	}
	s.me = player
	s.connected = true
	s.log.Info("Connected", "me", player)
	if step.Name != StepConnect {
		// A restored game continues where it was saved.
		return nil
	}
	return s.seqr.Advance()
}

// Scenario returns the scenario being played.
func (s *Session) Scenario() *Scenario { return s.sc }

// Map returns the game map.
func (s *Session) Map() *hexmap.Map { return s.m }

// Units returns the unit population.
func (s *Session) Units() *units.Population { return s.pop }

// Me returns the local player, empty for hot-seat play.
func (s *Session) Me() string { return s.me }

// Clock returns the game time of the current turn.
func (s *Session) Clock() Clock { return s.clock }

// Player returns the player to act.
func (s *Session) Player() string { return s.side.Player }

// Nation returns the nation to act.
func (s *Session) Nation() string { return s.side.Nation }

// Phase returns the name of the current phase.
func (s *Session) Phase() string { return s.phase }

// Winner returns the winning country once the game is decided.
func (s *Session) Winner() string { return s.winner }

// Over reports whether the game has ended.
func (s *Session) Over() bool { return s.winner != "" }

// MyTurn reports whether the player to act plays at this end.
func (s *Session) MyTurn() bool { return s.connected && s.local() }

// Selected returns the selected unit, or nil.
func (s *Session) Selected() *units.Unit { return s.selected }

// Combat returns the combat state of the current combat phase, or nil.
func (s *Session) Combat() *combat.Resolver { return s.resolver }

// Sequencer exposes the turn structure, for tracing and tests.
func (s *Session) Sequencer() *sequence.Sequencer { return s.seqr }

// Step returns the name of the innermost current step.
func (s *Session) Step() string {
	leaf := s.seqr.Leaf()
	if leaf == nil {
		return ""
	}
	step, _ := leaf.Current()
	return step.Name
}
