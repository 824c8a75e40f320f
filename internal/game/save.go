package game

import (
	"errors"
	"fmt"

	"github.com/nfrund/hexgames/internal/combat"
	"github.com/nfrund/hexgames/internal/hexgrid"
	"github.com/nfrund/hexgames/internal/sequence"
	"github.com/nfrund/hexgames/internal/units"
)

// SaveVersion is the save format written by this package.
const SaveVersion = 1

var (
	// ErrUnsupportedVersion is returned for saves from a newer format.
	ErrUnsupportedVersion = errors.New("unsupported save version")
	// ErrScenarioMismatch is returned for saves of another scenario.
	ErrScenarioMismatch = errors.New("save is for another scenario")
)

// Turn is the game time, the player to act and the phase of a save.
type Turn struct {
	Clock
	Player string `json:"player"`
	Phase  string `json:"phase"`
	Winner string `json:"winner,omitempty"`
}

// Save is the persisted state of a session.
type Save struct {
	Version         int               `json:"version"`
	Scenario        string            `json:"scenario,omitempty"`
	Turn            Turn              `json:"turn"`
	Sequence        sequence.Snapshot `json:"sequence"`
	Deployment      []units.Placement `json:"deployment"`
	AllowableBuilds []string          `json:"allowableBuilds"`
}

// Save captures the session. A game can not be saved while exchange
// losses are owed.
func (s *Session) Save() (Save, error) {
	if s.resolver != nil && s.resolver.Exchange() != nil {
		return Save{}, combat.ErrExchangePending
	}
	deployment := s.pop.Deployment()
	if deployment == nil {
		deployment = []units.Placement{}
	}
	return Save{
		Version:  SaveVersion,
		Scenario: s.sc.Name,
		Turn: Turn{
			Clock:  s.clock,
			Player: s.side.Player,
			Phase:  s.phase,
			Winner: s.winner,
		},
		Sequence:        s.seqr.Snapshot(),
		Deployment:      deployment,
		AllowableBuilds: append([]string{}, s.builds...),
	}, nil
}

// Restore puts the session in the state of sv. Units are placed from the
// deployment, the turn structure is repositioned without running any step
// callback, and the state of the current phase is rebuilt. Units moved or
// attacking before the save are fresh again. The save is checked in full
// first; a failed Restore leaves the session as it was.
func (s *Session) Restore(sv Save) error {
	if sv.Version > SaveVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, sv.Version)
	}
	if sv.Scenario != "" && sv.Scenario != s.sc.Name {
		return fmt.Errorf("%w: save of %q, playing %q", ErrScenarioMismatch, sv.Scenario, s.sc.Name)
	}
	side, ok := s.sideOf(sv.Turn.Player)
	if !ok {
		return fmt.Errorf("unknown player %q in save", sv.Turn.Player)
	}
	placements, err := s.resolveDeployment(sv.Deployment)
	if err != nil {
		return fmt.Errorf("restore deployment: %w", err)
	}
	if _, err := s.seqr.Restore(sv.Sequence); err != nil {
		return fmt.Errorf("restore sequence: %w", err)
	}

	for _, u := range s.pop.All() {
		s.m.RemoveUnit(u)
		u.ResetTurn()
	}
	for _, p := range placements {
		s.m.AddUnit(p.u, p.at)
	}
	s.clock = sv.Turn.Clock
	s.side = side
	s.phase = sv.Turn.Phase
	s.winner = sv.Turn.Winner
	s.builds = append([]string{}, sv.AllowableBuilds...)
	s.unselect()
	s.resolver = nil
	switch s.Step() {
	case PhaseMovement:
		s.m.ComputeZOC(side.Nation)
	case PhaseCombat:
		s.resolver = combat.NewResolver(s.m, side.Nation, s.opts.Dice)
	}
	s.log.Info("Restored", "clock", s.clock, "player", side.Player, "phase", s.phase)
	return nil
}

type placement struct {
	u  *units.Unit
	at hexgrid.Offset
}

// resolveDeployment finds the unit and hex of every entry without touching
// the map. Every bad entry is reported.
func (s *Session) resolveDeployment(deployment []units.Placement) ([]placement, error) {
	out := make([]placement, 0, len(deployment))
	taken := map[*units.Unit]bool{}
	skip := func(u *units.Unit) bool { return taken[u] }
	var errs []error
	for _, p := range deployment {
		u, err := s.pop.Resolve(p, skip)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, ok := s.m.Get(p.Hex); !ok {
			errs = append(errs, fmt.Errorf("%w: %s at %s", ErrOffMap, u, p.Hex))
			continue
		}
		taken[u] = true
		out = append(out, placement{u: u, at: p.Hex})
	}
	return out, errors.Join(errs...)
}

func (s *Session) sideOf(player string) (Side, bool) {
	for _, side := range s.sc.Sides {
		if side.Player == player {
			return side, true
		}
	}
	return Side{}, false
}
