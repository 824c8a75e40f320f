package game

import (
	"fmt"
	"sort"

	"github.com/nfrund/hexgames/internal/combat"
	"github.com/nfrund/hexgames/internal/hexgrid"
	"github.com/nfrund/hexgames/internal/hexmap"
	"github.com/nfrund/hexgames/internal/movement"
	"github.com/nfrund/hexgames/internal/protocol"
	"github.com/nfrund/hexgames/internal/units"
)

// act checks that the local player may act in phase.
func (s *Session) act(phase string) error {
	if !s.connected {
		return ErrNotConnected
	}
	if !s.local() {
		return ErrNotYourTurn
	}
	if phase != "" && s.Step() != phase {
		return fmt.Errorf("%w: %s during %s", ErrWrongPhase, phase, s.Step())
	}
	return nil
}

func (s *Session) hex(off hexgrid.Offset) (*hexmap.Hex, error) {
	h, ok := s.m.Get(off)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOffMap, off)
	}
	return h, nil
}

// Next ends the current step of the local player. During deployment it
// validates the placement; units outside the zone or overstacked are
// taken off the map and ErrInvalidDeployment is returned.
func (s *Session) Next() error {
	if err := s.act(""); err != nil {
		return err
	}
	if s.Over() {
		return fmt.Errorf("%w: the game is over", ErrWrongPhase)
	}
	if s.resolver != nil && s.resolver.Exchange() != nil {
		return combat.ErrExchangePending
	}
	s.rejected = nil
	if err := s.seqr.Advance(); err != nil {
		return err
	}
	if n := len(s.rejected); n > 0 {
		return fmt.Errorf("%w: %d units removed", ErrInvalidDeployment, n)
	}
	return nil
}

// Deploy places u of the deploying side at off. Placement is only checked
// when the deployment ends.
func (s *Session) Deploy(u *units.Unit, off hexgrid.Offset) error {
	if err := s.act(deploymentStep(s.side)); err != nil {
		return err
	}
	if u.Nation != s.side.Nation {
		return fmt.Errorf("%w: %s", ErrNotYourUnit, u)
	}
	if !s.m.AddUnit(u, off) {
		return fmt.Errorf("%w: %s", ErrOffMap, off)
	}
	return nil
}

// Undeploy takes u of the deploying side back off the map.
func (s *Session) Undeploy(u *units.Unit) error {
	if err := s.act(deploymentStep(s.side)); err != nil {
		return err
	}
	if u.Nation != s.side.Nation {
		return fmt.Errorf("%w: %s", ErrNotYourUnit, u)
	}
	s.m.RemoveUnit(u)
	return nil
}

// AutoDeploy places every off-map unit of the deploying side in its zone,
// filling hexes up to the stacking limit in map order. It returns the
// number of units left off-map for lack of room.
func (s *Session) AutoDeploy() (int, error) {
	if err := s.act(deploymentStep(s.side)); err != nil {
		return 0, err
	}
	limit := s.stackLimit()
	zone := s.m.HexesWithProp(s.side.Zone[0])
	left := 0
	for _, u := range s.pop.Nation(s.side.Nation) {
		if u.OnMap() {
			continue
		}
		placed := false
		for _, h := range zone {
			if h.Count() < limit && !h.HasEnemyOf(u.Nation) {
				placed = s.m.AddUnit(u, h.Offset)
				break
			}
		}
		if !placed {
			left++
		}
	}
	return left, nil
}

// Select makes u the selected unit. During the local movement phase a
// friendly unit that has not moved gets its reachable hexes computed,
// which are returned row by row.
func (s *Session) Select(u *units.Unit) ([]*hexmap.Hex, error) {
	if err := s.act(PhaseMovement); err != nil {
		return nil, err
	}
	s.unselect()
	s.selected = u
	if u.Nation != s.side.Nation {
		return nil, fmt.Errorf("%w: %s", ErrNotYourUnit, u)
	}
	if u.Prev != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyMoved, u)
	}
	start, ok := s.m.HexOf(u)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not on the map", ErrOffMap, u)
	}
	s.reach = movement.Reachable(s.m, u.Movement, start, s.opts.Cost.For(u))
	return s.Reachable(), nil
}

// Reachable returns the hexes the selected unit may move to.
func (s *Session) Reachable() []*hexmap.Hex {
	out := make([]*hexmap.Hex, 0, len(s.reach))
	for h := range s.reach {
		out = append(out, h)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Offset.Y != out[b].Offset.Y {
			return out[a].Offset.Y < out[b].Offset.Y
		}
		return out[a].Offset.X < out[b].Offset.X
	})
	return out
}

// MoveTo moves the selected unit to off, which must be one of its
// reachable hexes.
func (s *Session) MoveTo(off hexgrid.Offset) error {
	if err := s.act(PhaseMovement); err != nil {
		return err
	}
	u := s.selected
	if u == nil || s.reach == nil {
		return ErrNoSelection
	}
	h, err := s.hex(off)
	if err != nil {
		return err
	}
	if _, ok := s.reach[h]; !ok {
		return fmt.Errorf("%w: %s to %s", ErrUnreachable, u, off)
	}
	s.m.MoveUnit(u, off)
	u.Moved = true
	s.reach = nil
	s.m.ClearMovement()
	s.send(protocol.NewMove(u.Index, off))
	return nil
}

// Regret takes back the move of the selected unit.
func (s *Session) Regret() error {
	if err := s.act(PhaseMovement); err != nil {
		return err
	}
	u := s.selected
	if u == nil {
		return ErrNoSelection
	}
	if !s.regret(u) {
		return fmt.Errorf("%w: %s has not moved", ErrWrongPhase, u)
	}
	s.send(protocol.NewRegret(u.Index))
	return nil
}

func (s *Session) regret(u *units.Unit) bool {
	if u.Prev == nil {
		return false
	}
	s.m.AddUnit(u, *u.Prev)
	u.Prev = nil
	u.Moved = false
	return true
}

// Target selects the hex to attack.
func (s *Session) Target(off hexgrid.Offset) error {
	if err := s.act(PhaseCombat); err != nil {
		return err
	}
	h, err := s.hex(off)
	if err != nil {
		return err
	}
	if err := s.resolver.SetTarget(h); err != nil {
		return err
	}
	s.send(protocol.NewTarget(off))
	return nil
}

// AddAttacker adds u to the attack on the target.
func (s *Session) AddAttacker(u *units.Unit) error {
	if err := s.act(PhaseCombat); err != nil {
		return err
	}
	if err := s.resolver.AddAttacker(u); err != nil {
		return err
	}
	s.send(protocol.NewAddAttacker(u.Index))
	return nil
}

// Attack rolls for the current attack and applies the outcome.
func (s *Session) Attack() (combat.Result, error) {
	if err := s.act(PhaseCombat); err != nil {
		return combat.Result{}, err
	}
	res, err := s.resolver.Attack()
	if err != nil {
		return res, err
	}
	s.log.Info("Attack", "die", res.Die, "odds", res.Odds.Column, "outcome", res.Outcome, "a", res.A, "d", res.D)
	s.send(protocol.NewAttack(res.Die, string(res.Outcome), res.A, res.D))
	return res, nil
}

// Payer returns the side owing exchange losses, if any.
func (s *Session) Payer() (Side, bool) {
	if s.resolver == nil {
		return Side{}, false
	}
	ex := s.resolver.Exchange()
	if ex == nil {
		return Side{}, false
	}
	if ex.AttackerOwes > 0 {
		return s.side, true
	}
	return s.other(s.side), true
}

// PayLoss removes u as exchange payment. Either player may pay, depending
// on which side owes; the exchange is closed once the debt is paid.
func (s *Session) PayLoss(u *units.Unit) error {
	if !s.connected {
		return ErrNotConnected
	}
	payer, ok := s.Payer()
	if !ok {
		return ErrNoExchange
	}
	if !s.localSide(payer) {
		return ErrNotYourTurn
	}
	ex := s.resolver.Exchange()
	if err := ex.Remove(u); err != nil {
		return err
	}
	s.send(protocol.NewRemoveUnit(u.Index))
	if ex.Done() {
		s.resolver.FinishExchange()
		s.send(protocol.NewExDone())
	}
	return nil
}
