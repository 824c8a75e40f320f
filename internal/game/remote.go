package game

import (
	"errors"
	"fmt"

	"github.com/nfrund/hexgames/internal/combat"
	"github.com/nfrund/hexgames/internal/protocol"
	"github.com/nfrund/hexgames/internal/units"
)

// Handle replays a message from the remote player. Messages that do not
// fit the local state are reported with ErrDesync and otherwise ignored.
func (s *Session) Handle(msg protocol.Message) error {
	if !s.connected {
		return ErrNotConnected
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	err := s.handle(msg)
	if err != nil {
		s.log.Warn("Peer message rejected", "type", msg.Type, "step", s.Step(), "error", err)
	}
	return err
}

func (s *Session) handle(msg protocol.Message) error {
	switch msg.Type {
	case protocol.NextStep:
		if s.local() {
			return fmt.Errorf("%w: nextstep during the local %s", ErrDesync, s.Step())
		}
		return s.seqr.Advance()

	case protocol.Deployment:
		var errs []error
		for _, p := range msg.Units {
			u, err := s.remoteUnit(p.I)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !s.m.AddUnit(u, p.Hex) {
				errs = append(errs, fmt.Errorf("%w: %s placed off the map at %s", ErrDesync, u, p.Hex))
			}
		}
		return errors.Join(errs...)

	case protocol.Move:
		u, err := s.remoteUnit(*msg.I)
		if err != nil {
			return err
		}
		if !s.m.MoveUnit(u, *msg.Hex) {
			return fmt.Errorf("%w: %s moved off the map to %s", ErrDesync, u, *msg.Hex)
		}
		u.Moved = true
		s.selected = u
		return nil

	case protocol.Regret:
		u, err := s.remoteUnit(*msg.I)
		if err != nil {
			return err
		}
		if !s.regret(u) {
			return fmt.Errorf("%w: regret for %s which has not moved", ErrDesync, u)
		}
		return nil

	case protocol.Target:
		if s.resolver == nil {
			return fmt.Errorf("%w: target outside combat", ErrDesync)
		}
		h, err := s.hex(*msg.Hex)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrDesync, err)
		}
		return s.resolver.SetTarget(h)

	case protocol.AddAttacker:
		if s.resolver == nil {
			return fmt.Errorf("%w: attacker outside combat", ErrDesync)
		}
		u, err := s.remoteUnit(*msg.I)
		if err != nil {
			return err
		}
		return s.resolver.AddAttacker(u)

	case protocol.Attack:
		if s.resolver == nil {
			return fmt.Errorf("%w: attack outside combat", ErrDesync)
		}
		res, err := s.resolver.Apply(msg.Die, combat.Outcome(msg.Outcome))
		if err != nil {
			return err
		}
		if res.Outcome == combat.Exchanged && (res.A != msg.A || res.D != msg.D) {
			s.log.Warn("Exchange factors differ from peer",
				"a", res.A, "d", res.D, "peer_a", msg.A, "peer_d", msg.D)
		}
		return nil

	case protocol.RemoveUnit:
		u, err := s.remoteUnit(*msg.I)
		if err != nil {
			return err
		}
		if s.resolver != nil {
			if ex := s.resolver.Exchange(); ex != nil {
				return ex.Remove(u)
			}
		}
		s.m.RemoveUnit(u)
		return nil

	case protocol.ExDone:
		if s.resolver != nil {
			s.resolver.FinishExchange()
		}
		return nil
	}
	return fmt.Errorf("%w: unhandled message type %q", ErrDesync, msg.Type)
}

func (s *Session) remoteUnit(i int) (*units.Unit, error) {
	u, err := s.pop.Get(i)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDesync, err)
	}
	return u, nil
}
