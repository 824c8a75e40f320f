package combat

import (
	"errors"
	"fmt"

	"github.com/nfrund/hexgames/internal/hexmap"
	"github.com/nfrund/hexgames/internal/units"
)

// ErrNotOwing is returned when a unit that does not belong to the side
// owing losses is offered for removal.
var ErrNotOwing = errors.New("unit is not owing losses")

// exchangeWipeMargin is the factor difference below which both stacks are
// eliminated. Counters are never weaker than this, so a smaller debt can
// not be paid with part of a stack.
const exchangeWipeMargin = 3

// Exchange tracks the losses still owed after an EX result. At most one of
// AttackerOwes and DefenderOwes is positive.
type Exchange struct {
	AttackerOwes int
	DefenderOwes int

	m     *hexmap.Map
	owing map[*units.Unit]struct{}
}

// newExchange applies the immediate part of an exchange between the raw
// factor totals a and d and returns the remaining obligation. The weaker
// side is eliminated; the stronger side owes the weaker side's total.
func newExchange(m *hexmap.Map, attackers, defenders []*units.Unit, a, d int) *Exchange {
	ex := &Exchange{m: m, owing: make(map[*units.Unit]struct{})}
	diff := a - d
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff < exchangeWipeMargin:
		removeAll(m, attackers)
		removeAll(m, defenders)
	case a > d:
		removeAll(m, defenders)
		ex.AttackerOwes = d
		ex.setOwing(attackers)
	default:
		removeAll(m, attackers)
		ex.DefenderOwes = a
		ex.setOwing(defenders)
	}
	if len(ex.owing) == 0 {
		ex.Settle()
	}
	return ex
}

func (ex *Exchange) setOwing(us []*units.Unit) {
	for _, u := range us {
		if u.OnMap() {
			ex.owing[u] = struct{}{}
		}
	}
}

// Owing returns the units that may be removed to pay the debt, in index
// order.
func (ex *Exchange) Owing() []*units.Unit {
	out := make([]*units.Unit, 0, len(ex.owing))
	for u := range ex.owing {
		out = append(out, u)
	}
	sortByIndex(out)
	return out
}

// Remove eliminates u as payment towards the debt of its side.
func (ex *Exchange) Remove(u *units.Unit) error {
	if ex.Done() {
		return fmt.Errorf("%w: exchange is settled", ErrNotOwing)
	}
	if _, ok := ex.owing[u]; !ok {
		return fmt.Errorf("%w: %s", ErrNotOwing, u)
	}
	delete(ex.owing, u)
	ex.m.RemoveUnit(u)
	if ex.AttackerOwes > 0 {
		ex.AttackerOwes -= u.Strength
	} else {
		ex.DefenderOwes -= u.Strength
	}
	if len(ex.owing) == 0 {
		ex.Settle()
	}
	return nil
}

// Done reports whether nothing more is owed. An exchange is also done
// once the owing side has no units left to give.
func (ex *Exchange) Done() bool {
	return ex.AttackerOwes <= 0 && ex.DefenderOwes <= 0
}

// Settle ends the exchange regardless of what is still owed. It is used
// when the owing side has run out of units or the peer declared it done.
func (ex *Exchange) Settle() {
	ex.AttackerOwes = 0
	ex.DefenderOwes = 0
	clear(ex.owing)
}

func removeAll(m *hexmap.Map, us []*units.Unit) {
	for _, u := range us {
		m.RemoveUnit(u)
	}
}
