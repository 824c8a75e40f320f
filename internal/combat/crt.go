// Package combat implements combat resolution: odds from the strengths of
// the engaged units, the combat results table, and the allocation of
// losses after an exchange.
package combat

import (
	"errors"
	"fmt"
	"math"

	"github.com/nfrund/hexgames/internal/units"
)

var (
	// ErrNoAttackers is returned when odds are requested without attackers.
	ErrNoAttackers = errors.New("no attacking units")
	// ErrNoDefenders is returned when odds are requested against an empty
	// hex.
	ErrNoDefenders = errors.New("no defending units")
	// ErrInvalidDie is returned for a die roll outside 1..6.
	ErrInvalidDie = errors.New("die roll out of range")
)

// Outcome is a combat result.
type Outcome string

const (
	AttackerEliminated Outcome = "AE"
	DefenderEliminated Outcome = "DE"
	Exchanged          Outcome = "EX"
)

// Columns is the number of odds columns in the table.
const Columns = 6

// table is indexed by die roll minus one, then odds column.
var table = [6][Columns]Outcome{
	{"AE", "AE", "AE", "AE", "EX", "EX"},
	{"AE", "AE", "AE", "EX", "EX", "DE"},
	{"AE", "AE", "EX", "EX", "DE", "DE"},
	{"AE", "EX", "EX", "DE", "DE", "DE"},
	{"EX", "EX", "DE", "DE", "DE", "DE"},
	{"EX", "DE", "DE", "DE", "DE", "DE"},
}

// Resolve looks up the table. Columns outside the table are clamped.
func Resolve(column, die int) (Outcome, error) {
	if die < 1 || die > 6 {
		return "", fmt.Errorf("%w: %d", ErrInvalidDie, die)
	}
	return table[die-1][clampColumn(column)], nil
}

func clampColumn(c int) int {
	return min(max(c, 0), Columns-1)
}

// Attacker is one attacking unit. Halved is set when the unit attacks out
// of a river hex or up a slope.
type Attacker struct {
	Unit   *units.Unit
	Halved bool
}

// Odds is the outcome of an odds computation.
type Odds struct {
	// Attack is the attack factor total, possibly fractional after halving.
	Attack float64
	// Defence is the defence factor total after terrain.
	Defence float64
	// Raw is the unclamped column.
	Raw int
	// Column is Raw clamped to the table.
	Column int
}

// ComputeOdds sums the factors of both sides and derives the table column:
// starting at 2, one column right per whole multiple the attack exceeds the
// defence by, one column left per (rounded up) multiple it falls short.
func ComputeOdds(attackers []Attacker, defenders []*units.Unit, forest bool) (Odds, error) {
	if len(attackers) == 0 {
		return Odds{}, ErrNoAttackers
	}
	if len(defenders) == 0 {
		return Odds{}, ErrNoDefenders
	}

	var o Odds
	for _, a := range attackers {
		s := float64(a.Unit.Strength)
		if a.Halved {
			s /= 2
		}
		o.Attack += s
	}
	for _, u := range defenders {
		o.Defence += float64(u.Strength)
	}
	if forest {
		o.Defence *= 2
	}

	switch {
	case o.Defence == 0:
		o.Raw = Columns - 1
	case o.Attack == 0:
		o.Raw = 0
	case o.Attack >= o.Defence:
		o.Raw = 2 + int(math.Floor(o.Attack/o.Defence)) - 1
	default:
		o.Raw = 2 - (int(math.Ceil(o.Defence/o.Attack)) - 1)
	}
	o.Column = clampColumn(o.Raw)
	return o, nil
}
