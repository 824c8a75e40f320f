package movement

import (
	"github.com/nfrund/hexgames/internal/hexmap"
	"github.com/nfrund/hexgames/internal/units"
)

const (
	// ZOCCost is the surcharge for moving out of an enemy zone of control.
	ZOCCost = 3
	// DefaultStackLimit is the number of friendly units a hex may hold.
	DefaultStackLimit = 2
)

// Rules is the terrain cost table used by the Napoleonic variants.
type Rules struct {
	StackLimit int
}

// DefaultRules returns the rules with the standard stacking limit.
func DefaultRules() Rules {
	return Rules{StackLimit: DefaultStackLimit}
}

// For returns the cost function for moving u. ZOC markers must have been
// computed for u's nation beforehand.
func (r Rules) For(u *units.Unit) CostFunc {
	limit := r.StackLimit
	if limit <= 0 {
		limit = DefaultStackLimit
	}
	return func(from, to *hexmap.Hex, edge int) int {
		if to.Count() > 0 {
			if to.HasEnemyOf(u.Nation) {
				return Impassable
			}
			if to.Count() >= limit {
				return Impassable
			}
		}

		switch {
		case to.Has(hexmap.Water):
			return Impassable
		case to.Has(hexmap.Forest):
			switch u.Type {
			case units.Cavalry:
				return 3
			case units.Artillery:
				return Impassable
			}
			return 2
		case to.Has(hexmap.Mountain):
			if u.Type == units.Cavalry || u.Type == units.Artillery {
				return Impassable
			}
			return 3
		}

		tax := 0
		if from.ZOC && to.ZOC {
			tax = ZOCCost
		}
		switch {
		case from.Has(hexmap.River):
			return 2 + tax
		case from.Edge(edge) == hexmap.Upslope:
			return 3 + tax
		case from.ZOC:
			return ZOCCost
		}
		return 1
	}
}
