package hexmap

import (
	"sort"
	"strings"

	"github.com/nfrund/hexgames/internal/hexgrid"
	"github.com/nfrund/hexgames/internal/units"
)

// Terrain property codes. A hex carries any combination of them.
const (
	Forest    byte = 'f'
	River     byte = 'r'
	Mountain  byte = 'm'
	Water     byte = 'w'
	Forbidden byte = 'x'
	Objective byte = 'o'
)

// Edge feature codes, one per direction in a hex's edge string.
const (
	NoEdge      byte = '.'
	Upslope     byte = 'u'
	EdgeBlocked byte = 'x'
)

// Unreached marks a hex not visited by the current movement pass.
const Unreached = -1

// Hex is one map cell.
type Hex struct {
	Offset hexgrid.Offset
	Ax     hexgrid.Axial
	Props  string
	Edges  string

	units map[*units.Unit]struct{}

	// MovementLeft is the best number of movement points left on arrival
	// in the latest reachability pass, or Unreached.
	MovementLeft int
	// ZOC is set when the hex is in an enemy zone of control for the side
	// currently moving.
	ZOC bool
}

func newHex(off hexgrid.Offset, ax hexgrid.Axial) *Hex {
	return &Hex{
		Offset:       off,
		Ax:           ax,
		units:        make(map[*units.Unit]struct{}),
		MovementLeft: Unreached,
	}
}

// Has reports whether the hex carries terrain property code.
func (h *Hex) Has(code byte) bool {
	return strings.IndexByte(h.Props, code) >= 0
}

// Edge returns the feature code of edge i, NoEdge when none is set.
func (h *Hex) Edge(i int) byte {
	if len(h.Edges) != 6 || i < 0 || i >= 6 {
		return NoEdge
	}
	c := h.Edges[i]
	if c == ' ' {
		return NoEdge
	}
	return c
}

// Units returns the occupants ordered by unit index.
func (h *Hex) Units() []*units.Unit {
	out := make([]*units.Unit, 0, len(h.units))
	for u := range h.units {
		out = append(out, u)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Index < out[b].Index })
	return out
}

// Count returns the number of occupants.
func (h *Hex) Count() int {
	return len(h.units)
}

// Contains reports whether u occupies the hex.
func (h *Hex) Contains(u *units.Unit) bool {
	_, ok := h.units[u]
	return ok
}

// HasEnemyOf reports whether any occupant belongs to another nation.
func (h *Hex) HasEnemyOf(nation string) bool {
	for u := range h.units {
		if u.Nation != nation {
			return true
		}
	}
	return false
}

// Strength returns the summed strength of the occupants.
func (h *Hex) Strength() int {
	s := 0
	for u := range h.units {
		s += u.Strength
	}
	return s
}
