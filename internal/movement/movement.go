// Package movement computes where a unit may move: the set of hexes
// reachable within a movement-point budget under a pluggable cost
// function, and plain distance ranges used by combat and scenario rules.
package movement

import (
	"github.com/nfrund/hexgames/internal/hexgrid"
	"github.com/nfrund/hexgames/internal/hexmap"
)

// Impassable is the cost returned for a step that must never be taken. It
// is a large finite number rather than a sentinel; any cost above the
// remaining budget stops the search.
const Impassable = 100

// CostFunc returns the movement points spent stepping from one hex to a
// neighbor across edge, the direction index of to as seen from from.
// Negative results are treated as zero.
type CostFunc func(from, to *hexmap.Hex, edge int) int

// Reachable returns every hex that can be reached from start with at most
// points movement points, mapped to the points left on arrival. The start
// hex is not included. The hexes' MovementLeft markers hold the same
// values until the next pass.
func Reachable(m *hexmap.Map, points int, start *hexmap.Hex, cost CostFunc) map[*hexmap.Hex]int {
	m.ClearMovement()
	start.MovementLeft = points

	stack := []*hexmap.Hex{start}
	visited := []*hexmap.Hex{start}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for i, n := range m.Neighbors(h) {
			if n == nil {
				continue
			}
			// Negative costs would let the search loop forever.
			left := h.MovementLeft - max(cost(h, n, i), 0)
			if left < 0 || n.MovementLeft >= left {
				continue
			}
			if n.MovementLeft == hexmap.Unreached {
				visited = append(visited, n)
			}
			n.MovementLeft = left
			stack = append(stack, n)
		}
	}

	out := make(map[*hexmap.Hex]int, len(visited)-1)
	for _, h := range visited {
		if h != start {
			out[h] = h.MovementLeft
		}
	}
	return out
}

// InRange returns the on-map hexes within n steps of center, center
// included. Terrain and units are ignored.
func InRange(m *hexmap.Map, n int, center hexgrid.Axial) []*hexmap.Hex {
	var out []*hexmap.Hex
	for _, ax := range hexgrid.Range(n, center) {
		if h, ok := m.GetAxial(ax); ok {
			out = append(out, h)
		}
	}
	return out
}

// Uniform is a CostFunc charging one point per step.
func Uniform(_, _ *hexmap.Hex, _ int) int {
	return 1
}
