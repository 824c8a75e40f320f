package movement_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/hexgames/internal/hexgrid"
	"github.com/nfrund/hexgames/internal/hexmap"
	"github.com/nfrund/hexgames/internal/movement"
	"github.com/nfrund/hexgames/internal/units"
)

var layout = hexgrid.Layout{HexSize: 60, Scale: 1}

func newMap(t *testing.T, w, h int, terrain ...hexmap.TerrainRecord) *hexmap.Map {
	t.Helper()
	m, err := hexmap.New(hexmap.Bounds{Width: w, Height: h}, layout, terrain)
	require.NoError(t, err)
	return m
}

func hexAt(t *testing.T, m *hexmap.Map, x, y int) *hexmap.Hex {
	t.Helper()
	h, ok := m.Get(hexgrid.Offset{X: x, Y: y})
	require.True(t, ok, "hex %d,%d", x, y)
	return h
}

func TestReachableRhombus(t *testing.T) {
	m := newMap(t, 30, 30)
	m.Block = func(_, to *hexmap.Hex, _ int) bool {
		return to.Ax.R > 10
	}
	start, ok := m.GetAxial(hexgrid.Axial{Q: 10, R: 10})
	require.True(t, ok)

	assert.Len(t, movement.Reachable(m, 1, start, movement.Uniform), 4)
	assert.Len(t, movement.Reachable(m, 2, start, movement.Uniform), 11)

	t.Run("Open ground matches the range", func(t *testing.T) {
		m.Block = nil
		for n := 1; n <= 4; n++ {
			reach := movement.Reachable(m, n, start, movement.Uniform)
			assert.Len(t, reach, len(hexgrid.Range(n, start.Ax))-1)
			assert.NotContains(t, reach, start)
		}
	})
}

func TestReachableMarkers(t *testing.T) {
	m := newMap(t, 10, 10)
	start := hexAt(t, m, 5, 5)
	reach := movement.Reachable(m, 3, start, movement.Uniform)
	for h, left := range reach {
		assert.Equal(t, left, h.MovementLeft)
		assert.GreaterOrEqual(t, left, 0)
		assert.Equal(t, 3-hexgrid.Distance(start.Ax, h.Ax), left)
	}

	t.Run("A new pass clears the previous one", func(t *testing.T) {
		far := hexAt(t, m, 8, 5)
		require.Contains(t, reach, far)
		movement.Reachable(m, 1, start, movement.Uniform)
		assert.Equal(t, hexmap.Unreached, far.MovementLeft)
	})

	t.Run("Zero budget reaches nothing", func(t *testing.T) {
		assert.Empty(t, movement.Reachable(m, 0, start, movement.Uniform))
	})
}

func TestReachableMonotonic(t *testing.T) {
	m := newMap(t, 12, 12,
		hexmap.TerrainRecord{Hex: hexgrid.Offset{X: 6, Y: 5}, Prop: "f"},
		hexmap.TerrainRecord{Hex: hexgrid.Offset{X: 5, Y: 6}, Prop: "m"},
		hexmap.TerrainRecord{Hex: hexgrid.Offset{X: 4, Y: 5}, Prop: "w"},
	)
	u := &units.Unit{Nation: "fr", Type: units.Infantry, Strength: 4, Movement: 4}
	cost := movement.DefaultRules().For(u)
	start := hexAt(t, m, 5, 5)

	prev := map[*hexmap.Hex]int{}
	for n := 0; n <= 6; n++ {
		reach := movement.Reachable(m, n, start, cost)
		for h := range prev {
			assert.Contains(t, reach, h, "budget %d lost %v", n, h.Offset)
		}
		prev = reach
	}
}

// dijkstra is a brute-force reference: the cheapest path cost from start to
// every hex, computed with an O(n^2) scan.
func dijkstra(m *hexmap.Map, start *hexmap.Hex, cost movement.CostFunc) map[*hexmap.Hex]int {
	dist := map[*hexmap.Hex]int{start: 0}
	done := map[*hexmap.Hex]bool{}
	for {
		var best *hexmap.Hex
		for h, d := range dist {
			if done[h] {
				continue
			}
			if best == nil || d < dist[best] {
				best = h
			}
		}
		if best == nil {
			return dist
		}
		done[best] = true
		for i, n := range m.Neighbors(best) {
			if n == nil {
				continue
			}
			d := dist[best] + cost(best, n, i)
			if old, ok := dist[n]; !ok || d < old {
				dist[n] = d
			}
		}
	}
}

func TestReachableMatchesShortestPaths(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	props := []string{"", "", "", "f", "m", "w", "r", "x"}

	for round := range 20 {
		var terrain []hexmap.TerrainRecord
		for x := range 9 {
			for y := range 9 {
				rec := hexmap.TerrainRecord{Hex: hexgrid.Offset{X: x, Y: y}, Prop: props[rng.IntN(len(props))]}
				if rng.IntN(5) == 0 {
					edges := []byte("......")
					edges[rng.IntN(6)] = "ux"[rng.IntN(2)]
					rec.Edges = string(edges)
				}
				terrain = append(terrain, rec)
			}
		}
		m := newMap(t, 9, 9, terrain...)
		m.Block = hexmap.BlockForbidden

		u := &units.Unit{Nation: "fr", Type: units.Type([]string{"inf", "cav", "art"}[round%3]), Strength: 4, Movement: 4}
		start := hexAt(t, m, 4, 4)
		cost := movement.DefaultRules().For(u)
		budget := 2 + rng.IntN(6)

		want := map[*hexmap.Hex]int{}
		for h, d := range dijkstra(m, start, cost) {
			if h != start && d <= budget {
				want[h] = budget - d
			}
		}
		assert.Equal(t, want, movement.Reachable(m, budget, start, cost), "round %d", round)
	}
}

func TestRulesCosts(t *testing.T) {
	m := newMap(t, 8, 8,
		hexmap.TerrainRecord{Hex: hexgrid.Offset{X: 3, Y: 2}, Prop: "f"},
		hexmap.TerrainRecord{Hex: hexgrid.Offset{X: 3, Y: 4}, Prop: "m"},
		hexmap.TerrainRecord{Hex: hexgrid.Offset{X: 2, Y: 3}, Prop: "w"},
		hexmap.TerrainRecord{Hex: hexgrid.Offset{X: 5, Y: 5}, Prop: "r"},
		hexmap.TerrainRecord{Hex: hexgrid.Offset{X: 1, Y: 1}, Edges: ".u...."},
	)
	rules := movement.DefaultRules()
	inf := &units.Unit{Nation: "fr", Type: units.Infantry, Strength: 4, Movement: 4}
	cav := &units.Unit{Nation: "fr", Type: units.Cavalry, Strength: 3, Movement: 6}
	art := &units.Unit{Nation: "fr", Type: units.Artillery, Strength: 6, Movement: 2}

	step := func(u *units.Unit, from *hexmap.Hex, to *hexmap.Hex) int {
		i := hexgrid.Direction(from.Ax, to.Ax)
		require.GreaterOrEqual(t, i, 0)
		return rules.For(u)(from, to, i)
	}
	center := hexAt(t, m, 3, 3)
	forest := hexAt(t, m, 3, 2)
	mountain := hexAt(t, m, 3, 4)
	water := hexAt(t, m, 2, 3)

	tests := []struct {
		name string
		unit *units.Unit
		to   *hexmap.Hex
		want int
	}{
		{"Infantry into forest", inf, forest, 2},
		{"Cavalry into forest", cav, forest, 3},
		{"Artillery into forest", art, forest, movement.Impassable},
		{"Infantry into mountain", inf, mountain, 3},
		{"Cavalry into mountain", cav, mountain, movement.Impassable},
		{"Artillery into mountain", art, mountain, movement.Impassable},
		{"Water", inf, water, movement.Impassable},
		{"Clear", inf, hexAt(t, m, 4, 3), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, step(tt.unit, center, tt.to))
		})
	}

	t.Run("Leaving a river hex", func(t *testing.T) {
		river := hexAt(t, m, 5, 5)
		assert.Equal(t, 2, step(inf, river, hexAt(t, m, 6, 5)))
	})

	t.Run("Crossing an up-slope edge", func(t *testing.T) {
		from := hexAt(t, m, 1, 1)
		up := m.Neighbors(from)[1]
		require.NotNil(t, up)
		assert.Equal(t, 3, rules.For(inf)(from, up, 1))
		down := m.Neighbors(from)[4]
		assert.Equal(t, 1, rules.For(inf)(from, down, 4))
	})

	t.Run("Enemy occupied hex", func(t *testing.T) {
		enemy := &units.Unit{Nation: "en", Type: units.Infantry, Strength: 3, Movement: 4}
		target := hexAt(t, m, 4, 3)
		require.True(t, m.AddUnit(enemy, target.Offset))
		defer m.RemoveUnit(enemy)
		assert.Equal(t, movement.Impassable, step(inf, center, target))
	})

	t.Run("Stacking limit", func(t *testing.T) {
		target := hexAt(t, m, 4, 3)
		a := &units.Unit{Nation: "fr", Type: units.Infantry, Strength: 4, Movement: 4}
		b := &units.Unit{Nation: "fr", Type: units.Infantry, Strength: 4, Movement: 4}
		require.True(t, m.AddUnit(a, target.Offset))
		assert.Equal(t, 1, step(inf, center, target))
		require.True(t, m.AddUnit(b, target.Offset))
		assert.Equal(t, movement.Impassable, step(inf, center, target))
		m.RemoveUnit(a)
		m.RemoveUnit(b)
	})
}

func TestZOCCost(t *testing.T) {
	m := newMap(t, 8, 8, hexmap.TerrainRecord{Hex: hexgrid.Offset{X: 4, Y: 4}, Prop: "r"})
	fr := &units.Unit{Nation: "fr", Type: units.Infantry, Strength: 4, Movement: 4}
	en := &units.Unit{Nation: "en", Type: units.Infantry, Strength: 3, Movement: 4}
	require.True(t, m.AddUnit(en, hexgrid.Offset{X: 4, Y: 3}))
	require.True(t, m.AddUnit(fr, hexgrid.Offset{X: 3, Y: 3}))
	m.ComputeZOC("fr")

	cost := movement.DefaultRules().For(fr)
	from := hexAt(t, m, 3, 3)
	require.True(t, from.ZOC)

	t.Run("Leaving a controlled hex into clear terrain", func(t *testing.T) {
		to := hexAt(t, m, 2, 3)
		require.False(t, to.ZOC)
		assert.Equal(t, movement.ZOCCost, cost(from, to, hexgrid.Direction(from.Ax, to.Ax)))
	})

	t.Run("Leaving a river hex within the zone", func(t *testing.T) {
		river := hexAt(t, m, 4, 4)
		require.True(t, river.ZOC)
		var next *hexmap.Hex
		for _, n := range m.Neighbors(river) {
			if n != nil && n.ZOC && n.Count() == 0 {
				next = n
				break
			}
		}
		require.NotNil(t, next)
		assert.Equal(t, 2+movement.ZOCCost, cost(river, next, hexgrid.Direction(river.Ax, next.Ax)))
	})

	t.Run("Uncontrolled hexes are not taxed", func(t *testing.T) {
		a := hexAt(t, m, 0, 7)
		b := hexAt(t, m, 1, 7)
		assert.Equal(t, 1, cost(a, b, hexgrid.Direction(a.Ax, b.Ax)))
	})
}

func TestInRange(t *testing.T) {
	m := newMap(t, 10, 10)
	center := hexAt(t, m, 5, 5)
	assert.Len(t, movement.InRange(m, 2, center.Ax), 19)

	corner := hexAt(t, m, 0, 0)
	assert.Less(t, len(movement.InRange(m, 2, corner.Ax)), 19)
	assert.Len(t, movement.InRange(m, 0, corner.Ax), 1)
}
