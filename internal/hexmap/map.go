// Package hexmap holds the grid of hex cells for one game: terrain, edge
// features, occupying units and the transient markers used by movement and
// zone-of-control computations.
package hexmap

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/hexgames/internal/hexgrid"
	"github.com/nfrund/hexgames/internal/units"
)

var validate = validator.New()

func init() {
	if err := validate.RegisterValidation("edgecodes", validateEdgeCodes); err != nil {
		panic(fmt.Sprintf("register edgecodes validation: %v", err))
	}
}

// validateEdgeCodes accepts lowercase feature codes and the "." or space
// placeholders.
func validateEdgeCodes(fl validator.FieldLevel) bool {
	for _, c := range fl.Field().String() {
		if c != '.' && c != ' ' && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

// TerrainRecord is one entry of the static terrain configuration.
type TerrainRecord struct {
	Hex   hexgrid.Offset `json:"hex"`
	Prop  string         `json:"prop,omitempty" validate:"omitempty,alpha,lowercase"`
	Edges string         `json:"edges,omitempty" validate:"omitempty,len=6,edgecodes"`
}

// Bounds is the rectangular extent of a map in offset coordinates.
type Bounds struct {
	Width  int `json:"width" validate:"gt=0"`
	Height int `json:"height" validate:"gt=0"`
}

// ConfigError lists every malformed terrain record found at load time.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid terrain configuration (%d problems): %s",
		len(e.Problems), strings.Join(e.Problems, "; "))
}

// BlockFunc reports whether movement from one hex to its neighbor across
// edge is impossible.
type BlockFunc func(from, to *Hex, edge int) bool

// BlockForbidden blocks entry into hexes carrying the Forbidden property.
func BlockForbidden(_, to *Hex, _ int) bool {
	return to.Has(Forbidden)
}

// Map is a rectangular grid of hexes. Every cell inside the bounds exists,
// whether or not terrain was configured for it; nothing outside does.
type Map struct {
	Bounds Bounds
	Layout hexgrid.Layout
	// Block is consulted in addition to blocked edges when listing
	// neighbors. Nil blocks nothing.
	Block BlockFunc

	hexes    []*Hex
	byOffset map[hexgrid.Offset]*Hex
	byAxial  map[hexgrid.Axial]*Hex
}

// New creates every cell within bounds and overlays the terrain records.
// Records outside the bounds are skipped; malformed records are all
// reported together in a *ConfigError.
func New(bounds Bounds, layout hexgrid.Layout, terrain []TerrainRecord) (*Map, error) {
	if err := validate.Struct(bounds); err != nil {
		return nil, fmt.Errorf("invalid map bounds: %w", err)
	}
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid map layout: %w", err)
	}

	var problems []string
	for i, rec := range terrain {
		if err := validate.Struct(rec); err != nil {
			problems = append(problems, fmt.Sprintf("record %d (hex %v): %v", i, rec.Hex, err))
		}
	}
	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}

	n := bounds.Width * bounds.Height
	m := &Map{
		Bounds:   bounds,
		Layout:   layout,
		hexes:    make([]*Hex, 0, n),
		byOffset: make(map[hexgrid.Offset]*Hex, n),
		byAxial:  make(map[hexgrid.Axial]*Hex, n),
	}
	for x := 0; x < bounds.Width; x++ {
		for y := 0; y < bounds.Height; y++ {
			off := hexgrid.Offset{X: x, Y: y}
			h := newHex(off, layout.OffsetToAxial(off))
			m.hexes = append(m.hexes, h)
			m.byOffset[off] = h
			m.byAxial[h.Ax] = h
		}
	}

	skipped := 0
	for _, rec := range terrain {
		h, ok := m.Get(rec.Hex)
		if !ok {
			skipped++
			continue
		}
		if rec.Prop != "" {
			h.Props = rec.Prop
		}
		if rec.Edges != "" {
			h.Edges = rec.Edges
		}
	}
	if skipped > 0 {
		slog.Debug("Skipped terrain records outside the map", "count", skipped)
	}
	return m, nil
}

// Get returns the hex at an offset address.
func (m *Map) Get(off hexgrid.Offset) (*Hex, bool) {
	h, ok := m.byOffset[off]
	return h, ok
}

// GetAxial returns the hex at an axial address.
func (m *Map) GetAxial(ax hexgrid.Axial) (*Hex, bool) {
	h, ok := m.byAxial[ax]
	return h, ok
}

// Hexes returns every hex, column by column.
func (m *Map) Hexes() []*Hex {
	return m.hexes
}

// HexesWithProp returns the hexes carrying a terrain property.
func (m *Map) HexesWithProp(code byte) []*Hex {
	var out []*Hex
	for _, h := range m.hexes {
		if h.Has(code) {
			out = append(out, h)
		}
	}
	return out
}

// Neighbors returns the six neighbors of h in hexgrid.Directions order.
// An entry is nil when the cell is off-map, the edge towards it is
// blocked, or Block rejects it.
func (m *Map) Neighbors(h *Hex) [6]*Hex {
	var out [6]*Hex
	for i, ax := range hexgrid.Neighbors(h.Ax) {
		n, ok := m.byAxial[ax]
		if !ok || h.Edge(i) == EdgeBlocked {
			continue
		}
		if m.Block != nil && m.Block(h, n, i) {
			continue
		}
		out[i] = n
	}
	return out
}

// ClearMovement resets the movement marker of every hex.
func (m *Map) ClearMovement() {
	for _, h := range m.hexes {
		h.MovementLeft = Unreached
	}
}

// ClearZOC resets the zone-of-control marker of every hex.
func (m *Map) ClearZOC() {
	for _, h := range m.hexes {
		h.ZOC = false
	}
}

// ComputeZOC marks every hex reachable in one step from a hex holding a
// unit that is not of nation. It is run once per side per turn, before
// that side moves.
func (m *Map) ComputeZOC(nation string) {
	m.ClearZOC()
	for _, h := range m.hexes {
		if !h.HasEnemyOf(nation) {
			continue
		}
		for _, n := range m.Neighbors(h) {
			if n != nil {
				n.ZOC = true
			}
		}
	}
}

// AddUnit places u in the hex at off. A unit already on the map is moved,
// so it is never in two hexes at once. It returns false, leaving the unit
// where it was, when off is outside the map.
func (m *Map) AddUnit(u *units.Unit, off hexgrid.Offset) bool {
	h, ok := m.Get(off)
	if !ok {
		return false
	}
	m.RemoveUnit(u)
	pos := off
	u.Hex = &pos
	h.units[u] = struct{}{}
	return true
}

// MoveUnit relocates u to the hex at off, remembering where it came from
// so the move can be taken back. It returns false when off is outside the
// map.
func (m *Map) MoveUnit(u *units.Unit, off hexgrid.Offset) bool {
	var from *hexgrid.Offset
	if u.Hex != nil {
		prev := *u.Hex
		from = &prev
	}
	if !m.AddUnit(u, off) {
		return false
	}
	u.Prev = from
	return true
}

// RemoveUnit takes u off the map. Removing an off-map unit does nothing.
func (m *Map) RemoveUnit(u *units.Unit) {
	if u.Hex == nil {
		return
	}
	if h, ok := m.Get(*u.Hex); ok {
		delete(h.units, u)
	}
	u.Hex = nil
}

// HexOf returns the hex u occupies.
func (m *Map) HexOf(u *units.Unit) (*Hex, bool) {
	if u.Hex == nil {
		return nil, false
	}
	return m.Get(*u.Hex)
}
