package units

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/hexgames/internal/hexgrid"
)

var validate = validator.New()

// ErrUnknownUnit is returned when an index or descriptor selects no unit.
var ErrUnknownUnit = errors.New("unknown unit")

// ConfigError lists every unit definition that failed validation.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid unit configuration (%d problems): %s",
		len(e.Problems), strings.Join(e.Problems, "; "))
}

// Population is the fixed set of units in a game. Units are addressed by
// their index, which is stable for the lifetime of the game and is what the
// network protocol transmits.
type Population struct {
	units []*Unit
}

// NewPopulation validates the definitions and assigns indexes.
func NewPopulation(defs []*Unit) (*Population, error) {
	var problems []string
	for i, u := range defs {
		if u == nil {
			problems = append(problems, fmt.Sprintf("unit %d: missing definition", i))
			continue
		}
		if err := validate.Struct(u); err != nil {
			problems = append(problems, fmt.Sprintf("unit %d (%s): %v", i, Format(u), err))
			continue
		}
		u.Index = i
	}
	if len(problems) > 0 {
		return nil, &ConfigError{Problems: problems}
	}
	return &Population{units: defs}, nil
}

// All returns the units in index order.
func (p *Population) All() []*Unit {
	return p.units
}

// Len returns the number of units.
func (p *Population) Len() int {
	return len(p.units)
}

// Get returns the unit with index i.
func (p *Population) Get(i int) (*Unit, error) {
	if i < 0 || i >= len(p.units) {
		return nil, fmt.Errorf("%w: index %d", ErrUnknownUnit, i)
	}
	return p.units[i], nil
}

// Nation returns the units of one nation in index order.
func (p *Population) Nation(nation string) []*Unit {
	var out []*Unit
	for _, u := range p.units {
		if u.Nation == nation {
			out = append(out, u)
		}
	}
	return out
}

// FindFirst returns the first unit matching q, skipping units for which
// skip returns true. Descriptors are selectors, not keys: the result
// depends on the population and on the skip filter.
func (p *Population) FindFirst(q Query, skip func(*Unit) bool) (*Unit, bool) {
	for _, u := range p.units {
		if skip != nil && skip(u) {
			continue
		}
		if q.Matches(u) {
			return u, true
		}
	}
	return nil, false
}

// ResetTurn clears the per-turn flags of every unit of nation, or of
// every unit when nation is empty.
func (p *Population) ResetTurn(nation string) {
	for _, u := range p.units {
		if nation == "" || u.Nation == nation {
			u.ResetTurn()
		}
	}
}

// Placement is one deployed unit as written to a save or sent to a peer.
type Placement struct {
	Unit  string         `json:"u"`
	Hex   hexgrid.Offset `json:"hex"`
	Index *int           `json:"i,omitempty"`
}

// Deployment lists every placed unit. The list is sorted by descriptor in
// descending order so that a generic descriptor such as "ge,inf,3-3,,"
// comes after a specific one such as "ge,inf,3-3,,Alp" and does not steal
// its unit on restore.
func (p *Population) Deployment() []Placement {
	var out []Placement
	for _, u := range p.units {
		if u.Hex == nil {
			continue
		}
		i := u.Index
		out = append(out, Placement{Unit: Format(u), Hex: *u.Hex, Index: &i})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Unit > out[b].Unit
	})
	return out
}

// Resolve finds the unit a placement refers to. The index wins when
// present and in range; otherwise the first matching unit not rejected by
// skip is returned.
func (p *Population) Resolve(pl Placement, skip func(*Unit) bool) (*Unit, error) {
	if pl.Index != nil {
		if u, err := p.Get(*pl.Index); err == nil {
			return u, nil
		}
	}
	u, ok := p.FindFirst(ParseQuery(pl.Unit), skip)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, pl.Unit)
	}
	return u, nil
}
