// Package units holds the unit population of a game: unit definitions,
// descriptor strings used by saves and the network protocol, and lookups.
package units

import (
	"fmt"

	"github.com/nfrund/hexgames/internal/hexgrid"
)

// Type is a unit type code as printed on the counter.
type Type string

const (
	Infantry   Type = "inf"
	Cavalry    Type = "cav"
	Artillery  Type = "art"
	Armor      Type = "pz"
	Mechanized Type = "mec"
	Air        Type = "air"
	Paratroops Type = "par"
	Naval      Type = "nav"
	General    Type = "gen"
	Airbase    Type = "ab"
	Reserve    Type = "res"
)

// Unit is a single counter. Hex and Prev are maintained by the map; the
// rest is static configuration apart from the per-turn flags.
type Unit struct {
	Index    int    `json:"i"`
	Nation   string `json:"nat" validate:"required"`
	Type     Type   `json:"type" validate:"required"`
	Stat     string `json:"stat,omitempty"`
	Size     string `json:"sz,omitempty"`
	Label    string `json:"lbl,omitempty"`
	Strength int    `json:"s" validate:"gte=0"`
	Movement int    `json:"m" validate:"gte=0"`

	// Hex is the unit's position, nil when off-map.
	Hex *hexgrid.Offset `json:"hex,omitempty"`
	// Prev is where the unit started its current move, nil if it has not
	// moved this phase.
	Prev *hexgrid.Offset `json:"-"`

	Moved    bool `json:"-"`
	Attacked bool `json:"-"`
}

// StatText returns the strength-movement text, derived from the numeric
// values when no explicit text was configured.
func (u *Unit) StatText() string {
	if u.Stat != "" {
		return u.Stat
	}
	if u.Strength == 0 && u.Movement == 0 {
		return ""
	}
	return fmt.Sprintf("%d-%d", u.Strength, u.Movement)
}

// OnMap reports whether the unit currently occupies a hex.
func (u *Unit) OnMap() bool {
	return u.Hex != nil
}

// At reports whether the unit occupies hex h.
func (u *Unit) At(h hexgrid.Offset) bool {
	return u.Hex != nil && *u.Hex == h
}

// ResetTurn clears the per-turn flags and the move origin.
func (u *Unit) ResetTurn() {
	u.Moved = false
	u.Attacked = false
	u.Prev = nil
}

func (u *Unit) String() string {
	return Format(u)
}
