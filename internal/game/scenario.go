// Package game runs a two-sided session of "The Hill": a scenario is
// loaded into a map and a unit population, a sequencer drives deployment,
// the alternating movement and combat phases and the turn clock, and the
// actions of a remote player are replayed from protocol messages.
package game

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"

	"github.com/nfrund/hexgames/internal/hexgrid"
	"github.com/nfrund/hexgames/internal/hexmap"
	"github.com/nfrund/hexgames/internal/units"
)

//go:embed scenarios/*.json
var builtin embed.FS

// DefaultScenario is the name of the embedded scenario.
const DefaultScenario = "the-hill"

var validate = validator.New()

// Side is one of the two players of a scenario. Sides are listed in
// deployment order; the side deploying last moves first.
type Side struct {
	Nation  string `json:"nation" validate:"required"`
	Player  string `json:"player" validate:"required"`
	Country string `json:"country" validate:"required"`
	// Zone is the terrain property marking the side's deployment hexes.
	Zone string `json:"zone" validate:"required,len=1,alpha,lowercase"`
	// Objectives is set for the side that wins by holding every objective
	// hex. The other side wins when the clock runs out.
	Objectives bool `json:"objectives"`
}

// ClockConfig is the game time span and the time a turn takes.
type ClockConfig struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
	Step  int   `json:"step" validate:"gt=0,lte=60"`
}

// Scenario is the static configuration of a game.
type Scenario struct {
	Name       string                 `json:"name" validate:"required"`
	Layout     hexgrid.Layout         `json:"layout"`
	Bounds     hexmap.Bounds          `json:"bounds"`
	Sides      []Side                 `json:"sides" validate:"len=2,dive"`
	Clock      ClockConfig            `json:"clock"`
	StackLimit int                    `json:"stackLimit" validate:"gte=0"`
	Terrain    []hexmap.TerrainRecord `json:"terrain"`
	Units      []*units.Unit          `json:"units" validate:"required,min=1"`
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := validate.Struct(sc); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", sc.Name, err)
	}
	if sc.Sides[0].Nation == sc.Sides[1].Nation {
		return nil, fmt.Errorf("invalid scenario %q: both sides are %q", sc.Name, sc.Sides[0].Nation)
	}
	if sc.Sides[0].Objectives == sc.Sides[1].Objectives {
		return nil, fmt.Errorf("invalid scenario %q: exactly one side must hold the objectives", sc.Name)
	}
	if !sc.Clock.Start.Before(sc.Clock.End) {
		return nil, fmt.Errorf("invalid scenario %q: clock ends at %s, before it starts at %s",
			sc.Name, sc.Clock.End, sc.Clock.Start)
	}
	return &sc, nil
}

// LoadScenario reads a scenario file from fsys.
func LoadScenario(fsys afero.Fs, path string) (*Scenario, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// Builtin returns an embedded scenario by name.
func Builtin(name string) (*Scenario, error) {
	data, err := fs.ReadFile(builtin, "scenarios/"+name+".json")
	if err != nil {
		return nil, fmt.Errorf("unknown scenario %q: %w", name, err)
	}
	return ParseScenario(data)
}

// Side returns the side of nation.
func (sc *Scenario) Side(nation string) (Side, bool) {
	for _, s := range sc.Sides {
		if s.Nation == nation {
			return s, true
		}
	}
	return Side{}, false
}

// Build creates a fresh map and unit population from the scenario. Every
// call returns new instances; units start off-map unless the scenario
// places them.
func (sc *Scenario) Build() (*hexmap.Map, *units.Population, error) {
	m, err := hexmap.New(sc.Bounds, sc.Layout, sc.Terrain)
	if err != nil {
		return nil, nil, err
	}
	m.Block = hexmap.BlockForbidden

	defs := make([]*units.Unit, len(sc.Units))
	var problems []string
	for i, u := range sc.Units {
		if u == nil {
			continue
		}
		c := *u
		c.Hex, c.Prev = nil, nil
		defs[i] = &c
		if _, ok := sc.Side(u.Nation); !ok {
			problems = append(problems, fmt.Sprintf("unit %d (%s): nation %q has no side", i, units.Format(u), u.Nation))
		}
	}
	if len(problems) > 0 {
		return nil, nil, &units.ConfigError{Problems: problems}
	}
	pop, err := units.NewPopulation(defs)
	if err != nil {
		return nil, nil, err
	}
	for i, u := range sc.Units {
		if u != nil && u.Hex != nil && !m.AddUnit(pop.All()[i], *u.Hex) {
			problems = append(problems, fmt.Sprintf("unit %d (%s): hex %s is off the map", i, units.Format(u), u.Hex))
		}
	}
	if len(problems) > 0 {
		return nil, nil, &units.ConfigError{Problems: problems}
	}
	return m, pop, nil
}

// Summary is a one-line description of the scenario.
func (sc *Scenario) Summary() string {
	nations := make([]string, 0, len(sc.Sides))
	for _, s := range sc.Sides {
		nations = append(nations, fmt.Sprintf("%s (%d units)", s.Player, sc.count(s.Nation)))
	}
	return fmt.Sprintf("%s: %dx%d hexes, %s", sc.Name, sc.Bounds.Width, sc.Bounds.Height, strings.Join(nations, " vs "))
}

func (sc *Scenario) count(nation string) int {
	n := 0
	for _, u := range sc.Units {
		if u != nil && u.Nation == nation {
			n++
		}
	}
	return n
}
