package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/hexgames/cmd/hexgames-cli/internal/format"
	"github.com/nfrund/hexgames/internal/hexgrid"
	"github.com/nfrund/hexgames/internal/hexmap"
	"github.com/nfrund/hexgames/internal/movement"
	"github.com/nfrund/hexgames/internal/script"
	"github.com/nfrund/hexgames/internal/units"
)

var (
	reachUnit    string
	reachAt      string
	reachPoints  int
	reachScript  string
	reachEnemies []string
	reachFormat  string
)

// reachable is one destination in the reach output.
type reachable struct {
	Hex   hexgrid.Offset `json:"hex"`
	Props string         `json:"props,omitempty"`
	Left  int            `json:"left"`
}

var reachCmd = &cobra.Command{
	Use:   "reach [scenario]",
	Short: "List the hexes a unit can move to",
	Long: `Place a unit of the scenario and list the hexes it can reach this turn,
with the movement points left on arrival. The unit is chosen by descriptor
(nation,type,stat,size,label; empty fields match anything). Enemy units
given with --enemy project their zone of control.

The standard rules are used unless --script (or COST_SCRIPT) names a Tengo
cost script.

Examples:
  hexgames-cli reach --unit fr,cav --at 14,18
  hexgames-cli reach --unit fr,inf,,,3 --at 14,18 --enemy en,inf@14,15
  hexgames-cli reach --unit en,cav --at 10,3 --script cost.tengo --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := format.Check(reachFormat); err != nil {
			return err
		}
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		sc, err := loadScenario(name)
		if err != nil {
			return err
		}
		m, pop, err := sc.Build()
		if err != nil {
			return err
		}

		u, ok := pop.FindFirst(units.ParseQuery(reachUnit), nil)
		if !ok {
			return fmt.Errorf("no unit matches %q", reachUnit)
		}
		if reachAt != "" {
			at, err := parseOffset(reachAt)
			if err != nil {
				return err
			}
			if !m.AddUnit(u, at) {
				return fmt.Errorf("hex %s is off the map", at)
			}
		}
		start, ok := m.HexOf(u)
		if !ok {
			return fmt.Errorf("%s is not on the map, place it with --at", u)
		}
		if err := placeEnemies(m, pop, u); err != nil {
			return err
		}
		m.ComputeZOC(u.Nation)

		cost, err := costFor(u, sc.StackLimit)
		if err != nil {
			return err
		}
		points := u.Movement
		if reachPoints > 0 {
			points = reachPoints
		}

		var out []reachable
		for h, left := range movement.Reachable(m, points, start, cost) {
			out = append(out, reachable{Hex: h.Offset, Props: h.Props, Left: left})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Hex.Y != out[j].Hex.Y {
				return out[i].Hex.Y < out[j].Hex.Y
			}
			return out[i].Hex.X < out[j].Hex.X
		})

		w := cmd.OutOrStdout()
		if reachFormat == format.JSON {
			return format.WriteJSON(w, map[string]any{
				"unit":      units.Format(u),
				"from":      start.Offset,
				"points":    points,
				"reachable": out,
			})
		}
		fmt.Fprintf(w, "%s from %s with %d MP:\n\n", u, start.Offset, points)
		rows := make([][]string, len(out))
		for i, r := range out {
			rows[i] = []string{r.Hex.String(), r.Props, strconv.Itoa(r.Left)}
		}
		return format.WriteTable(w, []string{"HEX", "TERRAIN", "LEFT"}, rows, "No hex reachable")
	},
}

func init() {
	f := reachCmd.Flags()
	f.StringVarP(&reachUnit, "unit", "u", "", "descriptor of the unit to move")
	f.StringVar(&reachAt, "at", "", "hex x,y to place the unit on")
	f.IntVar(&reachPoints, "mp", 0, "movement points, instead of the unit's allowance")
	f.StringVar(&reachScript, "script", "", "Tengo cost script (default $COST_SCRIPT)")
	f.StringArrayVar(&reachEnemies, "enemy", nil, "enemy unit placement descriptor@x,y, repeatable")
	f.StringVarP(&reachFormat, "format", "o", format.Table, "output format: table or json")
	reachCmd.MarkFlagRequired("unit")
	rootCmd.AddCommand(reachCmd)
}

// placeEnemies puts the --enemy units on the map. Each must belong to
// another nation than u.
func placeEnemies(m *hexmap.Map, pop *units.Population, u *units.Unit) error {
	placed := map[*units.Unit]bool{u: true}
	skip := func(c *units.Unit) bool { return placed[c] }
	for _, spec := range reachEnemies {
		desc, at, ok := strings.Cut(spec, "@")
		if !ok || at == "" {
			return fmt.Errorf("invalid --enemy %q, want descriptor@x,y", spec)
		}
		off, err := parseOffset(at)
		if err != nil {
			return err
		}
		e, ok := pop.FindFirst(units.ParseQuery(desc), skip)
		if !ok {
			return fmt.Errorf("no unit left matching %q", desc)
		}
		if e.Nation == u.Nation {
			return fmt.Errorf("%s is not an enemy of %s", e, u)
		}
		if !m.AddUnit(e, off) {
			return fmt.Errorf("hex %s is off the map", off)
		}
		placed[e] = true
	}
	return nil
}

// costFor returns the cost function for u: the configured script, or the
// standard rules.
func costFor(u *units.Unit, stackLimit int) (movement.CostFunc, error) {
	path := reachScript
	if path == "" {
		path = settings().CostScript
	}
	if path == "" {
		return movement.Rules{StackLimit: stackLimit}.For(u), nil
	}
	s, err := script.Load(fsys, path)
	if err != nil {
		return nil, err
	}
	cs, err := script.NewCostScript(script.NewTengoEngine(), s)
	if err != nil {
		return nil, err
	}
	return cs.For(u), nil
}
