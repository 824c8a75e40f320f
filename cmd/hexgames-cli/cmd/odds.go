package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nfrund/hexgames/internal/combat"
	"github.com/nfrund/hexgames/internal/units"
)

var (
	oddsAttack string
	oddsHalved string
	oddsDefend string
	oddsForest bool
	oddsDie    int
)

var outcomeNames = map[combat.Outcome]string{
	combat.AttackerEliminated: "attacker eliminated",
	combat.DefenderEliminated: "defender eliminated",
	combat.Exchanged:          "exchange",
}

var oddsCmd = &cobra.Command{
	Use:   "odds",
	Short: "Compute combat odds and look up results",
	Long: `Compute the combat results table column for a set of attacking and
defending strengths. Attackers in a river hex or attacking up a slope fight
at half strength (--halved). With --die the result of that roll is shown,
otherwise the whole column.

Examples:
  hexgames-cli odds --attack 4,2 --defend 3
  hexgames-cli odds --attack 4 --halved 3 --defend 2 --forest --die 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var attackers []combat.Attacker
		for _, spec := range []struct {
			list   string
			halved bool
		}{{oddsAttack, false}, {oddsHalved, true}} {
			strengths, err := parseStrengths(spec.list)
			if err != nil {
				return err
			}
			for _, u := range strengths {
				attackers = append(attackers, combat.Attacker{Unit: u, Halved: spec.halved})
			}
		}
		defenders, err := parseStrengths(oddsDefend)
		if err != nil {
			return err
		}
		odds, err := combat.ComputeOdds(attackers, defenders, oddsForest)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Attack %g vs defence %g: column %d", odds.Attack, odds.Defence, odds.Column)
		if odds.Raw != odds.Column {
			fmt.Fprintf(w, " (%d before clamping)", odds.Raw)
		}
		fmt.Fprintln(w)

		title := cases.Title(language.English)
		dice := []int{1, 2, 3, 4, 5, 6}
		if oddsDie != 0 {
			dice = []int{oddsDie}
		}
		for _, die := range dice {
			outcome, err := combat.Resolve(odds.Column, die)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  %d: %s (%s)\n", die, outcome, title.String(outcomeNames[outcome]))
		}
		return nil
	},
}

func init() {
	f := oddsCmd.Flags()
	f.StringVarP(&oddsAttack, "attack", "a", "", "attacker strengths, comma separated")
	f.StringVar(&oddsHalved, "halved", "", "strengths of attackers fighting at half strength")
	f.StringVarP(&oddsDefend, "defend", "d", "", "defender strengths, comma separated")
	f.BoolVar(&oddsForest, "forest", false, "defenders are in a forest")
	f.IntVar(&oddsDie, "die", 0, "die roll, 1 to 6")
	oddsCmd.MarkFlagRequired("defend")
	rootCmd.AddCommand(oddsCmd)
}

// parseStrengths turns "4,3" into units of those strengths.
func parseStrengths(list string) ([]*units.Unit, error) {
	var out []*units.Unit
	for _, f := range strings.Split(list, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		s, err := strconv.Atoi(f)
		if err != nil || s < 0 {
			return nil, fmt.Errorf("invalid strength %q", f)
		}
		out = append(out, &units.Unit{Strength: s})
	}
	return out, nil
}
