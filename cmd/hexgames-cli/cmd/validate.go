package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nfrund/hexgames/internal/hexmap"
	"github.com/nfrund/hexgames/internal/script"
)

var watch bool

var validateCmd = &cobra.Command{
	Use:   "validate [scenario]",
	Short: "Validate a scenario",
	Long: `Validate a scenario file (a path ending in .json) or a built-in scenario
by name. The scenario is decoded, checked, and built into a map and a unit
population; every malformed terrain record or unit is reported.

Examples:
  hexgames-cli validate                       # the built-in scenario
  hexgames-cli validate my-map.json
  hexgames-cli validate my-map.json --watch   # re-check on every save`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		out := cmd.OutOrStdout()
		err := report(out, name)
		if !watch {
			return err
		}
		if !strings.HasSuffix(name, ".json") {
			return fmt.Errorf("--watch needs a scenario file")
		}
		fmt.Fprintf(out, "Watching %s, press Ctrl+C to stop\n", name)
		return script.WatchFile(cmd.Context(), name, func() {
			fmt.Fprintln(out)
			report(out, name)
		})
	},
}

func init() {
	validateCmd.Flags().BoolVarP(&watch, "watch", "w", false, "validate again whenever the file changes")
	rootCmd.AddCommand(validateCmd)
}

// report validates one scenario and prints the result.
func report(w io.Writer, name string) error {
	sc, err := loadScenario(name)
	if err != nil {
		fmt.Fprintf(w, "❌ %v\n", err)
		return err
	}
	m, pop, err := sc.Build()
	if err != nil {
		fmt.Fprintf(w, "❌ %v\n", err)
		return err
	}

	title := cases.Title(language.English)
	fmt.Fprintf(w, "✅ %s\n", sc.Summary())
	fmt.Fprintf(w, "   Clock: %s to %s, %d minutes a turn\n", sc.Clock.Start, sc.Clock.End, sc.Clock.Step)
	fmt.Fprintf(w, "   Objectives: %d hexes\n", len(m.HexesWithProp(hexmap.Objective)))
	for _, side := range sc.Sides {
		role := "holds out until the clock runs out"
		if side.Objectives {
			role = "must take every objective"
		}
		fmt.Fprintf(w, "   %s: %d units, %d deployment hexes, %s\n",
			title.String(side.Country), len(pop.Nation(side.Nation)), len(m.HexesWithProp(side.Zone[0])), role)
	}
	return nil
}
