// Package cmd holds the hexgames-cli commands.
package cmd

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nfrund/hexgames/internal/config"
	"github.com/nfrund/hexgames/internal/game"
	"github.com/nfrund/hexgames/internal/logging"
)

// fsys is where scenario, script and save files are read from.
var fsys afero.Fs = afero.NewOsFs()

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "hexgames-cli",
	Short: "Hex wargame tools",
	Long: `hexgames-cli validates scenarios and answers rule questions about them.

Available commands:
  validate   Check a scenario file or a built-in scenario
  pixel      Convert between pixel, offset and axial coordinates
  reach      List the hexes a unit can move to
  odds       Compute combat odds and look up results
  saves      Inspect stored games

Use "hexgames-cli [command] --help" for more information about a command.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logging.New("text", "debug")
			return
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	},
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
}

// loadScenario reads a scenario file, or a built-in scenario when name is
// not a .json path. An empty name is the default scenario.
func loadScenario(name string) (*game.Scenario, error) {
	switch {
	case name == "":
		return game.Builtin(game.DefaultScenario)
	case strings.HasSuffix(name, ".json"):
		return game.LoadScenario(fsys, name)
	}
	return game.Builtin(name)
}

// settings returns the environment configuration, falling back to the
// defaults when it does not validate.
func settings() *config.Config {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Warn("Ignoring invalid environment configuration", "error", err)
		return &config.Config{SaveDir: "saves"}
	}
	return cfg
}
