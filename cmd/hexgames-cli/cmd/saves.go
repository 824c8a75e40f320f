package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nfrund/hexgames/cmd/hexgames-cli/internal/format"
	"github.com/nfrund/hexgames/internal/savegame"
)

var (
	savesDir    string
	savesFormat string
)

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "Inspect stored games",
	Long: `Inspect the games kept in a save directory (default $SAVE_DIR).

Available subcommands:
  list    List the stored games, newest first
  show    Print one stored game
  delete  Remove a stored game`,
}

var savesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored games",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := format.Check(savesFormat); err != nil {
			return err
		}
		infos, err := store().List(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if savesFormat == format.JSON {
			return format.WriteJSON(w, infos)
		}
		rows := make([][]string, len(infos))
		for i, info := range infos {
			rows[i] = []string{
				info.Name,
				format.Truncate(info.Scenario, 24),
				info.Turn.Clock.String(),
				info.Turn.Player,
				info.Turn.Phase,
				strconv.FormatInt(info.Size, 10),
			}
		}
		return format.WriteTable(w, []string{"NAME", "SCENARIO", "CLOCK", "PLAYER", "PHASE", "BYTES"}, rows, "No saves found")
	},
}

var savesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print one stored game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sv, err := store().Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if savesFormat == format.JSON {
			return format.WriteJSON(cmd.OutOrStdout(), sv)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Scenario: %s\n", sv.Scenario)
		fmt.Fprintf(w, "Clock:    %s\n", sv.Turn.Clock)
		fmt.Fprintf(w, "Player:   %s\n", sv.Turn.Player)
		fmt.Fprintf(w, "Phase:    %s\n", sv.Turn.Phase)
		if sv.Turn.Winner != "" {
			fmt.Fprintf(w, "Winner:   %s\n", sv.Turn.Winner)
		}
		fmt.Fprintf(w, "Units:    %d on the map\n", len(sv.Deployment))
		return nil
	},
}

var savesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a stored game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store().Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	savesCmd.PersistentFlags().StringVar(&savesDir, "dir", "", "save directory (default $SAVE_DIR or saves)")
	savesCmd.PersistentFlags().StringVarP(&savesFormat, "format", "o", format.Table, "output format: table or json")
	savesCmd.AddCommand(savesListCmd, savesShowCmd, savesDeleteCmd)
	rootCmd.AddCommand(savesCmd)
}

func store() *savegame.AferoStore {
	dir := savesDir
	if dir == "" {
		dir = settings().SaveDir
	}
	return savegame.NewAferoStore(fsys, dir)
}
