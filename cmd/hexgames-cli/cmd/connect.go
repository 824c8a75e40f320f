package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrund/hexgames/internal/peer"
	"github.com/nfrund/hexgames/internal/protocol"
)

var connectTimeout time.Duration

var connectCmd = &cobra.Command{
	Use:   "connect <ws-url>",
	Short: "Join a relay and print every frame received",
	Long: `Join a relay as a player and print the status frames and game messages
it forwards, until the opponent leaves or Ctrl+C. Useful to check that a
relay is up and pairs peers.

Example:
  hexgames-cli connect ws://localhost:8081/ws`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		conn, err := peer.Dial(dialCtx, args[0], slog.Default())
		cancel()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		err = conn.Run(ctx, func(ev peer.Event) error {
			switch {
			case ev.Status != nil && ev.Status.Player != "":
				fmt.Fprintf(w, "status: %s as %s\n", ev.Status.Status, ev.Status.Player)
			case ev.Status != nil:
				fmt.Fprintf(w, "status: %s\n", ev.Status.Status)
			case ev.Message != nil:
				data, err := protocol.Encode(*ev.Message)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s: %s\n", ev.Message.Type, data)
			}
			return nil
		})
		switch {
		case errors.Is(err, peer.ErrDisconnected):
			fmt.Fprintln(w, "status: disconnected")
			return nil
		case errors.Is(err, context.Canceled):
			return nil
		}
		return err
	},
}

func init() {
	connectCmd.Flags().DurationVar(&connectTimeout, "timeout", 5*time.Second, "time allowed to reach the relay")
	rootCmd.AddCommand(connectCmd)
}
