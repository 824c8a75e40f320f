package main

import (
	"log/slog"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/afero"

	"github.com/nfrund/hexgames/internal/app"
	"github.com/nfrund/hexgames/internal/config"
	"github.com/nfrund/hexgames/internal/logging"
	"github.com/nfrund/hexgames/internal/server"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogFormat, cfg.LogLevel)

	injector := app.New(cfg, logger, afero.NewOsFs())
	defer injector.Shutdown()

	srv, err := do.Invoke[*server.Server](injector)
	if err != nil {
		logger.Error("Failed to build server", "error", err)
		os.Exit(1)
	}
	if err := srv.Start(cfg.Addr); err != nil {
		logger.Error("Relay stopped", "error", err)
		injector.Shutdown()
		os.Exit(1)
	}
}
