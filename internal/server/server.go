// Package server is the relay's HTTP process: an echo instance carrying the
// websocket relay, the recorded matches and the save store.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/hexgames/internal/middleware"
	"github.com/nfrund/hexgames/internal/relay"
	"github.com/nfrund/hexgames/internal/savegame"
)

// saveWritesPerSecond bounds save uploads and deletions per client.
const saveWritesPerSecond = 5

// Dependencies holds the services the server mounts.
type Dependencies struct {
	Relay    *relay.Relay
	Recorder *relay.Recorder
	Saves    savegame.Store
	Logger   *slog.Logger
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	E     *echo.Echo
	relay *relay.Relay
	log   *slog.Logger
}

// New creates the echo instance and registers every route.
func New(deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))
	setupErrorHandling(e)

	s := &Server{E: e, relay: deps.Relay, log: logger}
	s.registerRoutes(deps)
	return s
}

func (s *Server) registerRoutes(deps Dependencies) {
	s.relay.Register(s.E, deps.Recorder)

	if deps.Saves == nil {
		return
	}
	h := savegame.NewHandler(deps.Saves)
	g := s.E.Group("/saves")
	limit := middleware.RateLimiter(saveWritesPerSecond)
	g.GET("", h.List)
	g.GET("/:name", h.Get)
	g.PUT("/:name", h.Put, limit)
	g.DELETE("/:name", h.Delete, limit)
}

// setupErrorHandling logs unhandled handler errors with a stack trace
// and answers with a plain 500. HTTP errors keep their status.
func setupErrorHandling(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			if err := c.JSON(he.Code, map[string]any{"message": he.Message}); err != nil {
				slog.Error("Failed to write error response", "error", err)
			}
			return
		}
		middleware.FromContext(c.Request().Context()).Error("Internal Server Error (Unhandled)",
			"error", err.Error(),
			"path", c.Request().URL.Path,
			"stack_trace", string(debug.Stack()),
		)
		if err := c.String(http.StatusInternalServerError, "Internal Server Error"); err != nil {
			slog.Error("Failed to write error response", "error", err)
		}
	}
}
