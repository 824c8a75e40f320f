package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Start runs the HTTP server until an interrupt or terminate signal, then
// drops the seated peers and shuts down gracefully.
func (s *Server) Start(addr string) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("Relay listening", "addr", addr)
		if err := s.E.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errc:
		return err
	case sig := <-quit:
		s.log.Info("Shutting down", "signal", sig.String())
	}
	return s.Shutdown()
}

// Shutdown drops the peers and stops the HTTP server within 10 seconds.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.relay.Shutdown()
	return s.E.Shutdown(ctx)
}
