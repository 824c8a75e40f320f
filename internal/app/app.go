// Package app wires the relay process together in a dependency injector.
package app

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/hexgames/internal/config"
	"github.com/nfrund/hexgames/internal/pubsub"
	"github.com/nfrund/hexgames/internal/relay"
	"github.com/nfrund/hexgames/internal/savegame"
	"github.com/nfrund/hexgames/internal/server"
)

// Tracing is the tracer of the bus and the flush of its exporter.
type Tracing struct {
	Tracer  trace.Tracer
	cleanup func()
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown() {
	t.cleanup()
}

// Bus is the in-memory bus the relay publishes on.
type Bus struct {
	*pubsub.WatermillBridge
}

// Shutdown closes the bus and ends its subscriptions.
func (b *Bus) Shutdown() error {
	return b.Close()
}

// New returns an injector providing every service of the relay process.
// fs is where saves are kept.
func New(cfg *config.Config, logger *slog.Logger, fs afero.Fs) *do.RootScope {
	injector := do.New()
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, fs)

	do.Provide(injector, provideTracing)
	do.Provide(injector, provideBus)
	do.Provide(injector, provideRelay)
	do.Provide(injector, provideRecorder)
	do.Provide(injector, provideStore)
	do.Provide(injector, provideServer)
	return injector
}

func provideTracing(i do.Injector) (*Tracing, error) {
	cfg := do.MustInvoke[*config.Config](i)
	tracer, cleanup, err := pubsub.SetupOTel(context.Background(), cfg.Tracing)
	if err != nil {
		return nil, err
	}
	return &Tracing{Tracer: tracer, cleanup: cleanup}, nil
}

func provideBus(i do.Injector) (*Bus, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if !cfg.Tracing.Enabled {
		return &Bus{pubsub.NewWatermillBridge()}, nil
	}
	tracing, err := do.Invoke[*Tracing](i)
	if err != nil {
		return nil, err
	}
	return &Bus{pubsub.NewWatermillBridgeWithTracer(tracing.Tracer)}, nil
}

func provideRelay(i do.Injector) (*relay.Relay, error) {
	bus, err := do.Invoke[*Bus](i)
	if err != nil {
		return nil, err
	}
	return relay.New(bus, do.MustInvoke[*slog.Logger](i)), nil
}

func provideRecorder(i do.Injector) (*relay.Recorder, error) {
	cfg := do.MustInvoke[*config.Config](i)
	bus, err := do.Invoke[*Bus](i)
	if err != nil {
		return nil, err
	}
	rec := relay.NewRecorder(cfg.Recorded)
	if err := rec.Subscribe(context.Background(), bus); err != nil {
		return nil, err
	}
	return rec, nil
}

func provideStore(i do.Injector) (savegame.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return savegame.NewAferoStore(do.MustInvoke[afero.Fs](i), cfg.SaveDir), nil
}

func provideServer(i do.Injector) (*server.Server, error) {
	r, err := do.Invoke[*relay.Relay](i)
	if err != nil {
		return nil, err
	}
	deps := server.Dependencies{
		Relay:  r,
		Saves:  do.MustInvoke[savegame.Store](i),
		Logger: do.MustInvoke[*slog.Logger](i),
	}
	if cfg := do.MustInvoke[*config.Config](i); cfg.Recorded > 0 {
		if deps.Recorder, err = do.Invoke[*relay.Recorder](i); err != nil {
			return nil, err
		}
	}
	return server.New(deps), nil
}
