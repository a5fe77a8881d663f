// Package app provides the top-level application lifecycle: it wires the
// dependencies and runs the monitor loop and the optional HTTP server until
// shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbwatch/internal/config"
)

// App is the root application object. It owns the configuration, logger, and
// cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies and blocks until the context is cancelled. The
// monitor loop and the HTTP server run as sibling goroutines; a failure of
// either tears the whole application down.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("ledger_backend", a.cfg.Ledger.Backend),
		slog.Duration("interval", a.cfg.Polling.Interval.Duration),
		slog.Bool("notifications", a.cfg.Notify.Enabled),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := deps.Runner.Run(ctx, a.cfg.Polling.Interval.Duration)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	})

	if deps.Server != nil {
		g.Go(func() error {
			err := deps.Server.Run(ctx)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		})
	}

	return g.Wait()
}

// Close tears down all resources in reverse registration order. Safe to call
// multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
