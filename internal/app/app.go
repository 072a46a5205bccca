// Package app assembles swingdesk from configuration and runs it in one of
// three modes: server (HTTP query surface only), cycle (scheduled daily
// cycle only) or full (both in one process).
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/swingdesk/internal/config"
	"github.com/alanyoungcy/swingdesk/internal/service"
)

// App owns the configuration and the teardown hooks registered while wiring.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

func (a *App) wire(ctx context.Context) (*Dependencies, error) {
	a.logger.DebugContext(ctx, "effective configuration", slog.Any("config", config.RedactedConfig(a.cfg)))
	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)
	return deps, nil
}

// Run blocks until ctx is cancelled or a mode goroutine fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, err := a.wire(ctx)
	if err != nil {
		return err
	}

	modes := map[string]func(context.Context, *Dependencies) error{
		"server": a.ServerMode,
		"cycle":  a.CycleMode,
		"full":   a.FullMode,
	}
	run, ok := modes[strings.ToLower(a.cfg.Mode)]
	if !ok {
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
	return run(ctx, deps)
}

// RunCycle wires the dependencies and runs exactly one evaluation cycle.
func (a *App) RunCycle(ctx context.Context) (service.CycleResult, error) {
	deps, err := a.wire(ctx)
	if err != nil {
		return service.CycleResult{}, err
	}
	return deps.Cycles.Run(ctx)
}

// Close releases pools and clients, last wired first. Repeat calls do nothing.
func (a *App) Close() {
	if len(a.closers) == 0 {
		return
	}
	a.logger.Info("releasing resources")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
