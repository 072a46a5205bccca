package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/swingdesk/internal/server"
	"github.com/alanyoungcy/swingdesk/internal/server/handler"
	"github.com/alanyoungcy/swingdesk/internal/server/ws"
	"github.com/alanyoungcy/swingdesk/internal/service"
)

// ServerMode runs the HTTP API and WebSocket hub only. Brief runs requested
// over HTTP execute synchronously.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, nil)
	return g.Wait()
}

// CycleMode runs the scheduled evaluation cycle and the position notifier
// without an HTTP surface.
func (a *App) CycleMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting cycle mode")

	g, ctx := errgroup.WithContext(ctx)
	if _, err := a.startScheduler(ctx, g, deps); err != nil {
		return err
	}
	a.startPositionRelay(ctx, g, deps)
	return g.Wait()
}

// FullMode runs everything. POST /api/brief/run is routed to the scheduler
// so manual and scheduled runs never overlap inside one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	sched, err := a.startScheduler(ctx, g, deps)
	if err != nil {
		return err
	}
	a.startPositionRelay(ctx, g, deps)
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, sched.TriggerChannel())
	} else {
		a.logger.WarnContext(ctx, "server.enabled is false, full mode runs without HTTP")
	}
	return g.Wait()
}

func (a *App) startScheduler(ctx context.Context, g *errgroup.Group, deps *Dependencies) (*Scheduler, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	sched, err := NewScheduler(a.cfg.Cycle.Schedule, loc, deps.Cycles, a.logger)
	if err != nil {
		return nil, err
	}
	g.Go(func() error {
		return sched.Run(ctx)
	})
	if a.cfg.Cycle.RunOnStart {
		sched.Trigger()
	}
	return sched, nil
}

// startPositionRelay forwards position events to chat. A bus failure only
// disables the relay.
func (a *App) startPositionRelay(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	g.Go(func() error {
		if err := deps.Notifier.RelayPositions(ctx, deps.SignalBus, service.ChannelPositions); err != nil {
			a.logger.WarnContext(ctx, "position relay stopped", slog.String("error", err.Error()))
		}
		return nil
	})
}

// startHTTPServer adds the HTTP server and WebSocket hub to g. The server is
// shut down gracefully when the context is cancelled. trigger is optional;
// when nil, brief runs requested over HTTP execute inline.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, trigger chan<- struct{}) {
	hub := ws.NewHub(deps.SignalBus, ws.Config{
		Mode:           a.cfg.Mode,
		StartedAt:      time.Now().UTC(),
		AllowedOrigins: a.cfg.Server.CORSOrigins,
	}, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	cycle := handler.NewCycleHandler(deps.Cycles, a.logger)
	if trigger != nil {
		cycle = cycle.WithTriggerChannel(trigger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, server.Handlers{
		Health:     handler.NewHealthHandler(a.cfg.Mode, deps.Checks, a.logger),
		Positions:  handler.NewPositionHandler(deps.Positions, a.logger),
		Cycle:      cycle,
		Candidates: handler.NewCandidateHandler(deps.Candidates, a.logger),
		Quotes:     handler.NewQuoteHandler(deps.Prices, a.logger),
		Audit:      handler.NewAuditHandler(deps.AuditStore, a.logger),
		Events:     handler.NewEventHandler(deps.SignalBus, a.logger),
	}, server.Deps{
		Hub:     hub,
		Metrics: deps.Metrics,
		Limiter: deps.RateLimiter,
	}, a.logger)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
