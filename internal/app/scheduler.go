package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alanyoungcy/swingdesk/internal/domain"
	"github.com/alanyoungcy/swingdesk/internal/service"
)

// cycleRunner is the part of the cycle service the scheduler drives.
type cycleRunner interface {
	Run(ctx context.Context) (service.CycleResult, error)
}

// Scheduler fires the evaluation cycle on a cron schedule and on demand.
// Runs are serialized: a tick that arrives mid-run is coalesced into one
// follow-up run.
type Scheduler struct {
	cron    *cron.Cron
	runner  cycleRunner
	trigger chan struct{}
	loc     *time.Location
	logger  *slog.Logger
}

// NewScheduler parses schedule as a standard five-field cron expression
// evaluated in loc.
func NewScheduler(schedule string, loc *time.Location, runner cycleRunner, logger *slog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		runner:  runner,
		trigger: make(chan struct{}, 1),
		loc:     loc,
		logger:  logger.With(slog.String("component", "scheduler")),
	}
	s.cron = cron.New(cron.WithLocation(loc), cron.WithLogger(cronLogger{s.logger}))
	if _, err := s.cron.AddFunc(schedule, s.Trigger); err != nil {
		return nil, fmt.Errorf("scheduler: parse %q: %w", schedule, err)
	}
	return s, nil
}

// Trigger requests a run without blocking. Requests made while one is
// already pending are dropped.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// TriggerChannel exposes the request channel for the HTTP run endpoint.
func (s *Scheduler) TriggerChannel() chan<- struct{} {
	return s.trigger
}

// Next returns the next scheduled fire time, in the schedule's location.
func (s *Scheduler) Next(now time.Time) time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(now.In(s.loc))
}

// Run starts the cron clock and executes requested cycles until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	defer func() {
		<-s.cron.Stop().Done()
		s.logger.Info("scheduler stopped")
	}()
	s.logger.InfoContext(ctx, "scheduler started", slog.Time("next_run", s.Next(time.Now())))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.trigger:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	res, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, domain.ErrLockHeld):
		s.logger.InfoContext(ctx, "cycle skipped, another run holds the lock")
	case err != nil:
		s.logger.ErrorContext(ctx, "cycle failed", slog.String("error", err.Error()))
	default:
		s.logger.InfoContext(ctx, "scheduled cycle done",
			slog.Int("exits", len(res.Brief.Exits)),
			slog.Int("entries", len(res.Brief.Entries)),
			slog.Time("next_run", s.Next(time.Now())),
		)
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err.Error())...)
}
