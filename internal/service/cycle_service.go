package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/swingdesk/internal/brief"
	"github.com/alanyoungcy/swingdesk/internal/domain"
	"github.com/alanyoungcy/swingdesk/internal/evaluator"
	"github.com/alanyoungcy/swingdesk/internal/metrics"
	"github.com/alanyoungcy/swingdesk/internal/ranking"
	"github.com/alanyoungcy/swingdesk/internal/slots"
)

const cycleLockKey = "cycle"

// BriefArchiver stores generated briefs.
type BriefArchiver interface {
	Archive(ctx context.Context, b domain.Brief, markdown string) (string, error)
	Latest(ctx context.Context) (domain.Brief, error)
}

// BriefNotifier delivers generated briefs.
type BriefNotifier interface {
	NotifyBrief(ctx context.Context, b domain.Brief, markdown string) error
}

// CycleConfig tunes the evaluation cycle.
type CycleConfig struct {
	Slots      domain.SlotConfig
	Brief      brief.Config
	Evaluation evaluator.Options
	LockTTL    time.Duration
	// Location decides which calendar day counts as "today" for the daily
	// entry budget. Nil means UTC.
	Location *time.Location
}

// DefaultCycleConfig returns the default slot budget and brief thresholds.
// It matches what config.Defaults produces.
func DefaultCycleConfig() CycleConfig {
	return CycleConfig{
		Slots:      slots.DefaultConfig(),
		Brief:      brief.DefaultConfig(),
		Evaluation: evaluator.Options{StaleAfter: 72 * time.Hour, Workers: 8},
		LockTTL:    5 * time.Minute,
		Location:   time.UTC,
	}
}

// CycleDeps are the collaborators of a CycleService. Locks, Bus, Archive,
// Notifier and Metrics are optional.
type CycleDeps struct {
	Positions  domain.PositionStore
	Prices     domain.PriceProvider
	Candidates domain.CandidateStore
	Locks      domain.LockManager
	Bus        domain.SignalBus
	Archive    BriefArchiver
	Notifier   BriefNotifier
	Metrics    *metrics.Registry
}

// Snapshot is the immutable input of one cycle.
type Snapshot struct {
	Positions  []domain.Position
	Quotes     map[string]domain.Quote
	Profiles   map[string]domain.Profile
	Candidates []domain.Candidate
	Now        time.Time
}

// CycleResult is the output of one cycle.
type CycleResult struct {
	Brief       domain.Brief        `json:"brief"`
	Evaluations []domain.Evaluation `json:"evaluations"`
	Markdown    string              `json:"markdown"`
	ArchivePath string              `json:"archive_path,omitempty"`
}

// CycleService snapshots positions, prices and candidates, runs the pure
// evaluation pipeline over the snapshot and distributes the resulting brief.
type CycleService struct {
	deps   CycleDeps
	cfg    CycleConfig
	logger *slog.Logger
	now    func() time.Time

	mu   sync.RWMutex
	last *CycleResult
}

// NewCycleService creates a CycleService.
func NewCycleService(deps CycleDeps, cfg CycleConfig, logger *slog.Logger) *CycleService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	return &CycleService{
		deps:   deps,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "cycle_service")),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Snapshot reads every input of a cycle. Only the position store is
// required; price and candidate failures degrade to empty inputs.
func (s *CycleService) Snapshot(ctx context.Context) (Snapshot, error) {
	positions, err := s.deps.Positions.List(ctx, domain.PositionFilter{})
	if err != nil {
		return Snapshot{}, fmt.Errorf("cycle_service: list positions: %w", err)
	}
	snap := Snapshot{
		Positions:  positions,
		Quotes:     map[string]domain.Quote{},
		Profiles:   map[string]domain.Profile{},
		Candidates: []domain.Candidate{},
		Now:        s.now(),
	}

	// Quotes, profiles and candidates degrade independently.
	var g errgroup.Group
	symbols := activeSymbols(positions)
	if len(symbols) > 0 && s.deps.Prices != nil {
		g.Go(func() error {
			quotes, err := s.deps.Prices.Quotes(ctx, symbols)
			if err != nil {
				s.logger.WarnContext(ctx, "quotes unavailable, using fallback prices",
					slog.Int("symbols", len(symbols)),
					slog.String("error", err.Error()),
				)
			} else if quotes != nil {
				snap.Quotes = quotes
			}
			return nil
		})
		g.Go(func() error {
			profiles, err := s.deps.Prices.Profiles(ctx, symbols)
			if err != nil {
				s.logger.WarnContext(ctx, "profiles unavailable",
					slog.String("error", err.Error()),
				)
			} else if profiles != nil {
				snap.Profiles = profiles
			}
			return nil
		})
	}
	if s.deps.Candidates != nil {
		g.Go(func() error {
			candidates, err := s.deps.Candidates.List(ctx)
			if err != nil {
				s.logger.WarnContext(ctx, "candidates unavailable",
					slog.String("error", err.Error()),
				)
			} else if candidates != nil {
				snap.Candidates = candidates
			}
			return nil
		})
	}
	_ = g.Wait()
	return snap, nil
}

func activeSymbols(positions []domain.Position) []string {
	var out []string
	for _, p := range positions {
		if p.IsActive() {
			out = append(out, p.Symbol)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Compose runs the pure pipeline over snap. It has no side effects.
func (s *CycleService) Compose(snap Snapshot) CycleResult {
	res := evaluator.EvaluatePortfolio(snap.Positions, snap.Quotes, snap.Profiles, snap.Now, s.cfg.Evaluation)
	occupancy := slots.Allocate(snap.Positions, s.cfg.Slots)

	b := brief.Build(brief.Input{
		Evaluations: res.Evaluations,
		Summary:     res.Summary,
		Slots:       occupancy,
		Candidates:  ranking.Rank(snap.Candidates),
		OpenedToday: OpenedOn(snap.Positions, snap.Now.In(s.cfg.Location)),
		Now:         snap.Now,
	}, s.cfg.Brief)

	return CycleResult{
		Brief:       b,
		Evaluations: res.Evaluations,
		Markdown:    brief.Render(b),
	}
}

// EvaluatePortfolio evaluates the current active positions.
func (s *CycleService) EvaluatePortfolio(ctx context.Context) (evaluator.PortfolioResult, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return evaluator.PortfolioResult{}, err
	}
	return evaluator.EvaluatePortfolio(snap.Positions, snap.Quotes, snap.Profiles, snap.Now, s.cfg.Evaluation), nil
}

// AllocateSlots reports slot occupancy for the current active positions.
func (s *CycleService) AllocateSlots(ctx context.Context) (domain.SlotSummary, error) {
	positions, err := s.deps.Positions.List(ctx, domain.PositionFilter{Status: domain.PositionStatusActive})
	if err != nil {
		return domain.SlotSummary{}, fmt.Errorf("cycle_service: list positions: %w", err)
	}
	return slots.Allocate(positions, s.cfg.Slots), nil
}

// RankCandidates returns the latest scan in priority order.
func (s *CycleService) RankCandidates(ctx context.Context) ([]domain.Candidate, error) {
	if s.deps.Candidates == nil {
		return []domain.Candidate{}, nil
	}
	candidates, err := s.deps.Candidates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("cycle_service: list candidates: %w", err)
	}
	return ranking.Rank(candidates), nil
}

// BuildDailyBrief builds a brief from current data without publishing,
// archiving or notifying.
func (s *CycleService) BuildDailyBrief(ctx context.Context) (CycleResult, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return CycleResult{}, err
	}
	return s.Compose(snap), nil
}

// Run executes a full cycle under the distributed cycle lock: snapshot,
// record observed prices, build the brief, then publish, archive and notify.
// Distribution failures are logged and do not fail the cycle.
func (s *CycleService) Run(ctx context.Context) (res CycleResult, err error) {
	started := time.Now()
	if s.deps.Metrics != nil {
		defer func() { s.deps.Metrics.ObserveCycle(started, err) }()
	}

	if s.deps.Locks != nil {
		unlock, lockErr := s.deps.Locks.Acquire(ctx, cycleLockKey, s.cfg.LockTTL)
		if lockErr != nil {
			if errors.Is(lockErr, domain.ErrLockHeld) {
				s.logger.InfoContext(ctx, "cycle already running elsewhere, skipping")
			}
			return CycleResult{}, fmt.Errorf("cycle_service: %w", lockErr)
		}
		defer unlock()
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return CycleResult{}, err
	}
	s.recordPrices(ctx, snap.Quotes)

	res = s.Compose(snap)
	b := res.Brief

	publish(ctx, s.deps.Bus, s.logger, ChannelBriefs, StreamBriefs, Event{Type: "brief_generated", At: b.GeneratedAt, Data: b})

	if s.deps.Archive != nil {
		path, archErr := s.deps.Archive.Archive(ctx, b, res.Markdown)
		if archErr != nil {
			s.logger.ErrorContext(ctx, "archive brief failed", slog.String("error", archErr.Error()))
		}
		res.ArchivePath = path
	}
	if s.deps.Notifier != nil {
		if nErr := s.deps.Notifier.NotifyBrief(ctx, b, res.Markdown); nErr != nil {
			s.logger.ErrorContext(ctx, "notify brief failed", slog.String("error", nErr.Error()))
		}
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveBrief(res.Evaluations, b)
	}

	s.mu.Lock()
	s.last = &res
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "cycle complete",
		slog.Int("active", b.Slots.ActiveCount),
		slog.Int("exits", len(b.Exits)),
		slog.Int("stop_adjustments", len(b.StopAdjustments)),
		slog.Int("entries", len(b.Entries)),
		slog.Int("holds", len(b.Holds)),
		slog.Bool("risk_ok", b.RiskChecks.AllPassed()),
		slog.Duration("took", time.Since(started)),
	)
	return res, nil
}

// recordPrices stores fresh quotes as last known prices so later cycles can
// fall back to them.
func (s *CycleService) recordPrices(ctx context.Context, quotes map[string]domain.Quote) {
	prices := make(map[string]float64, len(quotes))
	for sym, q := range quotes {
		if q.Price > 0 {
			prices[sym] = q.Price
		}
	}
	if len(prices) == 0 {
		return
	}
	if err := s.deps.Positions.RecordPrices(ctx, prices); err != nil {
		s.logger.WarnContext(ctx, "record last prices failed", slog.String("error", err.Error()))
	}
}

// Last returns the result of the most recent Run in this process.
func (s *CycleService) Last() (CycleResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return CycleResult{}, false
	}
	return *s.last, true
}

// LatestBrief returns the last brief built in this process or, failing that,
// the newest archived one.
func (s *CycleService) LatestBrief(ctx context.Context) (domain.Brief, error) {
	if res, ok := s.Last(); ok {
		return res.Brief, nil
	}
	if s.deps.Archive == nil {
		return domain.Brief{}, fmt.Errorf("cycle_service: no brief yet: %w", domain.ErrNotFound)
	}
	b, err := s.deps.Archive.Latest(ctx)
	if err != nil {
		return domain.Brief{}, fmt.Errorf("cycle_service: latest brief: %w", err)
	}
	return b, nil
}
