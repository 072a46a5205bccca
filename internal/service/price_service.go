package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/alanyoungcy/swingdesk/internal/domain"
	"github.com/alanyoungcy/swingdesk/internal/metrics"
)

// PriceConfig tunes retries and the circuit breaker around the price cache.
type PriceConfig struct {
	MaxAttempts int
	Backoff     time.Duration
	// BreakerFailures consecutive failures open the breaker for BreakerCooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// DefaultPriceConfig returns three attempts with 200ms linear backoff and a
// breaker that opens after five consecutive failures.
func DefaultPriceConfig() PriceConfig {
	return PriceConfig{
		MaxAttempts:     3,
		Backoff:         200 * time.Millisecond,
		BreakerFailures: 5,
		BreakerCooldown: 30 * time.Second,
	}
}

// PriceService reads and writes quotes and profiles through the cache with
// retry and a circuit breaker. It implements domain.PriceProvider; when the
// cache is unavailable it returns empty maps along with an error wrapping
// domain.ErrProviderUnavailable, and callers fall back to stored prices.
type PriceService struct {
	cache   domain.PriceCache
	bus     domain.SignalBus
	breaker *gobreaker.CircuitBreaker
	cfg     PriceConfig
	metrics *metrics.Registry
	logger  *slog.Logger
}

// NewPriceService creates a PriceService. bus and m may be nil.
func NewPriceService(cache domain.PriceCache, bus domain.SignalBus, cfg PriceConfig, m *metrics.Registry, logger *slog.Logger) *PriceService {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	logger = logger.With(slog.String("component", "price_service"))
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "price_cache",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &PriceService{
		cache:   cache,
		bus:     bus,
		breaker: breaker,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// Quotes returns quotes for symbols.
func (s *PriceService) Quotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	out, err := call(ctx, s, "quotes", func() (map[string]domain.Quote, error) {
		return s.cache.Quotes(ctx, symbols)
	})
	if err != nil {
		return map[string]domain.Quote{}, err
	}
	return out, nil
}

// Profiles returns profiles for symbols.
func (s *PriceService) Profiles(ctx context.Context, symbols []string) (map[string]domain.Profile, error) {
	out, err := call(ctx, s, "profiles", func() (map[string]domain.Profile, error) {
		return s.cache.Profiles(ctx, symbols)
	})
	if err != nil {
		return map[string]domain.Profile{}, err
	}
	return out, nil
}

// RecordQuotes validates and stores quotes pushed by an external feed and
// announces them on the quotes channel.
func (s *PriceService) RecordQuotes(ctx context.Context, quotes []domain.Quote) error {
	for _, q := range quotes {
		if q.Symbol == "" || q.Price <= 0 {
			return fmt.Errorf("price_service: quote %q price %v: %w", q.Symbol, q.Price, domain.ErrInvalidPosition)
		}
	}
	now := time.Now().UTC()
	for _, q := range quotes {
		if q.AsOf.IsZero() {
			q.AsOf = now
		}
		if err := s.cache.SetQuote(ctx, q); err != nil {
			return fmt.Errorf("price_service: set quote %s: %w", q.Symbol, err)
		}
	}
	publish(ctx, s.bus, s.logger, ChannelQuotes, "", Event{Type: "quotes_updated", At: now, Data: map[string]any{"count": len(quotes)}})
	return nil
}

// RecordProfiles stores instrument profiles.
func (s *PriceService) RecordProfiles(ctx context.Context, profiles []domain.Profile) error {
	for _, p := range profiles {
		if p.Symbol == "" {
			return fmt.Errorf("price_service: profile without symbol: %w", domain.ErrInvalidPosition)
		}
		if err := s.cache.SetProfile(ctx, p); err != nil {
			return fmt.Errorf("price_service: set profile %s: %w", p.Symbol, err)
		}
	}
	return nil
}

// call runs fn through the breaker with linear backoff between attempts.
func call[T any](ctx context.Context, s *PriceService, op string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		res, err := s.breaker.Execute(func() (interface{}, error) {
			return fn()
		})
		if err == nil {
			return res.(T), nil
		}
		lastErr = err
		if s.metrics != nil {
			s.metrics.ProviderErrors.WithLabelValues("price_cache").Inc()
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if attempt == s.cfg.MaxAttempts {
			break
		}
		s.logger.DebugContext(ctx, "retrying price lookup",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("price_service: %s: %w", op, ctx.Err())
		case <-time.After(time.Duration(attempt) * s.cfg.Backoff):
		}
	}
	return zero, fmt.Errorf("price_service: %s: %w: %w", op, domain.ErrProviderUnavailable, lastErr)
}
