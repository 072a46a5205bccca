package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/alanyoungcy/swingdesk/internal/blob/s3"
	"github.com/alanyoungcy/swingdesk/internal/brief"
	"github.com/alanyoungcy/swingdesk/internal/cache/redis"
	"github.com/alanyoungcy/swingdesk/internal/config"
	"github.com/alanyoungcy/swingdesk/internal/domain"
	"github.com/alanyoungcy/swingdesk/internal/evaluator"
	"github.com/alanyoungcy/swingdesk/internal/metrics"
	"github.com/alanyoungcy/swingdesk/internal/notify"
	"github.com/alanyoungcy/swingdesk/internal/server/handler"
	"github.com/alanyoungcy/swingdesk/internal/service"
	"github.com/alanyoungcy/swingdesk/internal/store/postgres"
)

// Dependencies bundles every concrete dependency the application modes need.
// It is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores
	PositionStore domain.PositionStore
	AuditStore    domain.AuditStore

	// Caches
	PriceCache     domain.PriceCache
	CandidateStore domain.CandidateStore
	RateLimiter    domain.RateLimiter
	LockManager    domain.LockManager
	SignalBus      domain.SignalBus

	// Archive is nil when object storage is disabled.
	Archive *s3blob.BriefArchive

	Notifier *notify.Notifier
	Metrics  *metrics.Registry

	// Checks feeds the health endpoint.
	Checks map[string]handler.Pinger

	// Services
	Positions  *service.PositionService
	Prices     *service.PriceService
	Candidates *service.CandidateService
	Cycles     *service.CycleService
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Metrics: metrics.New(),
		Checks:  map[string]handler.Pinger{},
	}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)
	deps.Checks["postgres"] = pgClient.Ping

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.PositionStore = postgres.NewPositionStore(pool)
	deps.AuditStore = postgres.NewAuditStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })
	deps.Checks["redis"] = redisClient.Ping

	deps.PriceCache = redis.NewPriceCache(redisClient, cfg.Redis.QuoteTTL.Duration)
	deps.CandidateStore = redis.NewCandidateCache(redisClient, cfg.Redis.CandidateTTL.Duration)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient, cfg.Redis.StreamMaxLen)

	// --- S3 brief archive ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Checks["s3"] = s3Client.Health
		deps.Archive = s3blob.NewBriefArchive(s3Client, s3Client, deps.AuditStore)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Services ---
	cycleCfg, err := CycleConfigFrom(cfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: %w", err)
	}

	deps.Positions = service.NewPositionService(deps.PositionStore, deps.SignalBus, deps.AuditStore, logger)
	deps.Prices = service.NewPriceService(deps.PriceCache, deps.SignalBus, PriceConfigFrom(cfg), deps.Metrics, logger)
	deps.Candidates = service.NewCandidateService(deps.CandidateStore, logger)

	cycleDeps := service.CycleDeps{
		Positions:  deps.PositionStore,
		Prices:     deps.Prices,
		Candidates: deps.CandidateStore,
		Locks:      deps.LockManager,
		Bus:        deps.SignalBus,
		Notifier:   deps.Notifier,
		Metrics:    deps.Metrics,
	}
	if deps.Archive != nil {
		cycleDeps.Archive = deps.Archive
	}
	deps.Cycles = service.NewCycleService(cycleDeps, cycleCfg, logger)

	return deps, cleanup, nil
}

// CycleConfigFrom maps the file configuration onto the cycle service.
func CycleConfigFrom(cfg *config.Config) (service.CycleConfig, error) {
	loc, err := cfg.Location()
	if err != nil {
		return service.CycleConfig{}, fmt.Errorf("cycle timezone: %w", err)
	}
	return service.CycleConfig{
		Slots: SlotConfigFrom(cfg),
		Brief: brief.Config{
			MinEntryScore:        cfg.Brief.MinEntryScore,
			MinRiskReward:        cfg.Brief.MinRiskReward,
			MaxEntriesPerDay:     cfg.Brief.MaxEntriesPerDay,
			MaxRiskPercent:       cfg.Brief.MaxRiskPercent,
			AccountSize:          cfg.Brief.AccountSize,
			StopAdjustProgress:   cfg.Brief.StopAdjustProgress,
			StopAdjustPnLPercent: cfg.Brief.StopAdjustPnLPercent,
		},
		Evaluation: evaluator.Options{
			StaleAfter: cfg.Evaluation.StaleAfter.Duration,
			Workers:    cfg.Evaluation.Workers,
		},
		LockTTL:  cfg.Cycle.LockTTL.Duration,
		Location: loc,
	}, nil
}

// SlotConfigFrom converts the quota map into domain categories.
func SlotConfigFrom(cfg *config.Config) domain.SlotConfig {
	quotas := make(map[domain.Category]int, len(cfg.Slots.Quotas))
	for name, q := range cfg.Slots.Quotas {
		quotas[domain.Category(strings.ToLower(strings.TrimSpace(name)))] = q
	}
	return domain.SlotConfig{
		TotalCapacity: cfg.Slots.TotalCapacity,
		Quotas:        quotas,
	}
}

// PriceConfigFrom maps the prices section onto the price service.
func PriceConfigFrom(cfg *config.Config) service.PriceConfig {
	return service.PriceConfig{
		MaxAttempts:     cfg.Prices.MaxAttempts,
		Backoff:         cfg.Prices.Backoff.Duration,
		BreakerFailures: uint32(max(cfg.Prices.BreakerFailures, 1)),
		BreakerCooldown: cfg.Prices.BreakerCooldown.Duration,
	}
}
