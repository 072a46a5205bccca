// Package config defines the top-level configuration for swingdesk and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by SWINGDESK_* environment variables.
type Config struct {
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Slots      SlotsConfig      `toml:"slots"`
	Evaluation EvaluationConfig `toml:"evaluation"`
	Brief      BriefConfig      `toml:"brief"`
	Prices     PricesConfig     `toml:"prices"`
	Cycle      CycleConfig      `toml:"cycle"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters and key lifetimes.
type RedisConfig struct {
	Addr         string   `toml:"addr"`
	Password     string   `toml:"password"`
	DB           int      `toml:"db"`
	PoolSize     int      `toml:"pool_size"`
	MaxRetries   int      `toml:"max_retries"`
	TLSEnabled   bool     `toml:"tls_enabled"`
	QuoteTTL     duration `toml:"quote_ttl"`
	CandidateTTL duration `toml:"candidate_ttl"`
	StreamMaxLen int64    `toml:"stream_max_len"`
}

// S3Config holds S3-compatible object storage parameters. The brief archive
// is skipped when Enabled is false.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// SlotsConfig is the slot budget. Quotas are keyed by category name.
type SlotsConfig struct {
	TotalCapacity int            `toml:"total_capacity"`
	Quotas        map[string]int `toml:"quotas"`
}

// EvaluationConfig tunes the portfolio pass.
type EvaluationConfig struct {
	StaleAfter duration `toml:"stale_after"`
	Workers    int      `toml:"workers"`
}

// BriefConfig holds the thresholds of the daily brief.
type BriefConfig struct {
	MinEntryScore        float64 `toml:"min_entry_score"`
	MinRiskReward        float64 `toml:"min_risk_reward"`
	MaxEntriesPerDay     int     `toml:"max_entries_per_day"`
	MaxRiskPercent       float64 `toml:"max_risk_percent"`
	AccountSize          float64 `toml:"account_size"`
	StopAdjustProgress   float64 `toml:"stop_adjust_progress"`
	StopAdjustPnLPercent float64 `toml:"stop_adjust_pnl_percent"`
}

// PricesConfig tunes retries and the circuit breaker around price lookups.
type PricesConfig struct {
	MaxAttempts     int      `toml:"max_attempts"`
	Backoff         duration `toml:"backoff"`
	BreakerFailures int      `toml:"breaker_failures"`
	BreakerCooldown duration `toml:"breaker_cooldown"`
}

// CycleConfig schedules the evaluation cycle.
type CycleConfig struct {
	// Schedule is a standard five-field cron expression.
	Schedule   string   `toml:"schedule"`
	Timezone   string   `toml:"timezone"`
	LockTTL    duration `toml:"lock_ttl"`
	RunOnStart bool     `toml:"run_on_start"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "swingdesk",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			PoolSize:     10,
			MaxRetries:   3,
			QuoteTTL:     duration{72 * time.Hour},
			CandidateTTL: duration{7 * 24 * time.Hour},
			StreamMaxLen: 1000,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "swingdesk-briefs",
			ForcePathStyle: true,
		},
		Slots: SlotsConfig{
			TotalCapacity: 5,
			Quotas:        map[string]int{"trend": 3, "asym": 2},
		},
		Evaluation: EvaluationConfig{
			StaleAfter: duration{72 * time.Hour},
			Workers:    8,
		},
		Brief: BriefConfig{
			MinEntryScore:        70,
			MinRiskReward:        2.5,
			MaxEntriesPerDay:     2,
			MaxRiskPercent:       2,
			StopAdjustProgress:   50,
			StopAdjustPnLPercent: 5,
		},
		Prices: PricesConfig{
			MaxAttempts:     3,
			Backoff:         duration{200 * time.Millisecond},
			BreakerFailures: 5,
			BreakerCooldown: duration{30 * time.Second},
		},
		Cycle: CycleConfig{
			Schedule: "30 17 * * 1-5",
			Timezone: "UTC",
			LockTTL:  duration{5 * time.Minute},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8080,
			CORSOrigins: []string{"http://localhost:5173"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"brief", "urgent_exit", "position_closed"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true,
	"cycle":  true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Location resolves Cycle.Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Cycle.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Cycle.Timezone)
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, cycle, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 || c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must be between 0 and pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}
	if c.Redis.QuoteTTL.Duration <= 0 || c.Redis.CandidateTTL.Duration <= 0 {
		errs = append(errs, "redis: quote_ttl and candidate_ttl must be positive")
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	// Slots
	if c.Slots.TotalCapacity < 1 {
		errs = append(errs, "slots: total_capacity must be >= 1")
	}
	var quotaSum int
	for name, q := range c.Slots.Quotas {
		if q < 0 {
			errs = append(errs, fmt.Sprintf("slots: quota for %q must be >= 0", name))
		}
		quotaSum += q
	}
	if quotaSum > c.Slots.TotalCapacity {
		errs = append(errs, fmt.Sprintf("slots: quotas sum to %d, more than total_capacity %d", quotaSum, c.Slots.TotalCapacity))
	}

	// Evaluation
	if c.Evaluation.StaleAfter.Duration < 0 {
		errs = append(errs, "evaluation: stale_after must not be negative")
	}

	// Brief
	if c.Brief.MaxEntriesPerDay < 0 {
		errs = append(errs, "brief: max_entries_per_day must be >= 0")
	}
	if c.Brief.MaxRiskPercent <= 0 || c.Brief.MaxRiskPercent > 100 {
		errs = append(errs, "brief: max_risk_percent must be in (0, 100]")
	}
	if c.Brief.MinRiskReward < 0 || c.Brief.AccountSize < 0 {
		errs = append(errs, "brief: min_risk_reward and account_size must not be negative")
	}

	// Prices
	if c.Prices.MaxAttempts < 1 {
		errs = append(errs, "prices: max_attempts must be >= 1")
	}
	if c.Prices.BreakerFailures < 1 {
		errs = append(errs, "prices: breaker_failures must be >= 1")
	}

	// Cycle
	if c.Mode != "server" {
		if _, err := cron.ParseStandard(c.Cycle.Schedule); err != nil {
			errs = append(errs, fmt.Sprintf("cycle: invalid schedule %q: %v", c.Cycle.Schedule, err))
		}
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("cycle: unknown timezone %q", c.Cycle.Timezone))
	}
	if c.Cycle.LockTTL.Duration <= 0 {
		errs = append(errs, "cycle: lock_ttl must be positive")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be positive when rate_limit is set")
		}
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
