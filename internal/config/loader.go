package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SWINGDESK_* environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SWINGDESK_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty).
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "SWINGDESK_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL")
	setStr(&cfg.Postgres.Host, "SWINGDESK_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SWINGDESK_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SWINGDESK_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SWINGDESK_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SWINGDESK_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SWINGDESK_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SWINGDESK_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SWINGDESK_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SWINGDESK_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "SWINGDESK_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SWINGDESK_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SWINGDESK_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SWINGDESK_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SWINGDESK_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SWINGDESK_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.QuoteTTL, "SWINGDESK_REDIS_QUOTE_TTL")
	setDuration(&cfg.Redis.CandidateTTL, "SWINGDESK_REDIS_CANDIDATE_TTL")
	setInt64(&cfg.Redis.StreamMaxLen, "SWINGDESK_REDIS_STREAM_MAX_LEN")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "SWINGDESK_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "SWINGDESK_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SWINGDESK_S3_REGION")
	setStr(&cfg.S3.Bucket, "SWINGDESK_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SWINGDESK_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SWINGDESK_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SWINGDESK_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SWINGDESK_S3_FORCE_PATH_STYLE")

	// ── Slots ──
	setInt(&cfg.Slots.TotalCapacity, "SWINGDESK_SLOTS_TOTAL_CAPACITY")
	setIntMap(&cfg.Slots.Quotas, "SWINGDESK_SLOTS_QUOTAS")

	// ── Evaluation ──
	setDuration(&cfg.Evaluation.StaleAfter, "SWINGDESK_EVALUATION_STALE_AFTER")
	setInt(&cfg.Evaluation.Workers, "SWINGDESK_EVALUATION_WORKERS")

	// ── Brief ──
	setFloat64(&cfg.Brief.MinEntryScore, "SWINGDESK_BRIEF_MIN_ENTRY_SCORE")
	setFloat64(&cfg.Brief.MinRiskReward, "SWINGDESK_BRIEF_MIN_RISK_REWARD")
	setInt(&cfg.Brief.MaxEntriesPerDay, "SWINGDESK_BRIEF_MAX_ENTRIES_PER_DAY")
	setFloat64(&cfg.Brief.MaxRiskPercent, "SWINGDESK_BRIEF_MAX_RISK_PERCENT")
	setFloat64(&cfg.Brief.AccountSize, "SWINGDESK_BRIEF_ACCOUNT_SIZE")

	// ── Prices ──
	setInt(&cfg.Prices.MaxAttempts, "SWINGDESK_PRICES_MAX_ATTEMPTS")
	setDuration(&cfg.Prices.Backoff, "SWINGDESK_PRICES_BACKOFF")
	setInt(&cfg.Prices.BreakerFailures, "SWINGDESK_PRICES_BREAKER_FAILURES")
	setDuration(&cfg.Prices.BreakerCooldown, "SWINGDESK_PRICES_BREAKER_COOLDOWN")

	// ── Cycle ──
	setStr(&cfg.Cycle.Schedule, "SWINGDESK_CYCLE_SCHEDULE")
	setStr(&cfg.Cycle.Timezone, "SWINGDESK_CYCLE_TIMEZONE")
	setDuration(&cfg.Cycle.LockTTL, "SWINGDESK_CYCLE_LOCK_TTL")
	setBool(&cfg.Cycle.RunOnStart, "SWINGDESK_CYCLE_RUN_ON_START")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "SWINGDESK_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "SWINGDESK_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SWINGDESK_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "SWINGDESK_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "SWINGDESK_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "SWINGDESK_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SWINGDESK_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SWINGDESK_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SWINGDESK_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SWINGDESK_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "SWINGDESK_MODE")
	setStr(&cfg.LogLevel, "SWINGDESK_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

// setIntMap parses "trend=3,asym=2". The variable replaces the whole map and is
// ignored if any pair is malformed.
func setIntMap(dst *map[string]int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	out := make(map[string]int)
	for _, pair := range strings.Split(v, ",") {
		k, n, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return
		}
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return
		}
		out[strings.ToLower(strings.TrimSpace(k))] = i
	}
	*dst = out
}
