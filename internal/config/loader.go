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
// built-in defaults, applies BOXOFFICE_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known BOXOFFICE_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "BOXOFFICE_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "BOXOFFICE_DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "BOXOFFICE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "BOXOFFICE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "BOXOFFICE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "BOXOFFICE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "BOXOFFICE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "BOXOFFICE_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "BOXOFFICE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "BOXOFFICE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "BOXOFFICE_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "BOXOFFICE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BOXOFFICE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BOXOFFICE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BOXOFFICE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "BOXOFFICE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "BOXOFFICE_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "BOXOFFICE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "BOXOFFICE_S3_REGION")
	setStr(&cfg.S3.Bucket, "BOXOFFICE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "BOXOFFICE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "BOXOFFICE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "BOXOFFICE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "BOXOFFICE_S3_FORCE_PATH_STYLE")

	// ── Humanitix ──
	setBool(&cfg.Humanitix.Enabled, "BOXOFFICE_HUMANITIX_ENABLED")
	setStr(&cfg.Humanitix.BaseURL, "BOXOFFICE_HUMANITIX_BASE_URL")
	setStr(&cfg.Humanitix.ApiKey, "BOXOFFICE_HUMANITIX_API_KEY")
	setStr(&cfg.Humanitix.WebhookSecret, "BOXOFFICE_HUMANITIX_WEBHOOK_SECRET")
	setInt(&cfg.Humanitix.RateLimit, "BOXOFFICE_HUMANITIX_RATE_LIMIT")

	// ── Eventbrite ──
	setBool(&cfg.Eventbrite.Enabled, "BOXOFFICE_EVENTBRITE_ENABLED")
	setStr(&cfg.Eventbrite.BaseURL, "BOXOFFICE_EVENTBRITE_BASE_URL")
	setStr(&cfg.Eventbrite.Token, "BOXOFFICE_EVENTBRITE_TOKEN")
	setStr(&cfg.Eventbrite.WebhookSecret, "BOXOFFICE_EVENTBRITE_WEBHOOK_SECRET")
	setInt(&cfg.Eventbrite.RateLimit, "BOXOFFICE_EVENTBRITE_RATE_LIMIT")

	// ── Fake ──
	setBool(&cfg.Fake.Enabled, "BOXOFFICE_FAKE_ENABLED")
	setInt64(&cfg.Fake.Seed, "BOXOFFICE_FAKE_SEED")
	setInt(&cfg.Fake.Orders, "BOXOFFICE_FAKE_ORDERS")

	// ── Sync ──
	setDuration(&cfg.Sync.DefaultInterval, "BOXOFFICE_SYNC_DEFAULT_INTERVAL")
	setDuration(&cfg.Sync.PollInterval, "BOXOFFICE_SYNC_POLL_INTERVAL")
	setDuration(&cfg.Sync.LeaseTTL, "BOXOFFICE_SYNC_LEASE_TTL")
	setInt(&cfg.Sync.DueBatchSize, "BOXOFFICE_SYNC_DUE_BATCH_SIZE")
	setDuration(&cfg.Sync.RateWindow, "BOXOFFICE_SYNC_RATE_WINDOW")

	// ── Reconcile ──
	setInt64(&cfg.Reconcile.MismatchDetectCents, "BOXOFFICE_RECONCILE_MISMATCH_DETECT_CENTS")
	setInt64(&cfg.Reconcile.AutoCorrectMaxCents, "BOXOFFICE_RECONCILE_AUTO_CORRECT_MAX_CENTS")
	setInt64(&cfg.Reconcile.HighSeverityCents, "BOXOFFICE_RECONCILE_HIGH_SEVERITY_CENTS")
	setDuration(&cfg.Reconcile.DuplicateWindow, "BOXOFFICE_RECONCILE_DUPLICATE_WINDOW")
	setInt(&cfg.Reconcile.AlertDiscrepancyCount, "BOXOFFICE_RECONCILE_ALERT_DISCREPANCY_COUNT")
	setInt64(&cfg.Reconcile.AlertRevenueCents, "BOXOFFICE_RECONCILE_ALERT_REVENUE_CENTS")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "BOXOFFICE_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "BOXOFFICE_ARCHIVE_RETENTION_DAYS")
	setDuration(&cfg.Archive.Interval, "BOXOFFICE_ARCHIVE_INTERVAL")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "BOXOFFICE_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "BOXOFFICE_SERVER_PORT")
	setStr(&cfg.Server.ApiKey, "BOXOFFICE_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "BOXOFFICE_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "BOXOFFICE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "BOXOFFICE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "BOXOFFICE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "BOXOFFICE_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "BOXOFFICE_MODE")
	setStr(&cfg.LogLevel, "BOXOFFICE_LOG_LEVEL")
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
