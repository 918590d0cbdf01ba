// Package config defines the top-level configuration for the boxoffice
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by BOXOFFICE_* environment variables.
// A Config is read once at startup and treated as immutable from then on;
// services receive copies of the sections they need at construction time.
type Config struct {
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Humanitix  HumanitixConfig  `toml:"humanitix"`
	Eventbrite EventbriteConfig `toml:"eventbrite"`
	Fake       FakeConfig       `toml:"fake"`
	Sync       SyncConfig       `toml:"sync"`
	Reconcile  ReconcileConfig  `toml:"reconcile"`
	Archive    ArchiveConfig    `toml:"archive"`
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

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// HumanitixConfig holds Humanitix API credentials and endpoints.
type HumanitixConfig struct {
	Enabled       bool   `toml:"enabled"`
	BaseURL       string `toml:"base_url"`
	ApiKey        string `toml:"api_key"`
	WebhookSecret string `toml:"webhook_secret"`
	RateLimit     int    `toml:"rate_limit"`
}

// EventbriteConfig holds Eventbrite API credentials and endpoints.
type EventbriteConfig struct {
	Enabled       bool   `toml:"enabled"`
	BaseURL       string `toml:"base_url"`
	Token         string `toml:"token"`
	WebhookSecret string `toml:"webhook_secret"`
	RateLimit     int    `toml:"rate_limit"`
}

// FakeConfig enables the deterministic in-memory platform adapter used in
// development and load testing. It is never enabled by default.
type FakeConfig struct {
	Enabled bool  `toml:"enabled"`
	Seed    int64 `toml:"seed"`
	Orders  int   `toml:"orders"`
}

// SyncConfig holds sync orchestration and scheduling parameters.
type SyncConfig struct {
	DefaultInterval duration `toml:"default_interval"`
	PollInterval    duration `toml:"poll_interval"`
	LeaseTTL        duration `toml:"lease_ttl"`
	DueBatchSize    int      `toml:"due_batch_size"`
	RateWindow      duration `toml:"rate_window"`
}

// ReconcileConfig holds reconciliation thresholds. Money thresholds are in
// cents.
type ReconcileConfig struct {
	MismatchDetectCents   int64    `toml:"mismatch_detect_cents"`
	AutoCorrectMaxCents   int64    `toml:"auto_correct_max_cents"`
	HighSeverityCents     int64    `toml:"high_severity_cents"`
	DuplicateWindow       duration `toml:"duplicate_window"`
	AlertDiscrepancyCount int      `toml:"alert_discrepancy_count"`
	AlertRevenueCents     int64    `toml:"alert_revenue_cents"`
}

// ArchiveConfig holds cold-storage archiving parameters.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	RetentionDays int      `toml:"retention_days"`
	Interval      duration `toml:"interval"`
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
	ApiKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
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
			DSN:           "",
			Host:          "localhost",
			Port:          5432,
			Database:      "boxoffice",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "boxoffice-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Humanitix: HumanitixConfig{
			Enabled:   true,
			BaseURL:   "https://api.humanitix.com/v1",
			RateLimit: 60,
		},
		Eventbrite: EventbriteConfig{
			Enabled:   true,
			BaseURL:   "https://www.eventbriteapi.com/v3",
			RateLimit: 50,
		},
		Fake: FakeConfig{
			Enabled: false,
			Seed:    1,
			Orders:  30,
		},
		Sync: SyncConfig{
			DefaultInterval: duration{15 * time.Minute},
			PollInterval:    duration{30 * time.Second},
			LeaseTTL:        duration{5 * time.Minute},
			DueBatchSize:    20,
			RateWindow:      duration{time.Minute},
		},
		Reconcile: ReconcileConfig{
			MismatchDetectCents:   1,
			AutoCorrectMaxCents:   100,
			HighSeverityCents:     1000,
			DuplicateWindow:       duration{5 * time.Minute},
			AlertDiscrepancyCount: 10,
			AlertRevenueCents:     10_000,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			RetentionDays: 90,
			Interval:      duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"reconciliation_alert", "sync_failed", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true,
	"worker": true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, worker, full)", c.Mode))
	}

	// LogLevel
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
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Platforms. At least one adapter must be enabled, and every enabled
	// real adapter needs credentials and a webhook secret (verification is
	// fail-closed, so a missing secret would reject every delivery).
	if !c.Humanitix.Enabled && !c.Eventbrite.Enabled && !c.Fake.Enabled {
		errs = append(errs, "platforms: at least one of humanitix, eventbrite, fake must be enabled")
	}
	if c.Humanitix.Enabled {
		if c.Humanitix.ApiKey == "" {
			errs = append(errs, "humanitix: api_key is required when enabled")
		}
		if c.Humanitix.BaseURL == "" {
			errs = append(errs, "humanitix: base_url must not be empty")
		}
		if c.Humanitix.WebhookSecret == "" {
			errs = append(errs, "humanitix: webhook_secret is required when enabled")
		}
		if c.Humanitix.RateLimit < 1 {
			errs = append(errs, "humanitix: rate_limit must be >= 1")
		}
	}
	if c.Eventbrite.Enabled {
		if c.Eventbrite.Token == "" {
			errs = append(errs, "eventbrite: token is required when enabled")
		}
		if c.Eventbrite.BaseURL == "" {
			errs = append(errs, "eventbrite: base_url must not be empty")
		}
		if c.Eventbrite.WebhookSecret == "" {
			errs = append(errs, "eventbrite: webhook_secret is required when enabled")
		}
		if c.Eventbrite.RateLimit < 1 {
			errs = append(errs, "eventbrite: rate_limit must be >= 1")
		}
	}
	if c.Fake.Enabled && c.Fake.Orders < 0 {
		errs = append(errs, "fake: orders must be >= 0")
	}

	// Sync
	if c.Sync.DefaultInterval.Duration < time.Minute {
		errs = append(errs, "sync: default_interval must be >= 1m")
	}
	if c.Sync.PollInterval.Duration <= 0 {
		errs = append(errs, "sync: poll_interval must be > 0")
	}
	if c.Sync.LeaseTTL.Duration <= 0 {
		errs = append(errs, "sync: lease_ttl must be > 0")
	}
	if c.Sync.DueBatchSize < 1 {
		errs = append(errs, "sync: due_batch_size must be >= 1")
	}

	// Reconcile. The detect threshold must sit below the auto-correct
	// ceiling, otherwise every detected mismatch would escalate to manual
	// review and the auto-correct path would be unreachable.
	if c.Reconcile.MismatchDetectCents < 1 {
		errs = append(errs, "reconcile: mismatch_detect_cents must be >= 1")
	}
	if c.Reconcile.AutoCorrectMaxCents < c.Reconcile.MismatchDetectCents {
		errs = append(errs, "reconcile: auto_correct_max_cents must be >= mismatch_detect_cents")
	}
	if c.Reconcile.HighSeverityCents <= c.Reconcile.MismatchDetectCents {
		errs = append(errs, "reconcile: high_severity_cents must exceed mismatch_detect_cents")
	}
	if c.Reconcile.DuplicateWindow.Duration <= 0 {
		errs = append(errs, "reconcile: duplicate_window must be > 0")
	}

	// Archive
	if c.Archive.Enabled {
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archiving is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archiving is enabled")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
