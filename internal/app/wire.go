package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/comedyloft/boxoffice/internal/blob/s3"
	"github.com/comedyloft/boxoffice/internal/cache/redis"
	"github.com/comedyloft/boxoffice/internal/config"
	"github.com/comedyloft/boxoffice/internal/domain"
	"github.com/comedyloft/boxoffice/internal/notify"
	"github.com/comedyloft/boxoffice/internal/platform"
	"github.com/comedyloft/boxoffice/internal/platform/eventbrite"
	"github.com/comedyloft/boxoffice/internal/platform/fake"
	"github.com/comedyloft/boxoffice/internal/platform/humanitix"
	"github.com/comedyloft/boxoffice/internal/server/handler"
	"github.com/comedyloft/boxoffice/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application modes
// need. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Stores
	Sales         domain.SaleStore
	Links         domain.PlatformStore
	Events        domain.EventStore
	Reports       domain.ReportStore
	Discrepancies domain.DiscrepancyStore
	Schedules     domain.ScheduleStore
	WebhookLogs   domain.WebhookLogStore
	Audit         domain.AuditStore

	// Caches
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager

	// Platform adapters
	Platforms *platform.Registry

	// Blob storage (nil unless archiving is enabled)
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Notifications
	Notifier *notify.Notifier

	// Health probes keyed by component name.
	Health map[string]handler.Pinger
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them with a cleanup function to be called on
// shutdown.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Health: make(map[string]handler.Pinger)}

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
	deps.Health["postgres"] = pgClient

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.Sales = postgres.NewSaleStore(pool)
	deps.Links = postgres.NewPlatformStore(pool)
	deps.Events = postgres.NewEventStore(pool)
	deps.Reports = postgres.NewReportStore(pool)
	deps.Discrepancies = postgres.NewDiscrepancyStore(pool)
	deps.Schedules = postgres.NewScheduleStore(pool)
	deps.WebhookLogs = postgres.NewWebhookLogStore(pool)
	deps.Audit = postgres.NewAuditStore(pool)

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
	deps.Health["redis"] = redisClient

	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)

	// --- Platform adapters (explicit DI; the fake adapter is only wired
	// when configuration asks for it) ---
	var clients []platform.Client
	if cfg.Humanitix.Enabled {
		clients = append(clients, humanitix.NewClient(
			cfg.Humanitix.BaseURL,
			cfg.Humanitix.ApiKey,
			cfg.Humanitix.WebhookSecret,
		))
	}
	if cfg.Eventbrite.Enabled {
		clients = append(clients, eventbrite.NewClient(
			cfg.Eventbrite.BaseURL,
			cfg.Eventbrite.Token,
			cfg.Eventbrite.WebhookSecret,
		))
	}
	if cfg.Fake.Enabled {
		clients = append(clients, fake.NewClient(cfg.Fake.Seed, cfg.Fake.Orders))
	}
	deps.Platforms = platform.NewRegistry(clients...)

	// --- S3 blob storage (only when archiving is enabled) ---
	if cfg.Archive.Enabled {
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
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.WebhookLogs, deps.Reports, deps.Audit)
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

	return deps, cleanup, nil
}
