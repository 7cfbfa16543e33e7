package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/alanyoungcy/polyarb/internal/blob/s3"
	"github.com/alanyoungcy/polyarb/internal/cache/redis"
	"github.com/alanyoungcy/polyarb/internal/config"
	"github.com/alanyoungcy/polyarb/internal/domain"
	"github.com/alanyoungcy/polyarb/internal/notify"
	"github.com/alanyoungcy/polyarb/internal/platform/polymarket"
	"github.com/alanyoungcy/polyarb/internal/server/handler"
	"github.com/alanyoungcy/polyarb/internal/service"
	"github.com/alanyoungcy/polyarb/internal/store/postgres"
)

// Dependencies bundles the concrete collaborators the modes run on. Every
// infrastructure field is nil when its section is disabled.
type Dependencies struct {
	Gamma *polymarket.GammaClient

	Redis       *redis.Client
	RateLimiter *redis.RateLimiter
	MarketCache *redis.MarketCache
	LockManager *redis.LockManager
	SignalBus   *redis.SignalBus

	Postgres    *postgres.Client
	ScanStore   *postgres.ScanStore
	MarketStore *postgres.MarketStore

	S3         *s3blob.Client
	BlobReader *s3blob.Reader
	Archiver   *s3blob.Archiver

	Notifier *notify.Notifier

	Fetcher *service.MarketFetcher
	Scans   *service.ScanService
}

// Wire constructs every dependency the configuration enables and returns
// them with a cleanup function that releases them in reverse order.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(what string, err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, fmt.Errorf("wire: %s: %w", what, err)
	}

	deps := &Dependencies{}

	// --- Redis ---
	if cfg.Redis.Enabled {
		rc, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail("redis", err)
		}
		closers = append(closers, func() { _ = rc.Close() })

		deps.Redis = rc
		deps.RateLimiter = redis.NewRateLimiter(rc, cfg.Polymarket.RequestsPerSecond, time.Second)
		deps.MarketCache = redis.NewMarketCache(rc)
		deps.LockManager = redis.NewLockManager(rc)
		deps.SignalBus = redis.NewSignalBus(rc)
	}

	// --- PostgreSQL ---
	if cfg.Postgres.Enabled {
		pg, err := postgres.New(ctx, postgres.ClientConfig{
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
			return fail("postgres", err)
		}
		closers = append(closers, pg.Close)

		if cfg.Postgres.RunMigrations {
			if err := pg.RunMigrations(ctx); err != nil {
				return fail("postgres migrations", err)
			}
		}

		deps.Postgres = pg
		deps.ScanStore = postgres.NewScanStore(pg.Pool())
		deps.MarketStore = postgres.NewMarketStore(pg.Pool())
	}

	// --- S3 ---
	if cfg.S3.Enabled {
		sc, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return fail("s3", err)
		}
		deps.S3 = sc
		deps.BlobReader = s3blob.NewReader(sc)
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(sc), cfg.S3.Prefix)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		tg, err := notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			return fail("telegram", err)
		}
		senders = append(senders, tg)
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.MinEdge, logger)

	// --- Market source and scan pipeline ---
	var limiter domain.RateLimiter
	if deps.RateLimiter != nil {
		limiter = deps.RateLimiter
	}
	deps.Gamma = newGammaClient(cfg, limiter, logger)

	var cache domain.MarketCache
	if deps.MarketCache != nil {
		cache = deps.MarketCache
	}
	deps.Fetcher = service.NewMarketFetcher(deps.Gamma, cache, cfg.Scan.PageSize, cfg.Scan.CacheTTL.Duration, logger)
	deps.Scans = service.NewScanService(deps.scanDeps(), logger)

	return deps, cleanup, nil
}

// scanDeps converts the wired concrete types into ScanDeps, leaving disabled
// collaborators as nil interfaces.
// newGammaClient builds the market source. requests_per_second = 0 turns
// throttling off even when a limiter is available.
func newGammaClient(cfg *config.Config, limiter domain.RateLimiter, logger *slog.Logger) *polymarket.GammaClient {
	opts := []polymarket.GammaOption{
		polymarket.WithTimeout(cfg.Polymarket.RequestTimeout.Duration),
		polymarket.WithLogger(logger),
	}
	if limiter != nil && cfg.Polymarket.RequestsPerSecond > 0 {
		opts = append(opts, polymarket.WithRateLimiter(limiter))
	}
	return polymarket.NewGammaClient(cfg.Polymarket.GammaHost, opts...)
}

func (d *Dependencies) scanDeps() service.ScanDeps {
	sd := service.ScanDeps{Fetcher: d.Fetcher}
	if d.ScanStore != nil {
		sd.Scans = d.ScanStore
		sd.Markets = d.MarketStore
	}
	if d.SignalBus != nil {
		sd.Bus = d.SignalBus
	}
	if d.Notifier != nil && d.Notifier.Enabled() {
		sd.Alerter = d.Notifier
	}
	if d.Archiver != nil {
		sd.Archiver = d.Archiver
	}
	return sd
}

// healthChecks lists the reachable-dependency probes for /api/health.
func (d *Dependencies) healthChecks() map[string]handler.Pinger {
	checks := make(map[string]handler.Pinger)
	if d.Redis != nil {
		checks["redis"] = d.Redis
	}
	if d.Postgres != nil {
		checks["postgres"] = d.Postgres
	}
	if d.S3 != nil {
		checks["s3"] = handler.PingFunc(d.S3.Health)
	}
	return checks
}
