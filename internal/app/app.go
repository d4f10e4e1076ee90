// Package app initializes and holds the long-lived services of a crawl run,
// acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nerabuild/catalog-crawler/internal/api"
	rediscache "github.com/nerabuild/catalog-crawler/internal/cache/redis"
	"github.com/nerabuild/catalog-crawler/internal/catalog"
	"github.com/nerabuild/catalog-crawler/internal/clock/system"
	"github.com/nerabuild/catalog-crawler/internal/config"
	"github.com/nerabuild/catalog-crawler/internal/extract"
	collyfetcher "github.com/nerabuild/catalog-crawler/internal/fetcher/colly"
	"github.com/nerabuild/catalog-crawler/internal/id/uuid"
	"github.com/nerabuild/catalog-crawler/internal/orchestrator"
	"github.com/nerabuild/catalog-crawler/internal/policy/ratelimit"
	"github.com/nerabuild/catalog-crawler/internal/source"
	"github.com/nerabuild/catalog-crawler/internal/storage/memory"
	"github.com/nerabuild/catalog-crawler/internal/storage/postgres"
	"github.com/nerabuild/catalog-crawler/internal/writer"
)

// App holds the services shared by one crawl run.
type App struct {
	cfg          config.Config
	logger       *zap.Logger
	store        catalog.Store
	cache        catalog.PriceCache
	server       *api.Server
	orchestrator *orchestrator.Orchestrator
}

// NewApp builds every service from cfg. Failing to acquire the catalog store
// returns an error wrapping catalog.ErrStartup; an unreachable Redis is
// logged and the run continues without the price cache.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}

	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.store = store

	if cfg.Redis.Addr != "" {
		cache, err := rediscache.New(ctx, rediscache.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			TTL:       cfg.Redis.TTL,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			logger.Warn("price cache unavailable, continuing without it", zap.Error(err))
		} else {
			a.cache = cache
		}
	}

	clock := system.New()
	ids := uuid.New()
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:     cfg.Crawler.UserAgent,
		RespectRobots: cfg.Crawler.RespectRobots,
		Timeout:       cfg.Crawler.RequestTimeout,
	})

	adapters, err := buildAdapters(cfg, fetcher, clock)
	if err != nil {
		a.Close()
		return nil, err
	}

	writerOpts := []writer.Option{writer.WithLogger(logger.Named("writer"))}
	if a.cache != nil {
		writerOpts = append(writerOpts, writer.WithPriceCache(a.cache))
	}
	w, err := writer.New(a.store, clock, ids, writerOpts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build writer: %w", err)
	}

	categories, err := cfg.CategoryList()
	if err != nil {
		a.Close()
		return nil, err
	}
	orch, err := orchestrator.New(orchestrator.Config{
		Categories:      categories,
		Keywords:        cfg.KeywordMatrix(),
		CategoryPause:   cfg.Crawler.CategoryDelay,
		ParallelSources: cfg.Crawler.ParallelSources,
	}, orchestrator.Deps{
		Adapters:  adapters,
		Extractor: extract.New(nil, nil),
		Writer:    w,
		Pacer:     ratelimit.New(ratelimit.Config{Interval: cfg.Crawler.KeywordDelay}),
		Clock:     clock,
		IDs:       ids,
		Logger:    logger.Named("orchestrator"),
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}
	a.orchestrator = orch

	if cfg.Metrics.Addr != "" {
		checks := map[string]api.ReadinessCheck{}
		if pinger, ok := a.store.(interface{ Ping(context.Context) error }); ok {
			checks["store"] = pinger.Ping
		}
		a.server = api.NewServer(logger.Named("api"), checks)
	}
	return a, nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (catalog.Store, error) {
	switch cfg.Provider {
	case config.ProviderMemory:
		logger.Info("using in-memory catalog store; records are discarded on exit")
		return memory.NewCatalogStore(), nil
	case config.ProviderPostgres:
		store, err := postgres.New(ctx, postgres.Config{
			DSN:      cfg.DSN,
			Table:    cfg.Table,
			MaxConns: cfg.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: open catalog store: %w", catalog.ErrStartup, err)
		}
		if cfg.AutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				store.Close()
				return nil, fmt.Errorf("%w: %w", catalog.ErrStartup, err)
			}
		}
		logger.Info("connected to catalog store", zap.String("provider", cfg.Provider), zap.String("table", cfg.Table))
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown database provider %q", catalog.ErrStartup, cfg.Provider)
	}
}

func buildAdapters(cfg config.Config, fetcher catalog.Fetcher, clock catalog.Clock) ([]catalog.SourceAdapter, error) {
	adapters := make([]catalog.SourceAdapter, 0, len(cfg.Sources.Enabled))
	for _, name := range cfg.Sources.Enabled {
		spec, ok := source.Builtin(name)
		if !ok {
			return nil, fmt.Errorf("unknown source %q", name)
		}
		if override := cfg.Sources.BaseURL(name); override != "" {
			spec.BaseURL = override
		}
		adapter, err := source.New(spec, fetcher, source.Config{
			MaxListings: cfg.Crawler.MaxListings,
			Clock:       clock,
		})
		if err != nil {
			return nil, fmt.Errorf("build source %s: %w", name, err)
		}
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}

// Store exposes the catalog store.
func (a *App) Store() catalog.Store {
	return a.store
}

// Run serves the operator endpoints when configured and crawls every
// configured category once.
func (a *App) Run(ctx context.Context) (orchestrator.Report, error) {
	if a.server != nil {
		if _, err := a.server.Start(a.cfg.Metrics.Addr); err != nil {
			return orchestrator.Report{}, fmt.Errorf("start operator server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("operator server shutdown failed", zap.Error(err))
			}
		}()
	}
	report, err := a.orchestrator.Run(ctx)
	if err != nil {
		return report, fmt.Errorf("crawl run: %w", err)
	}
	return report, nil
}

// Close releases the store and cache connections.
func (a *App) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("error closing price cache", zap.Error(err))
		}
	}
	if a.store != nil {
		a.store.Close()
	}
}
