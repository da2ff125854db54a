// Package app assembles the pricing engine's shared dependencies so the
// entrypoints (API server, seeder) wire them the same way.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ovenhouse/backend-pizzeria/internal/cache"
	"github.com/ovenhouse/backend-pizzeria/internal/catalog"
	"github.com/ovenhouse/backend-pizzeria/internal/config"
	"github.com/ovenhouse/backend-pizzeria/internal/discount"
	"github.com/ovenhouse/backend-pizzeria/internal/events"
	"github.com/ovenhouse/backend-pizzeria/internal/obs"
	"github.com/ovenhouse/backend-pizzeria/internal/pricing"
	"github.com/ovenhouse/backend-pizzeria/internal/scheduler"
)

// Dependencies holds the long-lived objects shared across the process.
type Dependencies struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     *cache.Store
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Catalog   *catalog.CachedCatalog
	Bus       *events.Bus
	Pricing   *pricing.Service
	Discounts discount.Provider
}

// Build constructs the dependency graph for the configured catalog provider.
// The returned cleanup closes any backend connections; it is safe to call
// when Build fails partway.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, func(), error) {
	deps := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Store:     cache.New(),
		Bus:       events.NewBus(),
		Discounts: discount.None{},
	}
	cleanup := func() {
		if deps.Redis != nil {
			if err := deps.Redis.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}
		if deps.DB != nil {
			deps.DB.Close()
		}
	}

	provider, err := buildProvider(ctx, cfg, deps)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	cached, err := catalog.NewCached(deps.Store, provider, catalog.CacheConfig{
		ReferenceTTL: cfg.CatalogReferenceTTL,
		VolatileTTL:  cfg.CatalogVolatileTTL,
		MaxEntries:   cfg.CatalogMaxEntries,
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Catalog = cached

	svc, err := pricing.NewService(pricing.ServiceConfig{
		Store:          deps.Store,
		Catalog:        cached,
		TaxRate:        cfg.TaxRate,
		PriceCacheSize: cfg.PriceCacheMaxEntries,
		Bus:            deps.Bus,
		Logger:         logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.Pricing = svc
	return deps, cleanup, nil
}

// NewRecomputeScheduler builds a debounced recompute loop over the pricing
// service, using the configured debounce window. Each caller gets its own
// scheduler; onResult receives every delivered breakdown.
func (d *Dependencies) NewRecomputeScheduler(onResult func(scheduler.Result)) (*scheduler.Scheduler, error) {
	return scheduler.New(func(ctx context.Context, cfg pricing.Configuration) (pricing.Breakdown, error) {
		return d.Pricing.CalculatePrice(ctx, cfg)
	}, d.Config.RecomputeDebounce, onResult, d.Logger)
}

func buildProvider(ctx context.Context, cfg *config.Config, deps *Dependencies) (catalog.Provider, error) {
	switch cfg.CatalogProvider {
	case config.ProviderStatic:
		return catalog.DefaultMenu(), nil

	case config.ProviderRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := redisotel.InstrumentTracing(client); err != nil {
			deps.Logger.Error().Err(err).Msg("instrument redis tracing")
		}
		if err := redisotel.InstrumentMetrics(client); err != nil {
			deps.Logger.Error().Err(err).Msg("instrument redis metrics")
		}
		deps.Redis = client
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return catalog.NewRedisProvider(client, "")

	case config.ProviderPostgres:
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse database config: %w", err)
		}
		poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
		if poolConfig.ConnConfig.RuntimeParams == nil {
			poolConfig.ConnConfig.RuntimeParams = map[string]string{}
		}
		poolConfig.ConnConfig.RuntimeParams["application_name"] = "pizzeria-pricing"

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		deps.DB = pool
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		return catalog.NewPostgresProvider(pool)

	default:
		return nil, fmt.Errorf("unknown catalog provider %q", cfg.CatalogProvider)
	}
}
