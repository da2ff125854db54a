package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovenhouse/backend-pizzeria/internal/cache"
	"github.com/ovenhouse/backend-pizzeria/internal/resilience"
)

// Cache namespace names. Registered once at process start; everything else
// in the engine refers to catalog data through these.
const (
	NamespaceSizes       = "catalog:sizes"
	NamespaceCrusts      = "catalog:crusts"
	NamespaceSauces      = "catalog:sauces"
	NamespaceToppings    = "catalog:toppings"
	NamespaceSpecialties = "catalog:specialties"
	NamespaceSettings    = "catalog:settings"
)

// listKey is the key each namespace stores its full entry list under.
const listKey = "all"

// CacheConfig sets per-namespace policy. Sizes, crusts and sauces change
// rarely and get the reference TTL; toppings and specialties churn more and
// get the volatile TTL.
type CacheConfig struct {
	ReferenceTTL time.Duration
	VolatileTTL  time.Duration
	MaxEntries   int
}

func (c CacheConfig) withDefaults() CacheConfig {
	if c.ReferenceTTL <= 0 {
		c.ReferenceTTL = time.Hour
	}
	if c.VolatileTTL <= 0 {
		c.VolatileTTL = 25 * time.Minute
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = 64
	}
	return c
}

// CachedCatalog serves catalog reads through the namespaced cache store,
// falling through to the provider on miss. Provider calls run behind a
// circuit breaker so a flapping backend cannot be hammered by the miss path.
type CachedCatalog struct {
	store    *cache.Store
	provider Provider
	breaker  *resilience.Breaker
	logger   zerolog.Logger
}

// NewCached registers the catalog namespaces on store and returns a cached
// catalog view over provider.
func NewCached(store *cache.Store, provider Provider, cfg CacheConfig, logger zerolog.Logger) (*CachedCatalog, error) {
	cfg = cfg.withDefaults()
	namespaces := []struct {
		name string
		ttl  time.Duration
	}{
		{NamespaceSizes, cfg.ReferenceTTL},
		{NamespaceCrusts, cfg.ReferenceTTL},
		{NamespaceSauces, cfg.ReferenceTTL},
		{NamespaceToppings, cfg.VolatileTTL},
		{NamespaceSpecialties, cfg.VolatileTTL},
		{NamespaceSettings, cfg.ReferenceTTL},
	}
	for _, ns := range namespaces {
		if err := store.CreateNamespace(ns.name, cache.Options{TTL: ns.ttl, MaxEntries: cfg.MaxEntries}); err != nil {
			return nil, fmt.Errorf("catalog: create namespace %s: %w", ns.name, err)
		}
	}
	return &CachedCatalog{
		store:    store,
		provider: provider,
		breaker:  resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("catalog-provider").WithLogger(logger),
		logger:   logger,
	}, nil
}

// Sizes returns the size list, cached.
func (c *CachedCatalog) Sizes(ctx context.Context) ([]Entry, error) {
	return c.cached(ctx, NamespaceSizes, c.provider.Sizes)
}

// Crusts returns the crust list, cached.
func (c *CachedCatalog) Crusts(ctx context.Context) ([]Entry, error) {
	return c.cached(ctx, NamespaceCrusts, c.provider.Crusts)
}

// Sauces returns the sauce list, cached.
func (c *CachedCatalog) Sauces(ctx context.Context) ([]Entry, error) {
	return c.cached(ctx, NamespaceSauces, c.provider.Sauces)
}

// Toppings returns the topping list, cached.
func (c *CachedCatalog) Toppings(ctx context.Context) ([]Entry, error) {
	return c.cached(ctx, NamespaceToppings, c.provider.Toppings)
}

// Specialties returns the specialty list, cached.
func (c *CachedCatalog) Specialties(ctx context.Context) ([]Entry, error) {
	return c.cached(ctx, NamespaceSpecialties, c.provider.Specialties)
}

// Snapshot assembles a full catalog snapshot from the cached lists.
func (c *CachedCatalog) Snapshot(ctx context.Context) (Snapshot, error) {
	sizes, err := c.Sizes(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	crusts, err := c.Crusts(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	sauces, err := c.Sauces(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	toppings, err := c.Toppings(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	specialties, err := c.Specialties(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(sizes, crusts, sauces, toppings, specialties), nil
}

// Warmup populates every catalog namespace once, called eagerly at process
// start so the first request does not pay provider latency.
func (c *CachedCatalog) Warmup(ctx context.Context) error {
	start := time.Now()
	if _, err := c.Snapshot(ctx); err != nil {
		return fmt.Errorf("catalog: warmup: %w", err)
	}
	c.logger.Info().Dur("elapsed", time.Since(start)).Msg("catalog_warmup")
	return nil
}

// Invalidate drops every cached catalog list, forcing the next read through
// to the provider.
func (c *CachedCatalog) Invalidate() error {
	for _, ns := range []string{NamespaceSizes, NamespaceCrusts, NamespaceSauces, NamespaceToppings, NamespaceSpecialties} {
		if err := c.store.Clear(ns); err != nil {
			return err
		}
	}
	return nil
}

// Stats reports cache statistics for one catalog namespace.
func (c *CachedCatalog) Stats(namespace string) (cache.Stats, error) {
	return c.store.Stats(namespace)
}

func (c *CachedCatalog) cached(ctx context.Context, namespace string, load func(context.Context) ([]Entry, error)) ([]Entry, error) {
	value, err := c.store.GetOrSet(ctx, namespace, listKey, func(ctx context.Context) (any, error) {
		var entries []Entry
		err := c.breaker.Do(ctx, func(ctx context.Context) error {
			var loadErr error
			entries, loadErr = load(ctx)
			return loadErr
		})
		if err != nil {
			return nil, fmt.Errorf("catalog: load %s: %w", namespace, err)
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]Entry), nil
}
