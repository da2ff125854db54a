package pricing

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ovenhouse/backend-pizzeria/internal/cache"
	"github.com/ovenhouse/backend-pizzeria/internal/catalog"
	"github.com/ovenhouse/backend-pizzeria/internal/events"
)

// Service wires the calculator, the price cache, and the cached catalog into
// the operations the rest of the application calls.
type Service struct {
	store      *cache.Store
	calculator *Calculator
	priceCache *PriceCache
	catalog    *catalog.CachedCatalog
	taxRate    decimal.Decimal
	bus        *events.Bus
	logger     zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store          *cache.Store
	Catalog        *catalog.CachedCatalog
	TaxRate        decimal.Decimal
	PriceCacheSize int
	Bus            *events.Bus
	Logger         zerolog.Logger
}

// NewService constructs a Service. When a bus is provided the service
// subscribes to catalog updates and drops cached prices on every change.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("pricing: cache store is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("pricing: catalog is required")
	}
	if cfg.TaxRate.IsNegative() {
		return nil, errors.New("pricing: tax rate must not be negative")
	}
	priceCache, err := NewPriceCache(cfg.Store, cfg.PriceCacheSize)
	if err != nil {
		return nil, err
	}
	svc := &Service{
		store:      cfg.Store,
		calculator: NewCalculator(priceCache, cfg.Logger),
		priceCache: priceCache,
		catalog:    cfg.Catalog,
		taxRate:    cfg.TaxRate,
		bus:        cfg.Bus,
		logger:     cfg.Logger,
	}
	if cfg.Bus != nil {
		cfg.Bus.Subscribe(events.TopicCatalogUpdated, events.NotifierFunc(svc.onCatalogUpdated))
	}
	return svc, nil
}

// CalculatePrice resolves the current catalog snapshot and computes the
// breakdown for one configuration.
func (s *Service) CalculatePrice(ctx context.Context, cfg Configuration) (Breakdown, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return Breakdown{}, err
	}
	return s.calculator.Calculate(cfg, snap, s.taxRate)
}

// CalculateBatch computes breakdowns for several configurations against one
// consistent snapshot.
func (s *Service) CalculateBatch(ctx context.Context, cfgs []Configuration) ([]Breakdown, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.calculator.CalculateBatch(cfgs, snap, s.taxRate)
}

// AggregateOrder sums breakdowns into an order total.
func (s *Service) AggregateOrder(breakdowns []Breakdown, discount, deliveryFee decimal.Decimal) OrderTotal {
	return Aggregate(breakdowns, discount, deliveryFee)
}

// InvalidatePricing drops every cached breakdown and reports how many were
// removed. Called by the catalog-management boundary on any price change.
func (s *Service) InvalidatePricing() (int, error) {
	removed, err := s.priceCache.InvalidateAll()
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int("removed", removed).Msg("price_cache_invalidated")
	return removed, nil
}

// Warmup populates the catalog namespaces once.
func (s *Service) Warmup(ctx context.Context) error {
	if err := s.catalog.Warmup(ctx); err != nil {
		return err
	}
	if s.bus != nil {
		if _, err := s.bus.Emit(ctx, events.TopicCatalogWarmed, nil); err != nil {
			s.logger.Warn().Err(err).Msg("emit catalog_warmed")
		}
	}
	return nil
}

// CacheStats reports statistics for any registered namespace.
func (s *Service) CacheStats(namespace string) (cache.Stats, error) {
	return s.store.Stats(namespace)
}

// TaxRate exposes the configured tax rate.
func (s *Service) TaxRate() decimal.Decimal {
	return s.taxRate
}

func (s *Service) onCatalogUpdated(ctx context.Context, _ events.Event) error {
	if err := s.catalog.Invalidate(); err != nil {
		return err
	}
	removed, err := s.InvalidatePricing()
	if err != nil {
		return err
	}
	if s.bus != nil {
		if _, err := s.bus.Emit(ctx, events.TopicPricingInvalidated, map[string]int{"removed": removed}); err != nil {
			s.logger.Warn().Err(err).Msg("emit pricing_invalidated")
		}
	}
	return nil
}
