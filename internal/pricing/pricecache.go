package pricing

import (
	"fmt"

	"github.com/ovenhouse/backend-pizzeria/internal/cache"
)

// Namespace holding fingerprint -> Breakdown entries. No TTL: staleness of
// the underlying catalog is bounded by the catalog namespaces, and price
// entries are dropped wholesale when catalog prices change.
const PriceNamespace = "prices"

// DefaultPriceCacheEntries bounds the price namespace when no override is
// configured.
const DefaultPriceCacheEntries = 1000

// PriceCache stores computed breakdowns keyed by configuration fingerprint,
// bounded by capacity with LRU eviction.
type PriceCache struct {
	store *cache.Store
}

// NewPriceCache registers the price namespace on store.
func NewPriceCache(store *cache.Store, maxEntries int) (*PriceCache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultPriceCacheEntries
	}
	if err := store.CreateNamespace(PriceNamespace, cache.Options{MaxEntries: maxEntries}); err != nil {
		return nil, fmt.Errorf("pricing: create price namespace: %w", err)
	}
	return &PriceCache{store: store}, nil
}

// Lookup returns the cached breakdown for a configuration, if present.
func (c *PriceCache) Lookup(cfg Configuration) (Breakdown, bool, error) {
	return c.lookupKey(Fingerprint(cfg))
}

func (c *PriceCache) lookupKey(fingerprint string) (Breakdown, bool, error) {
	value, ok, err := c.store.Get(PriceNamespace, fingerprint)
	if err != nil {
		return Breakdown{}, false, err
	}
	if !ok {
		return Breakdown{}, false, nil
	}
	return value.(Breakdown), true, nil
}

// Store writes a computed breakdown under its configuration fingerprint.
func (c *PriceCache) Store(cfg Configuration, breakdown Breakdown) error {
	return c.storeKey(Fingerprint(cfg), breakdown)
}

func (c *PriceCache) storeKey(fingerprint string, breakdown Breakdown) error {
	return c.store.Set(PriceNamespace, fingerprint, breakdown)
}

// InvalidateAll drops every cached breakdown. Called whenever any catalog
// price changes; coarse on purpose.
func (c *PriceCache) InvalidateAll() (int, error) {
	removed, err := c.store.Invalidate(PriceNamespace, "")
	if err != nil {
		return 0, err
	}
	invalidationsTotal.Inc()
	return removed, nil
}

// Stats reports the price namespace shape.
func (c *PriceCache) Stats() (cache.Stats, error) {
	return c.store.Stats(PriceNamespace)
}
