package pricing

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ovenhouse/backend-pizzeria/internal/catalog"
	"github.com/ovenhouse/backend-pizzeria/internal/common"
)

// Calculator resolves a configuration against a catalog snapshot and
// produces a price breakdown, consulting the price cache as a write-through
// layer. Pure over its inputs aside from the cache.
type Calculator struct {
	cache  *PriceCache
	logger zerolog.Logger
}

// NewCalculator constructs a calculator. cache may be nil, in which case
// every call computes from scratch.
func NewCalculator(cache *PriceCache, logger zerolog.Logger) *Calculator {
	return &Calculator{cache: cache, logger: logger}
}

// Calculate computes the breakdown for one configuration.
//
// A component id that does not resolve is a ConfigurationError: fatal for
// this calculation, never retried, and nothing is written to the price
// cache. In particular, a specialty override that is named but absent is an
// error — the historical fallback to the size's base price produced wrong
// prices in production and is deliberately not reproduced.
func (c *Calculator) Calculate(cfg Configuration, snap catalog.Snapshot, taxRate decimal.Decimal) (Breakdown, error) {
	if err := ValidateConfiguration(cfg); err != nil {
		calculationsTotal.WithLabelValues(resultError).Inc()
		return Breakdown{}, err
	}

	fingerprint := Fingerprint(cfg)
	if c.cache != nil {
		cached, ok, err := c.cache.lookupKey(fingerprint)
		if err != nil {
			calculationsTotal.WithLabelValues(resultError).Inc()
			return Breakdown{}, err
		}
		if ok {
			calculationsTotal.WithLabelValues(resultCacheHit).Inc()
			return cached, nil
		}
	}

	start := time.Now()
	breakdown, err := compute(cfg, snap, taxRate)
	if err != nil {
		calculationsTotal.WithLabelValues(resultError).Inc()
		return Breakdown{}, err
	}
	calculationDuration.Observe(float64(time.Since(start)) / float64(time.Millisecond))
	calculationsTotal.WithLabelValues(resultComputed).Inc()

	if c.cache != nil {
		if err := c.cache.storeKey(fingerprint, breakdown); err != nil {
			return Breakdown{}, err
		}
	}
	c.logger.Debug().Str("fingerprint", fingerprint).Str("total", breakdown.Total.String()).Msg("price_computed")
	return breakdown, nil
}

// CalculateBatch computes breakdowns for several configurations against one
// snapshot. The first failing configuration aborts the batch; partial
// results are not returned.
func (c *Calculator) CalculateBatch(cfgs []Configuration, snap catalog.Snapshot, taxRate decimal.Decimal) ([]Breakdown, error) {
	breakdowns := make([]Breakdown, 0, len(cfgs))
	for i, cfg := range cfgs {
		breakdown, err := c.Calculate(cfg, snap, taxRate)
		if err != nil {
			return nil, fmt.Errorf("configuration %d: %w", i, err)
		}
		breakdowns = append(breakdowns, breakdown)
	}
	return breakdowns, nil
}

func compute(cfg Configuration, snap catalog.Snapshot, taxRate decimal.Decimal) (Breakdown, error) {
	size, ok := snap.Size(cfg.SizeID)
	if !ok {
		return Breakdown{}, common.NewConfigurationError("missing component: size")
	}
	crust, ok := snap.Crust(cfg.CrustID)
	if !ok {
		return Breakdown{}, common.NewConfigurationError("missing component: crust")
	}
	sauce, ok := snap.Sauce(cfg.SauceID)
	if !ok {
		return Breakdown{}, common.NewConfigurationError("missing component: sauce")
	}

	basePrice := size.Price
	if cfg.SpecialtyOverrideID != "" {
		specialty, ok := snap.Specialty(cfg.SpecialtyOverrideID)
		if !ok {
			return Breakdown{}, common.NewConfigurationError("missing component: specialty override")
		}
		basePrice = specialty.Price
	}

	toppingsPrice := decimal.Zero
	for _, t := range cfg.Toppings {
		topping, ok := snap.Topping(t.ToppingID)
		if !ok {
			return Breakdown{}, common.NewConfigurationError("missing component: topping")
		}
		toppingsPrice = toppingsPrice.Add(topping.Price.Mul(decimal.NewFromInt(int64(t.Quantity))))
	}

	subtotal := basePrice.Add(crust.Price).Add(sauce.Price).Add(toppingsPrice)
	// Half-up rounding to the smallest currency unit.
	tax := subtotal.Mul(taxRate).Round(2)
	total := subtotal.Add(tax)

	return Breakdown{
		BasePrice:     basePrice,
		CrustPrice:    crust.Price,
		SaucePrice:    sauce.Price,
		ToppingsPrice: toppingsPrice,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         total,
	}, nil
}
