package pricing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ovenhouse/backend-pizzeria/internal/cache"
	"github.com/ovenhouse/backend-pizzeria/internal/catalog"
	"github.com/ovenhouse/backend-pizzeria/internal/common"
)

func d(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	dec, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return dec
}

func testSnapshot(t *testing.T) catalog.Snapshot {
	t.Helper()
	return catalog.NewSnapshot(
		[]catalog.Entry{{ID: "size-large", Name: "Large", Price: d(t, "12.99")}},
		[]catalog.Entry{{ID: "crust-thin", Name: "Thin", Price: decimal.Zero}},
		[]catalog.Entry{{ID: "sauce-marinara", Name: "Marinara", Price: decimal.Zero}},
		[]catalog.Entry{{ID: "top-pepperoni", Name: "Pepperoni", Price: d(t, "1.50")}},
		[]catalog.Entry{{ID: "spec-meat-lovers", Name: "Meat Lovers", Price: d(t, "18.99")}},
	)
}

func scenarioConfig() Configuration {
	return Configuration{
		SizeID:   "size-large",
		CrustID:  "crust-thin",
		SauceID:  "sauce-marinara",
		Toppings: []ToppingSelection{{ToppingID: "top-pepperoni", Quantity: 2}},
	}
}

func newCalculatorWithCache(t *testing.T) (*Calculator, *PriceCache) {
	t.Helper()
	store := cache.New()
	priceCache, err := NewPriceCache(store, 0)
	if err != nil {
		t.Fatalf("new price cache: %v", err)
	}
	return NewCalculator(priceCache, zerolog.Nop()), priceCache
}

func assertEqual(t *testing.T, label string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s = %s, want %s", label, got, want)
	}
}

func TestCalculateLargePepperoni(t *testing.T) {
	calc, _ := newCalculatorWithCache(t)
	breakdown, err := calc.Calculate(scenarioConfig(), testSnapshot(t), d(t, "0.0825"))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	assertEqual(t, "basePrice", breakdown.BasePrice, d(t, "12.99"))
	assertEqual(t, "crustPrice", breakdown.CrustPrice, decimal.Zero)
	assertEqual(t, "saucePrice", breakdown.SaucePrice, decimal.Zero)
	assertEqual(t, "toppingsPrice", breakdown.ToppingsPrice, d(t, "3.00"))
	assertEqual(t, "subtotal", breakdown.Subtotal, d(t, "15.99"))
	// 15.99 * 0.0825 = 1.319175, rounded half-up.
	assertEqual(t, "tax", breakdown.Tax, d(t, "1.32"))
	assertEqual(t, "total", breakdown.Total, d(t, "17.31"))
}

func TestCalculateSpecialtyOverridePrecedence(t *testing.T) {
	calc, _ := newCalculatorWithCache(t)
	cfg := scenarioConfig()
	cfg.SpecialtyOverrideID = "spec-meat-lovers"
	breakdown, err := calc.Calculate(cfg, testSnapshot(t), d(t, "0.0825"))
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	// The size's 12.99 is ignored entirely.
	assertEqual(t, "basePrice", breakdown.BasePrice, d(t, "18.99"))
	assertEqual(t, "subtotal", breakdown.Subtotal, d(t, "21.99"))
	assertEqual(t, "tax", breakdown.Tax, d(t, "1.81"))
	assertEqual(t, "total", breakdown.Total, d(t, "23.80"))
}

func TestCalculateMissingSpecialtyOverrideIsError(t *testing.T) {
	calc, priceCache := newCalculatorWithCache(t)
	cfg := scenarioConfig()
	cfg.SpecialtyOverrideID = "spec-nope"
	_, err := calc.Calculate(cfg, testSnapshot(t), d(t, "0.0825"))
	if err == nil {
		t.Fatal("expected ConfigurationError, silent fallback to size price is forbidden")
	}
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != common.CodeConfiguration {
		t.Fatalf("expected CONFIGURATION_ERROR, got %v", err)
	}
	if _, ok, _ := priceCache.Lookup(cfg); ok {
		t.Fatal("failed calculation must not be cached")
	}
}

func TestCalculateMissingToppingIsErrorAndNotCached(t *testing.T) {
	calc, priceCache := newCalculatorWithCache(t)
	cfg := scenarioConfig()
	cfg.Toppings = append(cfg.Toppings, ToppingSelection{ToppingID: "top-anchovy", Quantity: 1})
	_, err := calc.Calculate(cfg, testSnapshot(t), d(t, "0.0825"))
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != common.CodeConfiguration {
		t.Fatalf("expected CONFIGURATION_ERROR, got %v", err)
	}
	if _, ok, _ := priceCache.Lookup(cfg); ok {
		t.Fatal("failed calculation must not be cached")
	}
}

func TestCalculateMissingSizeIsError(t *testing.T) {
	calc, _ := newCalculatorWithCache(t)
	cfg := scenarioConfig()
	cfg.SizeID = "size-nope"
	_, err := calc.Calculate(cfg, testSnapshot(t), d(t, "0.0825"))
	if err == nil || err.Error() != "missing component: size" {
		t.Fatalf("expected missing size error, got %v", err)
	}
}

func TestCalculateRejectsInvalidConfigurations(t *testing.T) {
	calc, _ := newCalculatorWithCache(t)
	snap := testSnapshot(t)
	rate := d(t, "0.0825")

	cases := map[string]Configuration{
		"missing size": {CrustID: "crust-thin", SauceID: "sauce-marinara"},
		"zero quantity": {
			SizeID: "size-large", CrustID: "crust-thin", SauceID: "sauce-marinara",
			Toppings: []ToppingSelection{{ToppingID: "top-pepperoni", Quantity: 0}},
		},
		"duplicate toppings": {
			SizeID: "size-large", CrustID: "crust-thin", SauceID: "sauce-marinara",
			Toppings: []ToppingSelection{
				{ToppingID: "top-pepperoni", Quantity: 1},
				{ToppingID: "top-pepperoni", Quantity: 2},
			},
		},
	}
	for name, cfg := range cases {
		_, err := calc.Calculate(cfg, snap, rate)
		var appErr *common.AppError
		if !errors.As(err, &appErr) || appErr.Code != common.CodeValidation {
			t.Fatalf("%s: expected VALIDATION_ERROR, got %v", name, err)
		}
	}
}

func TestCalculateRejectsReservedFingerprintCharacters(t *testing.T) {
	calc, priceCache := newCalculatorWithCache(t)
	snap := testSnapshot(t)
	rate := d(t, "0.0825")

	// Toppings {a,b} and the single id "a:1,b" serialize to the same
	// fingerprint part "a:1,b:1"; without the reserved-character check the
	// second configuration would be served the first one's cached price.
	honest := scenarioConfig()
	honest.Toppings = []ToppingSelection{
		{ToppingID: "a", Quantity: 1},
		{ToppingID: "b", Quantity: 1},
	}
	forged := scenarioConfig()
	forged.Toppings = []ToppingSelection{{ToppingID: "a:1,b", Quantity: 1}}
	if Fingerprint(honest) != Fingerprint(forged) {
		t.Fatal("expected the two configurations to collide on one fingerprint")
	}

	_, err := calc.Calculate(forged, snap, rate)
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != common.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR for reserved characters, got %v", err)
	}
	if _, ok, _ := priceCache.Lookup(forged); ok {
		t.Fatal("rejected configuration must not be cached")
	}

	badSize := scenarioConfig()
	badSize.SizeID = "size|large"
	badCrust := scenarioConfig()
	badCrust.CrustID = "crust:thin"
	badSauce := scenarioConfig()
	badSauce.SauceID = "sauce,marinara"
	badOverride := scenarioConfig()
	badOverride.SpecialtyOverrideID = "spec,x"

	for name, cfg := range map[string]Configuration{
		"size with delimiter":    badSize,
		"crust with colon":       badCrust,
		"sauce with comma":       badSauce,
		"override with reserved": badOverride,
	} {
		_, err := calc.Calculate(cfg, snap, rate)
		if !errors.As(err, &appErr) || appErr.Code != common.CodeValidation {
			t.Fatalf("%s: expected VALIDATION_ERROR, got %v", name, err)
		}
	}
}

func TestCalculateCacheTransparency(t *testing.T) {
	calc, priceCache := newCalculatorWithCache(t)
	snap := testSnapshot(t)
	rate := d(t, "0.0825")

	first, err := calc.Calculate(scenarioConfig(), snap, rate)
	if err != nil {
		t.Fatalf("first calculate: %v", err)
	}
	statsBefore, _ := priceCache.Stats()
	second, err := calc.Calculate(scenarioConfig(), snap, rate)
	if err != nil {
		t.Fatalf("second calculate: %v", err)
	}
	statsAfter, _ := priceCache.Stats()

	if !first.Total.Equal(second.Total) || !first.Subtotal.Equal(second.Subtotal) || !first.Tax.Equal(second.Tax) {
		t.Fatalf("repeated calculation differs: %+v vs %+v", first, second)
	}
	if statsAfter.Hits != statsBefore.Hits+1 {
		t.Fatalf("second call not served from cache: hits %d -> %d", statsBefore.Hits, statsAfter.Hits)
	}
}

func TestCalculateNoDriftAcrossRepeats(t *testing.T) {
	// No cache: force a fresh computation each time.
	calc := NewCalculator(nil, zerolog.Nop())
	snap := testSnapshot(t)
	rate := d(t, "0.0825")

	want, err := calc.Calculate(scenarioConfig(), snap, rate)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	for i := 0; i < 100; i++ {
		got, err := calc.Calculate(scenarioConfig(), snap, rate)
		if err != nil {
			t.Fatalf("repeat %d: %v", i, err)
		}
		if !got.Total.Equal(want.Total) || !got.Tax.Equal(want.Tax) {
			t.Fatalf("repeat %d drifted: %+v vs %+v", i, got, want)
		}
	}
}

func TestInvalidateAllForcesRecompute(t *testing.T) {
	calc, priceCache := newCalculatorWithCache(t)
	snap := testSnapshot(t)
	rate := d(t, "0.0825")

	if _, err := calc.Calculate(scenarioConfig(), snap, rate); err != nil {
		t.Fatalf("calculate: %v", err)
	}
	removed, err := priceCache.InvalidateAll()
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 invalidated entry, got %d %v", removed, err)
	}
	if _, ok, _ := priceCache.Lookup(scenarioConfig()); ok {
		t.Fatal("entry served after invalidation")
	}
	// Price change takes effect on the next computation.
	repriced := catalog.NewSnapshot(
		[]catalog.Entry{{ID: "size-large", Name: "Large", Price: d(t, "13.99")}},
		[]catalog.Entry{{ID: "crust-thin", Name: "Thin", Price: decimal.Zero}},
		[]catalog.Entry{{ID: "sauce-marinara", Name: "Marinara", Price: decimal.Zero}},
		[]catalog.Entry{{ID: "top-pepperoni", Name: "Pepperoni", Price: d(t, "1.50")}},
		nil,
	)
	breakdown, err := calc.Calculate(scenarioConfig(), repriced, rate)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	assertEqual(t, "subtotal after reprice", breakdown.Subtotal, d(t, "16.99"))
}

func TestPriceCacheEvictionBound(t *testing.T) {
	store := cache.New()
	priceCache, err := NewPriceCache(store, 5)
	if err != nil {
		t.Fatalf("new price cache: %v", err)
	}
	configs := make([]Configuration, 6)
	for i := range configs {
		configs[i] = Configuration{SizeID: fmt.Sprintf("size-%d", i), CrustID: "c", SauceID: "x"}
		if err := priceCache.Store(configs[i], Breakdown{}); err != nil {
			t.Fatalf("store %d: %v", i, err)
		}
	}
	stats, _ := priceCache.Stats()
	if stats.Size != 5 {
		t.Fatalf("capacity bound violated, size=%d", stats.Size)
	}
	// configs[0] was the least recently accessed.
	if _, ok, _ := priceCache.Lookup(configs[0]); ok {
		t.Fatal("expected oldest fingerprint to be evicted")
	}
	if _, ok, _ := priceCache.Lookup(configs[5]); !ok {
		t.Fatal("most recent fingerprint missing")
	}
}

func TestCalculateBatchFailsFast(t *testing.T) {
	calc, _ := newCalculatorWithCache(t)
	snap := testSnapshot(t)
	rate := d(t, "0.0825")

	good := scenarioConfig()
	bad := scenarioConfig()
	bad.SizeID = "size-nope"

	breakdowns, err := calc.CalculateBatch([]Configuration{good, good}, snap, rate)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(breakdowns) != 2 {
		t.Fatalf("expected 2 breakdowns, got %d", len(breakdowns))
	}

	if _, err := calc.CalculateBatch([]Configuration{good, bad}, snap, rate); err == nil {
		t.Fatal("expected batch to fail on bad configuration")
	}
}
