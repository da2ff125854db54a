package pricing

import (
	"fmt"
	"sort"
	"strings"
)

// The fingerprint stays a literal structured string rather than a digest so
// cache keys can be debugged by inspection. The structural characters are
// reserved: ValidateConfiguration rejects any component id containing one,
// otherwise two distinct configurations could serialize to the same key and
// one would be served the other's cached price.
const (
	fingerprintDelimiter = "|"
	noOverrideSentinel   = "-"

	// ReservedIDChars are the characters that give the fingerprint its
	// structure and are therefore forbidden in component ids.
	ReservedIDChars = "|:,"
)

// Fingerprint derives the canonical cache key for a configuration. Two
// configurations with the same component ids and quantities produce the same
// fingerprint regardless of topping order.
func Fingerprint(cfg Configuration) string {
	toppings := make([]ToppingSelection, len(cfg.Toppings))
	copy(toppings, cfg.Toppings)
	sort.Slice(toppings, func(i, j int) bool {
		return toppings[i].ToppingID < toppings[j].ToppingID
	})

	parts := make([]string, 0, len(toppings))
	for _, t := range toppings {
		parts = append(parts, fmt.Sprintf("%s:%d", t.ToppingID, t.Quantity))
	}

	override := cfg.SpecialtyOverrideID
	if override == "" {
		override = noOverrideSentinel
	}

	return strings.Join([]string{
		cfg.SizeID,
		cfg.CrustID,
		cfg.SauceID,
		strings.Join(parts, ","),
		override,
	}, fingerprintDelimiter)
}
