package events

// Topic constants for domain events emitted by the pricing engine and its
// boundaries.
const (
	// TopicCatalogUpdated is emitted by the catalog-management boundary
	// whenever any catalog price changes.
	TopicCatalogUpdated = "catalog.updated"
	// TopicCatalogWarmed is emitted after the catalog namespaces were
	// populated at startup.
	TopicCatalogWarmed = "catalog.warmed"
	// TopicPricingInvalidated is emitted after the price cache was dropped.
	TopicPricingInvalidated = "pricing.invalidated"
)
