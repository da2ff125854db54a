// Package pricing computes price breakdowns for pizza configurations and
// aggregates them into order totals. All monetary arithmetic uses
// shopspring/decimal; binary floating point is never used for money.
package pricing

import "github.com/shopspring/decimal"

// ToppingSelection pairs a topping id with a quantity of at least one.
type ToppingSelection struct {
	ToppingID string `json:"toppingId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// Configuration is the set of component choices that determine a price.
// Duplicate topping ids are rejected; callers must pre-merge quantities.
type Configuration struct {
	SizeID              string             `json:"sizeId" validate:"required"`
	CrustID             string             `json:"crustId" validate:"required"`
	SauceID             string             `json:"sauceId" validate:"required"`
	Toppings            []ToppingSelection `json:"toppings" validate:"unique=ToppingID,dive"`
	SpecialtyOverrideID string             `json:"specialtyOverrideId,omitempty"`
}

// Breakdown is the itemized price result for one configuration.
// Subtotal = BasePrice + CrustPrice + SaucePrice + ToppingsPrice and
// Total = Subtotal + Tax; per-item totals are never clamped. Discounts
// apply at the order level, not here.
type Breakdown struct {
	BasePrice     decimal.Decimal `json:"basePrice"`
	CrustPrice    decimal.Decimal `json:"crustPrice"`
	SaucePrice    decimal.Decimal `json:"saucePrice"`
	ToppingsPrice decimal.Decimal `json:"toppingsPrice"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
}

// OrderTotal aggregates breakdowns plus order-level adjustments. Cheap to
// recompute from already-cached breakdowns, so it is never cached itself.
type OrderTotal struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Discount    decimal.Decimal `json:"discount"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
}
