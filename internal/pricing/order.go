package pricing

import "github.com/shopspring/decimal"

// Aggregate sums breakdowns into an order total, applying the order-level
// discount and delivery fee. The clamp to zero happens exactly once, here —
// per-item totals are never clamped.
func Aggregate(breakdowns []Breakdown, discount, deliveryFee decimal.Decimal) OrderTotal {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, b := range breakdowns {
		subtotal = subtotal.Add(b.Subtotal)
		tax = tax.Add(b.Tax)
	}
	total := subtotal.Add(tax).Sub(discount).Add(deliveryFee)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return OrderTotal{
		Subtotal:    subtotal,
		Tax:         tax,
		Discount:    discount,
		DeliveryFee: deliveryFee,
		Total:       total,
	}
}
