// Package discount defines the boundary through which the engine receives a
// final discount amount for an order. Eligibility logic lives entirely on
// the other side of this boundary; the engine only consumes the amount.
package discount

import (
	"context"

	"github.com/shopspring/decimal"
)

// OrderContext carries the facts a provider may use to look up the discount
// already decided for an order.
type OrderContext struct {
	OrderID  string
	Subtotal decimal.Decimal
}

// Provider yields the discount amount for an order context.
type Provider interface {
	Discount(ctx context.Context, order OrderContext) (decimal.Decimal, error)
}

// None is the default provider: no discount.
type None struct{}

// Discount implements Provider.
func (None) Discount(context.Context, OrderContext) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// Fixed always returns the same amount, used by tests and simple deployments.
type Fixed struct {
	Amount decimal.Decimal
}

// Discount implements Provider.
func (f Fixed) Discount(context.Context, OrderContext) (decimal.Decimal, error) {
	return f.Amount, nil
}
