package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider supplies catalog entries from an external backing store. The
// engine calls it only on cache miss and once eagerly at warmup.
type Provider interface {
	Sizes(ctx context.Context) ([]Entry, error)
	Crusts(ctx context.Context) ([]Entry, error)
	Sauces(ctx context.Context) ([]Entry, error)
	Toppings(ctx context.Context) ([]Entry, error)
	Specialties(ctx context.Context) ([]Entry, error)
}

// StaticProvider serves fixed entry lists. Used as the development default
// and in tests.
type StaticProvider struct {
	SizeEntries      []Entry
	CrustEntries     []Entry
	SauceEntries     []Entry
	ToppingEntries   []Entry
	SpecialtyEntries []Entry
}

func (p StaticProvider) Sizes(context.Context) ([]Entry, error)    { return cloneEntries(p.SizeEntries), nil }
func (p StaticProvider) Crusts(context.Context) ([]Entry, error)   { return cloneEntries(p.CrustEntries), nil }
func (p StaticProvider) Sauces(context.Context) ([]Entry, error)   { return cloneEntries(p.SauceEntries), nil }
func (p StaticProvider) Toppings(context.Context) ([]Entry, error) { return cloneEntries(p.ToppingEntries), nil }
func (p StaticProvider) Specialties(context.Context) ([]Entry, error) {
	return cloneEntries(p.SpecialtyEntries), nil
}

// DefaultMenu returns the built-in development menu.
func DefaultMenu() StaticProvider {
	return StaticProvider{
		SizeEntries: []Entry{
			{ID: "size-small", Name: "Small", Price: decimal.RequireFromString("8.99")},
			{ID: "size-medium", Name: "Medium", Price: decimal.RequireFromString("10.99")},
			{ID: "size-large", Name: "Large", Price: decimal.RequireFromString("12.99")},
			{ID: "size-xl", Name: "Extra Large", Price: decimal.RequireFromString("14.99")},
		},
		CrustEntries: []Entry{
			{ID: "crust-thin", Name: "Thin", Price: decimal.Zero},
			{ID: "crust-hand-tossed", Name: "Hand Tossed", Price: decimal.Zero},
			{ID: "crust-stuffed", Name: "Stuffed", Price: decimal.RequireFromString("2.50")},
			{ID: "crust-gluten-free", Name: "Gluten Free", Price: decimal.RequireFromString("3.00")},
		},
		SauceEntries: []Entry{
			{ID: "sauce-marinara", Name: "Marinara", Price: decimal.Zero},
			{ID: "sauce-garlic", Name: "Garlic Parmesan", Price: decimal.RequireFromString("0.75")},
			{ID: "sauce-bbq", Name: "BBQ", Price: decimal.RequireFromString("0.50")},
		},
		ToppingEntries: []Entry{
			{ID: "top-pepperoni", Name: "Pepperoni", Price: decimal.RequireFromString("1.50")},
			{ID: "top-mushroom", Name: "Mushroom", Price: decimal.RequireFromString("1.00")},
			{ID: "top-sausage", Name: "Italian Sausage", Price: decimal.RequireFromString("1.75")},
			{ID: "top-onion", Name: "Red Onion", Price: decimal.RequireFromString("0.75")},
			{ID: "top-extra-cheese", Name: "Extra Cheese", Price: decimal.RequireFromString("1.25")},
		},
		SpecialtyEntries: []Entry{
			{ID: "spec-meat-lovers", Name: "Meat Lovers", Price: decimal.RequireFromString("18.99")},
			{ID: "spec-veggie", Name: "Garden Veggie", Price: decimal.RequireFromString("16.99")},
			{ID: "spec-supreme", Name: "Supreme", Price: decimal.RequireFromString("19.99")},
		},
	}
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
