// Package catalog models the reference data the pricing engine resolves
// component ids against: sizes, crusts, sauces, toppings, and specialty
// pizzas. Entries are immutable snapshots supplied by an external provider;
// the engine never mutates them.
package catalog

import "github.com/shopspring/decimal"

// Kind identifies the catalog collection an entry belongs to.
type Kind string

const (
	KindSize      Kind = "size"
	KindCrust     Kind = "crust"
	KindSauce     Kind = "sauce"
	KindTopping   Kind = "topping"
	KindSpecialty Kind = "specialty"
)

// Entry is one catalog item. Price is an absolute base price for sizes and
// specialties, a signed modifier for crusts and sauces, and a per-unit price
// for toppings.
type Entry struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Snapshot is a point-in-time view of the whole catalog, indexed by id.
// The calculator resolves configurations against a snapshot so one
// calculation never observes a half-refreshed catalog.
type Snapshot struct {
	Sizes       map[string]Entry
	Crusts      map[string]Entry
	Sauces      map[string]Entry
	Toppings    map[string]Entry
	Specialties map[string]Entry
}

// NewSnapshot indexes the provided entry lists by id.
func NewSnapshot(sizes, crusts, sauces, toppings, specialties []Entry) Snapshot {
	return Snapshot{
		Sizes:       indexByID(sizes),
		Crusts:      indexByID(crusts),
		Sauces:      indexByID(sauces),
		Toppings:    indexByID(toppings),
		Specialties: indexByID(specialties),
	}
}

// Size resolves a size entry by id.
func (s Snapshot) Size(id string) (Entry, bool) {
	e, ok := s.Sizes[id]
	return e, ok
}

// Crust resolves a crust entry by id.
func (s Snapshot) Crust(id string) (Entry, bool) {
	e, ok := s.Crusts[id]
	return e, ok
}

// Sauce resolves a sauce entry by id.
func (s Snapshot) Sauce(id string) (Entry, bool) {
	e, ok := s.Sauces[id]
	return e, ok
}

// Topping resolves a topping entry by id.
func (s Snapshot) Topping(id string) (Entry, bool) {
	e, ok := s.Toppings[id]
	return e, ok
}

// Specialty resolves a specialty entry by id.
func (s Snapshot) Specialty(id string) (Entry, bool) {
	e, ok := s.Specialties[id]
	return e, ok
}

func indexByID(entries []Entry) map[string]Entry {
	indexed := make(map[string]Entry, len(entries))
	for _, e := range entries {
		indexed[e.ID] = e
	}
	return indexed
}
