package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresProvider reads catalog entries from a catalog_entries table owned
// by the catalog-management application.
type PostgresProvider struct {
	pool *pgxpool.Pool
}

// NewPostgresProvider constructs a provider over pool.
func NewPostgresProvider(pool *pgxpool.Pool) (*PostgresProvider, error) {
	if pool == nil {
		return nil, errors.New("catalog: pgx pool is required")
	}
	return &PostgresProvider{pool: pool}, nil
}

func (p *PostgresProvider) Sizes(ctx context.Context) ([]Entry, error) {
	return p.list(ctx, KindSize)
}

func (p *PostgresProvider) Crusts(ctx context.Context) ([]Entry, error) {
	return p.list(ctx, KindCrust)
}

func (p *PostgresProvider) Sauces(ctx context.Context) ([]Entry, error) {
	return p.list(ctx, KindSauce)
}

func (p *PostgresProvider) Toppings(ctx context.Context) ([]Entry, error) {
	return p.list(ctx, KindTopping)
}

func (p *PostgresProvider) Specialties(ctx context.Context) ([]Entry, error) {
	return p.list(ctx, KindSpecialty)
}

const listEntriesQuery = `
SELECT id, name, price::text
FROM catalog_entries
WHERE kind = $1 AND active
ORDER BY sort_order, name`

func (p *PostgresProvider) list(ctx context.Context, kind Kind) ([]Entry, error) {
	rows, err := p.pool.Query(ctx, listEntriesQuery, string(kind))
	if err != nil {
		return nil, fmt.Errorf("catalog: query %s entries: %w", kind, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry Entry
			price string
		)
		if err := rows.Scan(&entry.ID, &entry.Name, &price); err != nil {
			return nil, fmt.Errorf("catalog: scan %s entry: %w", kind, err)
		}
		entry.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("catalog: parse %s price %q: %w", kind, price, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate %s entries: %w", kind, err)
	}
	return entries, nil
}
