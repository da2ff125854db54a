// Seeder loads the built-in development menu into the configured catalog
// backend (redis or postgres) so a fresh environment prices real entries.
// Idempotent: rerunning replaces the same ids with the same values.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ovenhouse/backend-pizzeria/internal/catalog"
	"github.com/ovenhouse/backend-pizzeria/internal/config"
	"github.com/ovenhouse/backend-pizzeria/internal/lock"
	"github.com/ovenhouse/backend-pizzeria/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch cfg.CatalogProvider {
	case config.ProviderRedis:
		err = seedRedis(ctx, cfg, logger)
	case config.ProviderPostgres:
		err = seedPostgres(ctx, cfg, logger)
	default:
		logger.Info().Msg("static catalog needs no seeding")
		return
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("seed_failed")
	}
	logger.Info().Str("provider", cfg.CatalogProvider).Msg("seed_complete")
}

func menuByKind() map[catalog.Kind][]catalog.Entry {
	menu := catalog.DefaultMenu()
	return map[catalog.Kind][]catalog.Entry{
		catalog.KindSize:      menu.SizeEntries,
		catalog.KindCrust:     menu.CrustEntries,
		catalog.KindSauce:     menu.SauceEntries,
		catalog.KindTopping:   menu.ToppingEntries,
		catalog.KindSpecialty: menu.SpecialtyEntries,
	}
}

func seedRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	defer func() { _ = client.Close() }()

	provider, err := catalog.NewRedisProvider(client, "")
	if err != nil {
		return err
	}

	// Serialize concurrent seeder runs across replicas.
	locker := lock.Locker{Client: client}
	return locker.WithLock(ctx, "pizzeria:catalog:seed", 30*time.Second, func(ctx context.Context) error {
		for kind, entries := range menuByKind() {
			if err := provider.Seed(ctx, kind, entries); err != nil {
				return err
			}
			logger.Info().Str("kind", string(kind)).Int("entries", len(entries)).Msg("seeded")
		}
		return nil
	})
}

const upsertEntryQuery = `
INSERT INTO catalog_entries (id, kind, name, price, active, sort_order)
VALUES ($1, $2, $3, $4, true, $5)
ON CONFLICT (id) DO UPDATE SET
	kind = EXCLUDED.kind,
	name = EXCLUDED.name,
	price = EXCLUDED.price,
	active = true,
	sort_order = EXCLUDED.sort_order`

func seedPostgres(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	for kind, entries := range menuByKind() {
		for i, entry := range entries {
			if _, err := pool.Exec(ctx, upsertEntryQuery, entry.ID, string(kind), entry.Name, entry.Price.String(), i); err != nil {
				return fmt.Errorf("upsert %s %s: %w", kind, entry.ID, err)
			}
		}
		logger.Info().Str("kind", string(kind)).Int("entries", len(entries)).Msg("seeded")
	}
	return nil
}
