package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ovenhouse/backend-pizzeria/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"CATALOG_PROVIDER": "", "TAX_RATE": "", "PORT": "", "APP_ENV": "",
		"PRICE_CACHE_MAX_ENTRIES": "", "RECOMPUTE_DEBOUNCE": "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, config.ProviderStatic, cfg.CatalogProvider)
	require.Equal(t, "0.0825", cfg.TaxRate.String())
	require.Equal(t, 1000, cfg.PriceCacheMaxEntries)
	require.Equal(t, 150*time.Millisecond, cfg.RecomputeDebounce)
	require.Equal(t, time.Hour, cfg.CatalogReferenceTTL)
	require.Equal(t, 25*time.Minute, cfg.CatalogVolatileTTL)
}

func TestLoadRedisProviderRequiresURL(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"CATALOG_PROVIDER": "redis",
		"REDIS_URL":        "",
	})
	require.Error(t, err)

	cfg, err := config.LoadForTests(map[string]string{
		"CATALOG_PROVIDER": "redis",
		"REDIS_URL":        "redis://localhost:6379/0",
	})
	require.NoError(t, err)
	require.Equal(t, config.ProviderRedis, cfg.CatalogProvider)
}

func TestLoadPostgresProviderRequiresURL(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"CATALOG_PROVIDER": "postgres",
		"DATABASE_URL":     "",
	})
	require.Error(t, err)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{"CATALOG_PROVIDER": "etcd"})
	require.Error(t, err)
}

func TestLoadRejectsNegativeTaxRate(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"CATALOG_PROVIDER": "static",
		"TAX_RATE":         "-0.05",
	})
	require.Error(t, err)
}

func TestLoadParsesOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"CATALOG_PROVIDER":        "static",
		"TAX_RATE":                "0.10",
		"PRICE_CACHE_MAX_ENTRIES": "250",
		"CATALOG_REFERENCE_TTL":   "30m",
		"RECOMPUTE_DEBOUNCE":      "80ms",
		"CORS_ALLOWED_ORIGINS":    "https://a.example, https://b.example",
		"RATE_LIMIT_PER_MINUTE":   "120",
	})
	require.NoError(t, err)
	require.Equal(t, "0.1", cfg.TaxRate.String())
	require.Equal(t, 250, cfg.PriceCacheMaxEntries)
	require.Equal(t, 30*time.Minute, cfg.CatalogReferenceTTL)
	require.Equal(t, 80*time.Millisecond, cfg.RecomputeDebounce)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 120, cfg.RateLimitPerMinute)
}
