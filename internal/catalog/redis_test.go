package catalog

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newRedisProviderForTest(t *testing.T) *RedisProvider {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	provider, err := NewRedisProvider(client, "test:catalog")
	require.NoError(t, err)
	return provider
}

func TestRedisProviderRoundtrip(t *testing.T) {
	provider := newRedisProviderForTest(t)
	ctx := context.Background()

	seeded := []Entry{
		{ID: "size-large", Name: "Large", Price: decimal.RequireFromString("12.99")},
		{ID: "size-small", Name: "Small", Price: decimal.RequireFromString("8.99")},
	}
	require.NoError(t, provider.Seed(ctx, KindSize, seeded))

	entries, err := provider.Sizes(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "size-large", entries[0].ID)
	require.True(t, entries[0].Price.Equal(decimal.RequireFromString("12.99")))
}

func TestRedisProviderMissingKind(t *testing.T) {
	provider := newRedisProviderForTest(t)

	_, err := provider.Toppings(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no topping entries seeded")
}

func TestRedisProviderRejectsCorruptPayload(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	provider, err := NewRedisProvider(client, "test:catalog")
	require.NoError(t, err)

	require.NoError(t, mr.Set("test:catalog:sauce", "{not json"))
	_, err = provider.Sauces(context.Background())
	require.Error(t, err)
}
