package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisProvider reads catalog entry lists stored as JSON payloads in Redis.
// The catalog-management boundary owns writing them; Seed exists for tooling
// and tests.
type RedisProvider struct {
	client *redis.Client
	prefix string
}

// NewRedisProvider constructs a provider over client. An empty prefix
// defaults to "pizzeria:catalog".
func NewRedisProvider(client *redis.Client, prefix string) (*RedisProvider, error) {
	if client == nil {
		return nil, errors.New("catalog: redis client is required")
	}
	if prefix == "" {
		prefix = "pizzeria:catalog"
	}
	return &RedisProvider{client: client, prefix: prefix}, nil
}

func (p *RedisProvider) Sizes(ctx context.Context) ([]Entry, error) {
	return p.list(ctx, KindSize)
}

func (p *RedisProvider) Crusts(ctx context.Context) ([]Entry, error) {
	return p.list(ctx, KindCrust)
}

func (p *RedisProvider) Sauces(ctx context.Context) ([]Entry, error) {
	return p.list(ctx, KindSauce)
}

func (p *RedisProvider) Toppings(ctx context.Context) ([]Entry, error) {
	return p.list(ctx, KindTopping)
}

func (p *RedisProvider) Specialties(ctx context.Context) ([]Entry, error) {
	return p.list(ctx, KindSpecialty)
}

// Seed serialises entries as JSON and stores them under the kind's key,
// replacing any previous payload. No TTL: freshness is governed by the
// engine's namespace TTLs, not by Redis expiry.
func (p *RedisProvider) Seed(ctx context.Context, kind Kind, entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("catalog: encode %s entries: %w", kind, err)
	}
	return p.client.Set(ctx, p.key(kind), data, 0).Err()
}

func (p *RedisProvider) list(ctx context.Context, kind Kind) ([]Entry, error) {
	data, err := p.client.Get(ctx, p.key(kind)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("catalog: no %s entries seeded in redis", kind)
		}
		return nil, fmt.Errorf("catalog: redis get %s: %w", kind, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("catalog: decode %s entries: %w", kind, err)
	}
	return entries, nil
}

func (p *RedisProvider) key(kind Kind) string {
	return fmt.Sprintf("%s:%s", p.prefix, kind)
}
