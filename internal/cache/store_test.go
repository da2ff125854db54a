package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return New(WithClock(clock.Now)), clock
}

func TestCreateNamespaceValidation(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.CreateNamespace("", Options{MaxEntries: 1}); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions for empty name, got %v", err)
	}
	if err := store.CreateNamespace("a", Options{MaxEntries: 0}); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions for zero capacity, got %v", err)
	}
	if err := store.CreateNamespace("a", Options{MaxEntries: 1, TTL: -time.Second}); !errors.Is(err, ErrInvalidOptions) {
		t.Fatalf("expected ErrInvalidOptions for negative ttl, got %v", err)
	}
}

func TestCreateNamespaceIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	opts := Options{MaxEntries: 10, TTL: time.Minute}
	if err := store.CreateNamespace("sizes", opts); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreateNamespace("sizes", opts); err != nil {
		t.Fatalf("re-create with same options should be a no-op, got %v", err)
	}
	if err := store.CreateNamespace("sizes", Options{MaxEntries: 20, TTL: time.Minute}); !errors.Is(err, ErrNamespaceMismatch) {
		t.Fatalf("expected ErrNamespaceMismatch, got %v", err)
	}
}

func TestUnknownNamespaceFailsLoudly(t *testing.T) {
	store, _ := newTestStore(t)
	if _, _, err := store.Get("nope", "k"); !errors.Is(err, ErrNamespaceNotFound) {
		t.Fatalf("get: expected ErrNamespaceNotFound, got %v", err)
	}
	if err := store.Set("nope", "k", 1); !errors.Is(err, ErrNamespaceNotFound) {
		t.Fatalf("set: expected ErrNamespaceNotFound, got %v", err)
	}
	if _, err := store.Delete("nope", "k"); !errors.Is(err, ErrNamespaceNotFound) {
		t.Fatalf("delete: expected ErrNamespaceNotFound, got %v", err)
	}
	if _, err := store.Invalidate("nope", ""); !errors.Is(err, ErrNamespaceNotFound) {
		t.Fatalf("invalidate: expected ErrNamespaceNotFound, got %v", err)
	}
	if _, err := store.Stats("nope"); !errors.Is(err, ErrNamespaceNotFound) {
		t.Fatalf("stats: expected ErrNamespaceNotFound, got %v", err)
	}
}

func TestGetSetRoundtrip(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.CreateNamespace("ns", Options{MaxEntries: 4}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok, err := store.Get("ns", "missing"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
	if err := store.Set("ns", "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := store.Get("ns", "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if value.(string) != "v" {
		t.Fatalf("unexpected value %v", value)
	}
}

func TestTTLLazyExpiry(t *testing.T) {
	store, clock := newTestStore(t)
	if err := store.CreateNamespace("ns", Options{MaxEntries: 4, TTL: time.Minute}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Set("ns", "k", 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	clock.Advance(59 * time.Second)
	if _, ok, _ := store.Get("ns", "k"); !ok {
		t.Fatal("entry expired too early")
	}
	// The hit above must not have refreshed the deadline.
	clock.Advance(2 * time.Second)
	if _, ok, _ := store.Get("ns", "k"); ok {
		t.Fatal("entry served past its TTL")
	}
	stats, err := store.Stats("ns")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Size != 0 {
		t.Fatalf("expired entry not removed lazily, size=%d", stats.Size)
	}
}

func TestSetTTLOverride(t *testing.T) {
	store, clock := newTestStore(t)
	if err := store.CreateNamespace("ns", Options{MaxEntries: 4, TTL: time.Hour}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.SetWithTTL("ns", "short", 1, time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set("ns", "long", 2); err != nil {
		t.Fatalf("set: %v", err)
	}
	clock.Advance(2 * time.Second)
	if _, ok, _ := store.Get("ns", "short"); ok {
		t.Fatal("override ttl not honoured")
	}
	if _, ok, _ := store.Get("ns", "long"); !ok {
		t.Fatal("namespace ttl entry should still be live")
	}
}

func TestLRUEvictionBound(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.CreateNamespace("ns", Options{MaxEntries: 3}); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := store.Set("ns", fmt.Sprintf("k%d", i), i); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	// Touch k0 so k1 becomes least recently accessed.
	if _, ok, _ := store.Get("ns", "k0"); !ok {
		t.Fatal("expected hit on k0")
	}
	if err := store.Set("ns", "k3", 3); err != nil {
		t.Fatalf("set: %v", err)
	}
	stats, _ := store.Stats("ns")
	if stats.Size != 3 {
		t.Fatalf("capacity bound violated, size=%d", stats.Size)
	}
	if _, ok, _ := store.Get("ns", "k1"); ok {
		t.Fatal("least recently accessed entry survived eviction")
	}
	for _, key := range []string{"k0", "k2", "k3"} {
		if _, ok, _ := store.Get("ns", key); !ok {
			t.Fatalf("expected %s to survive", key)
		}
	}
}

func TestReplaceExistingKeyDoesNotEvict(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.CreateNamespace("ns", Options{MaxEntries: 2}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = store.Set("ns", "a", 1)
	_ = store.Set("ns", "b", 2)
	if err := store.Set("ns", "a", 3); err != nil {
		t.Fatalf("set: %v", err)
	}
	stats, _ := store.Stats("ns")
	if stats.Size != 2 {
		t.Fatalf("replace changed size, size=%d", stats.Size)
	}
	value, _, _ := store.Get("ns", "a")
	if value.(int) != 3 {
		t.Fatalf("replace did not take, got %v", value)
	}
}

func TestDelete(t *testing.T) {
	store, _ := newTestStore(t)
	_ = store.CreateNamespace("ns", Options{MaxEntries: 2})
	_ = store.Set("ns", "a", 1)
	removed, err := store.Delete("ns", "a")
	if err != nil || !removed {
		t.Fatalf("expected delete to report removal, got %v %v", removed, err)
	}
	removed, err = store.Delete("ns", "a")
	if err != nil || removed {
		t.Fatalf("expected second delete to report absence, got %v %v", removed, err)
	}
}

func TestInvalidateSubstring(t *testing.T) {
	store, _ := newTestStore(t)
	_ = store.CreateNamespace("ns", Options{MaxEntries: 10})
	_ = store.Set("ns", "product:1", 1)
	_ = store.Set("ns", "product:2", 2)
	_ = store.Set("ns", "brand:1", 3)
	removed, err := store.Invalidate("ns", "product:")
	if err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removals, got %d", removed)
	}
	if _, ok, _ := store.Get("ns", "brand:1"); !ok {
		t.Fatal("unrelated key removed")
	}
}

func TestInvalidateEmptyPatternClears(t *testing.T) {
	store, _ := newTestStore(t)
	_ = store.CreateNamespace("ns", Options{MaxEntries: 10})
	_ = store.Set("ns", "a", 1)
	_ = store.Set("ns", "b", 2)
	removed, err := store.Invalidate("ns", "")
	if err != nil || removed != 2 {
		t.Fatalf("expected full clear of 2, got %d %v", removed, err)
	}
	stats, _ := store.Stats("ns")
	if stats.Size != 0 {
		t.Fatalf("clear left %d entries", stats.Size)
	}
}

func TestGetOrSetSingleFactoryCall(t *testing.T) {
	store, _ := newTestStore(t)
	_ = store.CreateNamespace("ns", Options{MaxEntries: 10})

	var calls atomic.Int32
	factory := func(ctx context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return "value", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := store.GetOrSet(context.Background(), "ns", "k", factory)
			if err != nil {
				t.Errorf("getOrSet: %v", err)
				return
			}
			if value.(string) != "value" {
				t.Errorf("unexpected value %v", value)
			}
		}()
	}
	wg.Wait()
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single factory invocation, got %d", got)
	}
	// Subsequent call is a plain hit.
	if _, err := store.GetOrSet(context.Background(), "ns", "k", factory); err != nil {
		t.Fatalf("getOrSet after fill: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("factory re-invoked on hit, calls=%d", got)
	}
}

func TestGetOrSetFactoryErrorNotCached(t *testing.T) {
	store, _ := newTestStore(t)
	_ = store.CreateNamespace("ns", Options{MaxEntries: 10})

	boom := errors.New("provider down")
	calls := 0
	factory := func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return "ok", nil
	}
	if _, err := store.GetOrSet(context.Background(), "ns", "k", factory); !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
	value, err := store.GetOrSet(context.Background(), "ns", "k", factory)
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if value.(string) != "ok" {
		t.Fatalf("unexpected value %v", value)
	}
}

func TestStats(t *testing.T) {
	store, _ := newTestStore(t)
	_ = store.CreateNamespace("ns", Options{MaxEntries: 5, TTL: time.Minute})
	_ = store.Set("ns", "a", 1)
	_, _, _ = store.Get("ns", "a")
	_, _, _ = store.Get("ns", "b")
	stats, err := store.Stats("ns")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Size != 1 || stats.MaxEntries != 5 || stats.TTL != time.Minute {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("unexpected counters %+v", stats)
	}
}
