// Package cache implements the namespaced in-memory store backing the
// catalog and price caches. Each namespace carries its own capacity and TTL
// policy; eviction is least-recently-used and expiry is checked lazily on
// access.
package cache

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrNamespaceNotFound indicates an operation against a namespace that was
	// never created. This is a programmer error and must fail loudly: a
	// mistyped namespace masking a real miss is a correctness bug.
	ErrNamespaceNotFound = errors.New("cache: namespace not found")

	// ErrInvalidOptions indicates CreateNamespace was called with an
	// unusable capacity or TTL.
	ErrInvalidOptions = errors.New("cache: invalid namespace options")

	// ErrNamespaceMismatch indicates CreateNamespace was re-invoked for an
	// existing namespace with a different configuration.
	ErrNamespaceMismatch = errors.New("cache: namespace already exists with different options")
)

// Options configures a namespace.
type Options struct {
	// TTL bounds entry staleness. Zero disables time-based expiry.
	TTL time.Duration
	// MaxEntries bounds the namespace size; must be positive.
	MaxEntries int
}

// Stats describes the current shape of a namespace.
type Stats struct {
	Size       int           `json:"size"`
	MaxEntries int           `json:"maxEntries"`
	TTL        time.Duration `json:"ttl"`
	Hits       uint64        `json:"hits"`
	Misses     uint64        `json:"misses"`
}

type entry struct {
	key            string
	value          any
	insertedAt     time.Time
	lastAccessedAt time.Time
	expiresAt      time.Time // zero means no expiry
}

type namespace struct {
	mu      sync.Mutex
	opts    Options
	entries map[string]*list.Element
	lru     *list.List // front is most recently accessed
	flight  singleflight.Group
	hits    uint64
	misses  uint64
}

// Store is a collection of isolated namespaces sharing one clock. One Store
// per process, constructed at startup and passed by reference to the
// components that need it.
type Store struct {
	mu         sync.RWMutex
	namespaces map[string]*namespace
	now        func() time.Time
}

// StoreOption customises Store construction.
type StoreOption func(*Store)

// WithClock overrides the time source, used by expiry tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs an empty Store.
func New(opts ...StoreOption) *Store {
	s := &Store{
		namespaces: make(map[string]*namespace),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateNamespace registers a namespace. Calling it again with identical
// options is a no-op; calling it with different options is rejected so a
// misconfigured second initialisation cannot silently change policy.
func (s *Store) CreateNamespace(name string, opts Options) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidOptions)
	}
	if opts.MaxEntries <= 0 {
		return fmt.Errorf("%w: maxEntries must be positive, got %d", ErrInvalidOptions, opts.MaxEntries)
	}
	if opts.TTL < 0 {
		return fmt.Errorf("%w: ttl must not be negative, got %s", ErrInvalidOptions, opts.TTL)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.namespaces[name]; ok {
		if existing.opts != opts {
			return fmt.Errorf("%w: %s", ErrNamespaceMismatch, name)
		}
		return nil
	}
	s.namespaces[name] = &namespace{
		opts:    opts,
		entries: make(map[string]*list.Element),
		lru:     list.New(),
	}
	return nil
}

func (s *Store) namespace(name string) (*namespace, error) {
	s.mu.RLock()
	ns, ok := s.namespaces[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNamespaceNotFound, name)
	}
	return ns, nil
}

// Get returns the value stored under key. A hit refreshes recency but never
// the expiry deadline; an entry past its deadline is removed and reported as
// a miss.
func (s *Store) Get(name, key string) (any, bool, error) {
	ns, err := s.namespace(name)
	if err != nil {
		return nil, false, err
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	value, ok := ns.get(s.now(), name, key)
	return value, ok, nil
}

// Set inserts or replaces the value under key using the namespace TTL.
func (s *Store) Set(name, key string, value any) error {
	return s.SetWithTTL(name, key, value, 0)
}

// SetWithTTL inserts or replaces the value under key. A positive ttl
// overrides the namespace default for this entry only.
func (s *Store) SetWithTTL(name, key string, value any, ttl time.Duration) error {
	ns, err := s.namespace(name)
	if err != nil {
		return err
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.set(s.now(), name, key, value, ttl)
	return nil
}

// Delete removes one key, reporting whether it was present.
func (s *Store) Delete(name, key string) (bool, error) {
	ns, err := s.namespace(name)
	if err != nil {
		return false, err
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	elem, ok := ns.entries[key]
	if !ok {
		return false, nil
	}
	ns.remove(elem)
	return true, nil
}

// Clear removes every entry in the namespace.
func (s *Store) Clear(name string) error {
	_, err := s.Invalidate(name, "")
	return err
}

// Invalidate removes every key containing pattern as a substring and returns
// the number of removed entries. An empty pattern clears the namespace. The
// scan is linear, which is acceptable for bounded namespaces.
func (s *Store) Invalidate(name, pattern string) (int, error) {
	ns, err := s.namespace(name)
	if err != nil {
		return 0, err
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	if pattern == "" {
		removed := len(ns.entries)
		ns.entries = make(map[string]*list.Element)
		ns.lru.Init()
		invalidationsTotal.WithLabelValues(name).Add(float64(removed))
		return removed, nil
	}
	removed := 0
	for key, elem := range ns.entries {
		if strings.Contains(key, pattern) {
			ns.remove(elem)
			removed++
		}
	}
	invalidationsTotal.WithLabelValues(name).Add(float64(removed))
	return removed, nil
}

// GetOrSet returns the cached value for key, invoking factory on a miss and
// storing its result with the namespace TTL. Concurrent callers for the same
// missing key converge on a single factory invocation.
func (s *Store) GetOrSet(ctx context.Context, name, key string, factory func(context.Context) (any, error)) (any, error) {
	return s.GetOrSetWithTTL(ctx, name, key, factory, 0)
}

// GetOrSetWithTTL behaves like GetOrSet with a per-entry TTL override.
func (s *Store) GetOrSetWithTTL(ctx context.Context, name, key string, factory func(context.Context) (any, error), ttl time.Duration) (any, error) {
	ns, err := s.namespace(name)
	if err != nil {
		return nil, err
	}
	ns.mu.Lock()
	if value, ok := ns.get(s.now(), name, key); ok {
		ns.mu.Unlock()
		return value, nil
	}
	ns.mu.Unlock()

	value, err, _ := ns.flight.Do(key, func() (any, error) {
		// Re-check under the flight so a racing winner's result is reused.
		ns.mu.Lock()
		if value, ok := ns.get(s.now(), name, key); ok {
			ns.mu.Unlock()
			return value, nil
		}
		ns.mu.Unlock()

		// The factory is owned by the caller and may block on I/O; it runs
		// outside the namespace lock.
		value, err := factory(ctx)
		if err != nil {
			return nil, err
		}
		ns.mu.Lock()
		ns.set(s.now(), name, key, value, ttl)
		ns.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Stats reports the namespace shape without side effects.
func (s *Store) Stats(name string) (Stats, error) {
	ns, err := s.namespace(name)
	if err != nil {
		return Stats{}, err
	}
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return Stats{
		Size:       len(ns.entries),
		MaxEntries: ns.opts.MaxEntries,
		TTL:        ns.opts.TTL,
		Hits:       ns.hits,
		Misses:     ns.misses,
	}, nil
}

// Namespaces lists registered namespace names.
func (s *Store) Namespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.namespaces))
	for name := range s.namespaces {
		names = append(names, name)
	}
	return names
}

// get must be called with ns.mu held.
func (ns *namespace) get(now time.Time, name, key string) (any, bool) {
	elem, ok := ns.entries[key]
	if !ok {
		ns.misses++
		missesTotal.WithLabelValues(name).Inc()
		return nil, false
	}
	ent := elem.Value.(*entry)
	if !ent.expiresAt.IsZero() && now.After(ent.expiresAt) {
		ns.remove(elem)
		ns.misses++
		expirationsTotal.WithLabelValues(name).Inc()
		missesTotal.WithLabelValues(name).Inc()
		return nil, false
	}
	ent.lastAccessedAt = now
	ns.lru.MoveToFront(elem)
	ns.hits++
	hitsTotal.WithLabelValues(name).Inc()
	return ent.value, true
}

// set must be called with ns.mu held.
func (ns *namespace) set(now time.Time, name, key string, value any, ttlOverride time.Duration) {
	ttl := ns.opts.TTL
	if ttlOverride > 0 {
		ttl = ttlOverride
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}
	if elem, ok := ns.entries[key]; ok {
		ent := elem.Value.(*entry)
		ent.value = value
		ent.insertedAt = now
		ent.lastAccessedAt = now
		ent.expiresAt = expiresAt
		ns.lru.MoveToFront(elem)
		return
	}
	if len(ns.entries) >= ns.opts.MaxEntries {
		if oldest := ns.lru.Back(); oldest != nil {
			ns.remove(oldest)
			evictionsTotal.WithLabelValues(name).Inc()
		}
	}
	ent := &entry{
		key:            key,
		value:          value,
		insertedAt:     now,
		lastAccessedAt: now,
		expiresAt:      expiresAt,
	}
	ns.entries[key] = ns.lru.PushFront(ent)
}

// remove must be called with ns.mu held.
func (ns *namespace) remove(elem *list.Element) {
	ent := elem.Value.(*entry)
	delete(ns.entries, ent.key)
	ns.lru.Remove(elem)
}
