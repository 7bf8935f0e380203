package memcache

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// Unlimited disables capacity based eviction.
const Unlimited = math.MaxInt

var (
	// ErrInvalidLimit indicates a non-positive cache limit
	ErrInvalidLimit = errors.New("cache limit must be at least 1")

	// ErrUnknownKind indicates an eviction kind the factory does not know about
	ErrUnknownKind = errors.New("unknown cache kind")
)

// Kind selects the eviction policy used by New.
type Kind int

const (
	// FIFO evicts the oldest inserted keys first.
	FIFO Kind = iota
	// LFU evicts the least frequently read keys first.
	LFU
	// LRU evicts the least recently read keys first.
	LRU
)

func (k Kind) String() string {
	switch k {
	case FIFO:
		return "fifo"
	case LFU:
		return "lfu"
	case LRU:
		return "lru"
	default:
		return "unknown"
	}
}

// Config configures a bounded cache.
type Config[K comparable] struct {
	// Limit is the maximum number of keys. Use Unlimited for no bound.
	Limit int

	// Metrics receives hit/miss/eviction/size notifications. Nil means NoopMetrics.
	Metrics Metrics

	// OnEvict is called for every key removed by the policy, outside the cache lock.
	OnEvict func(key K)
}

// Cache is a bounded key/value map whose eviction order is decided by a Policy.
// It is safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	items   map[K]V
	policy  Policy[K]
	limit   int
	metrics Metrics
	onEvict func(key K)
}

// New creates a cache using the policy selected by kind.
func New[K comparable, V any](kind Kind, cfg Config[K]) (*Cache[K, V], error) {
	var p Policy[K]

	switch kind {
	case FIFO:
		p = NewFIFO[K]()
	case LFU:
		p = NewLFU[K]()
	case LRU:
		p = NewLRU[K]()
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}

	return NewWithPolicy[K, V](p, cfg)
}

// NewWithPolicy creates a cache with a caller supplied eviction policy.
func NewWithPolicy[K comparable, V any](p Policy[K], cfg Config[K]) (*Cache[K, V], error) {
	if cfg.Limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, cfg.Limit)
	}

	if p == nil {
		return nil, errors.New("policy is required")
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	return &Cache[K, V]{
		items:   make(map[K]V),
		policy:  p,
		limit:   cfg.Limit,
		metrics: metrics,
		onEvict: cfg.OnEvict,
	}, nil
}

// Add inserts or overwrites key. Inserting a new key into a full cache first
// evicts as many keys as needed, worst ranked first.
func (c *Cache[K, V]) Add(key K, val V) {
	c.mu.Lock()

	if _, ok := c.items[key]; ok {
		c.items[key] = val
		c.policy.OnUpdate(key)
		c.mu.Unlock()
		return
	}

	var evicted []K
	if diff := len(c.items) + 1 - c.limit; diff > 0 {
		evicted = c.policy.Victims(diff)
		for _, k := range evicted {
			delete(c.items, k)
			c.policy.OnRemove(k)
		}
	}

	c.items[key] = val
	c.policy.OnInsert(key)
	size := len(c.items)
	c.mu.Unlock()

	if len(evicted) > 0 {
		c.metrics.Evict(len(evicted))
		if c.onEvict != nil {
			for _, k := range evicted {
				c.onEvict(k)
			}
		}
	}
	c.metrics.Size(size)
}

// Get returns the value for key. A hit counts as an access for the policy.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	val, ok := c.items[key]
	if ok {
		c.policy.OnAccess(key)
	}
	c.mu.Unlock()

	if ok {
		c.metrics.Hit()
	} else {
		c.metrics.Miss()
	}

	return val, ok
}

// Has reports whether key is present. Like Get, a hit counts as an access.
func (c *Cache[K, V]) Has(key K) bool {
	_, ok := c.Get(key)
	return ok
}

// Delete removes key if present.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	if _, ok := c.items[key]; ok {
		delete(c.items, key)
		c.policy.OnRemove(key)
	}
	size := len(c.items)
	c.mu.Unlock()

	c.metrics.Size(size)
}

// Clear removes every key.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.items = make(map[K]V)
	c.policy.Reset()
	c.mu.Unlock()

	c.metrics.Size(0)
}

// Len returns the number of keys in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// Limit returns the configured capacity.
func (c *Cache[K, V]) Limit() int {
	return c.limit
}

// Keys returns the keys in eviction order, the next victim first.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.policy.Victims(len(c.items))
}
