package memcache

import (
	"cmp"
	"slices"
)

// Policy ranks the keys of a Cache for eviction.
// All methods are called with the cache lock held.
type Policy[K comparable] interface {
	// OnInsert registers a key that was not present before.
	OnInsert(key K)
	// OnUpdate is called when an existing key is overwritten.
	OnUpdate(key K)
	// OnAccess is called on every read hit.
	OnAccess(key K)
	// OnRemove forgets a key.
	OnRemove(key K)
	// Victims returns up to n keys, worst ranked first.
	Victims(n int) []K
	// Reset forgets every key.
	Reset()
}

// rank is the per key bookkeeping shared by the built-in policies.
// Keys with equal score are ordered by insertion, older first.
type rank struct {
	score    uint64
	inserted uint64
}

type ranks[K comparable] struct {
	keys map[K]*rank
	seq  uint64
}

func newRanks[K comparable]() ranks[K] {
	return ranks[K]{keys: make(map[K]*rank)}
}

func (r *ranks[K]) next() uint64 {
	r.seq++
	return r.seq
}

func (r *ranks[K]) insert(key K, score uint64, inserted uint64) {
	r.keys[key] = &rank{score: score, inserted: inserted}
}

func (r *ranks[K]) OnRemove(key K) {
	delete(r.keys, key)
}

func (r *ranks[K]) Reset() {
	r.keys = make(map[K]*rank)
}

func (r *ranks[K]) Victims(n int) []K {
	if n <= 0 || len(r.keys) == 0 {
		return nil
	}

	type ranked struct {
		key K
		rank
	}

	all := make([]ranked, 0, len(r.keys))
	for k, v := range r.keys {
		all = append(all, ranked{key: k, rank: *v})
	}

	slices.SortFunc(all, func(a, b ranked) int {
		if c := cmp.Compare(a.score, b.score); c != 0 {
			return c
		}
		return cmp.Compare(a.inserted, b.inserted)
	})

	n = min(n, len(all))
	out := make([]K, n)
	for i := range n {
		out[i] = all[i].key
	}

	return out
}

type fifo[K comparable] struct{ ranks[K] }

// NewFIFO returns a policy that evicts in insertion order.
// Overwriting a key keeps its original position.
func NewFIFO[K comparable]() Policy[K] {
	return &fifo[K]{newRanks[K]()}
}

func (p *fifo[K]) OnInsert(key K) {
	seq := p.next()
	p.insert(key, seq, seq)
}

func (p *fifo[K]) OnUpdate(K) {}
func (p *fifo[K]) OnAccess(K) {}

type lfu[K comparable] struct{ ranks[K] }

// NewLFU returns a policy that evicts the keys read the fewest times.
// Overwriting a key resets its counter.
func NewLFU[K comparable]() Policy[K] {
	return &lfu[K]{newRanks[K]()}
}

func (p *lfu[K]) OnInsert(key K) {
	p.insert(key, 0, p.next())
}

func (p *lfu[K]) OnUpdate(key K) {
	if r, ok := p.keys[key]; ok {
		r.score = 0
	}
}

func (p *lfu[K]) OnAccess(key K) {
	if r, ok := p.keys[key]; ok {
		r.score++
	}
}

type lru[K comparable] struct {
	ranks[K]
	clock uint64
}

// NewLRU returns a policy that evicts the keys with the oldest access stamp.
// Inserts, overwrites and reads all stamp the key.
func NewLRU[K comparable]() Policy[K] {
	return &lru[K]{ranks: newRanks[K]()}
}

func (p *lru[K]) tick() uint64 {
	p.clock++
	return p.clock
}

func (p *lru[K]) OnInsert(key K) {
	p.insert(key, p.tick(), p.next())
}

func (p *lru[K]) OnUpdate(key K) {
	p.OnAccess(key)
}

func (p *lru[K]) OnAccess(key K) {
	if r, ok := p.keys[key]; ok {
		r.score = p.tick()
	}
}
