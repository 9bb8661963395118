// Package lru implements the Least-Recently-Used eviction policy.
package lru

import (
	"sync"

	"github.com/go-kit/log/level"

	"github.com/IvanBrykalov/kvcache/internal/list"
	"github.com/IvanBrykalov/kvcache/policy"
)

// Cache is a fixed-capacity recency cache. One mutex guards the index and the
// recency list: head is the least recently used entry, tail the most recent.
type Cache[K comparable, V any] struct {
	mu    sync.Mutex
	cap   int
	index map[K]list.Handle
	arena *list.Arena[K, V]
	order *list.List[K, V]

	opt policy.Options[K, V]
}

// New returns an LRU cache holding at most capacity entries.
// A non-positive capacity produces a cache that never stores anything.
func New[K comparable, V any](capacity int, opt policy.Options[K, V]) *Cache[K, V] {
	opt = opt.WithDefaults()
	if capacity <= 0 {
		level.Warn(opt.Logger).Log("msg", "non-positive capacity, cache will never store entries", "policy", "lru", "capacity", capacity)
		capacity = 0
	}
	a := list.NewArena[K, V](capacity + 2)
	return &Cache[K, V]{
		cap:   capacity,
		index: make(map[K]list.Handle, capacity),
		arena: a,
		order: list.New(a),
		opt:   opt,
	}
}

// Factory returns a policy.Factory building LRU instances.
func Factory[K comparable, V any]() policy.Factory[K, V] {
	return func(capacity int, opt policy.Options[K, V]) (policy.Cache[K, V], error) {
		return New(capacity, opt), nil
	}
}

// Put inserts or overwrites k→v and marks it most recently used.
// At capacity the least recently used entry is evicted first.
func (c *Cache[K, V]) Put(k K, v V) {
	if c.cap == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.index[k]; ok {
		c.arena.Entry(h).Value = v
		c.order.MoveToBack(h)
		return
	}
	c.insertLocked(k, v)
}

// Get returns the value for k and promotes it to most recently used.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.index[k]
	if !ok {
		c.opt.Metrics.Miss()
		var zero V
		return zero, false
	}
	c.order.MoveToBack(h)
	c.opt.Metrics.Hit()
	return c.arena.Entry(h).Value, true
}

// Value returns the value for k, or the zero value on a miss.
func (c *Cache[K, V]) Value(k K) V {
	v, _ := c.Get(k)
	return v
}

// Replace overwrites and promotes k only if it is already resident.
func (c *Cache[K, V]) Replace(k K, v V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.index[k]
	if !ok {
		return false
	}
	c.arena.Entry(h).Value = v
	c.order.MoveToBack(h)
	return true
}

// Upsert atomically replaces the value of k with fn(old, present) and marks
// it most recently used. It returns the stored value. Metrics see neither a
// hit nor a miss.
func (c *Cache[K, V]) Upsert(k K, fn func(old V, ok bool) V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.index[k]; ok {
		e := c.arena.Entry(h)
		e.Value = fn(e.Value, true)
		c.order.MoveToBack(h)
		return e.Value
	}
	var zero V
	v := fn(zero, false)
	if c.cap > 0 {
		c.insertLocked(k, v)
	}
	return v
}

// Remove deletes k. It is a no-op returning false when k is absent.
func (c *Cache[K, V]) Remove(k K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.index[k]
	if !ok {
		return false
	}
	c.dropLocked(h)
	c.opt.Metrics.Size(len(c.index))
	return true
}

// Len returns the number of resident entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Purge drops every entry.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.index)
	c.arena.Reset()
	c.order = list.New(c.arena)
	c.opt.Metrics.Size(0)
}

// Keys returns resident keys from least to most recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]K, 0, len(c.index))
	c.order.Walk(func(h list.Handle) bool {
		out = append(out, c.arena.Entry(h).Key)
		return true
	})
	return out
}

// -------------------- internals (mu held) --------------------

func (c *Cache[K, V]) insertLocked(k K, v V) {
	if len(c.index) >= c.cap {
		c.evictLocked()
	}
	h := c.arena.Alloc(k, v)
	c.order.Append(h)
	c.index[k] = h
	c.opt.Metrics.Size(len(c.index))
}

// evictLocked removes the least recently used entry.
func (c *Cache[K, V]) evictLocked() {
	h, ok := c.order.PeekFirst()
	if !ok {
		return
	}
	e := c.arena.Entry(h)
	k, v := e.Key, e.Value
	c.dropLocked(h)
	c.opt.Evicted(k, v, policy.EvictCapacity)
}

func (c *Cache[K, V]) dropLocked(h list.Handle) {
	c.order.Unlink(h)
	delete(c.index, c.arena.Entry(h).Key)
	c.arena.Release(h)
}

var _ policy.Cache[string, int] = (*Cache[string, int])(nil)
