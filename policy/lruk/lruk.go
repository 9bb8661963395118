// Package lruk implements an admission-gated LRU (LRU-K).
//
// A key must be touched K times (Get or Put) before it is admitted into the
// bounded main LRU. Touch counts live in a separate, independently bounded
// history LRU, so one-off accesses never displace hot resident entries.
package lruk

import (
	"github.com/go-kit/log"

	"github.com/IvanBrykalov/kvcache/policy"
	"github.com/IvanBrykalov/kvcache/policy/lru"
)

// record is the history slot of a not-yet-admitted key. The most recent Put
// value is buffered so the key can be promoted on a later Get.
type record[V any] struct {
	count    int
	val      V
	buffered bool
}

// Cache composes a main LRU with a history LRU of touch records.
// Each sub-cache has its own lock; a call may take both in sequence
// (history, then main), so promotion is not atomic across them.
type Cache[K comparable, V any] struct {
	main    *lru.Cache[K, V]
	history *lru.Cache[K, record[V]]
	k       int
}

// New builds an LRU-K cache. capacity bounds the main cache, historyCapacity
// the number of keys whose touches are being counted, k is the admission
// threshold. k < 1, or k > 1 with historyCapacity < 1, is rejected.
func New[K comparable, V any](capacity, historyCapacity, k int, opt policy.Options[K, V]) (*Cache[K, V], error) {
	if k < 1 {
		return nil, policy.NewErrInvalidThreshold(k)
	}
	if k > 1 && historyCapacity < 1 {
		return nil, policy.NewErrInvalidHistoryCapacity(historyCapacity, k)
	}
	opt = opt.WithDefaults()

	hopt := policy.Options[K, record[V]]{Metrics: historyMetrics{opt.Metrics}}
	if historyCapacity > 0 {
		// k == 1 never needs the history; do not warn about its zero capacity.
		hopt.Logger = log.With(opt.Logger, "component", "history")
	}
	return &Cache[K, V]{
		main:    lru.New(capacity, opt),
		history: lru.New(historyCapacity, hopt),
		k:       k,
	}, nil
}

// Factory returns a policy.Factory building LRU-K instances.
// historyCapacity is per instance: size it per shard when sharding.
func Factory[K comparable, V any](historyCapacity, k int) policy.Factory[K, V] {
	return func(capacity int, opt policy.Options[K, V]) (policy.Cache[K, V], error) {
		c, err := New(capacity, historyCapacity, k, opt)
		if err != nil {
			return nil, err // avoid a typed-nil policy.Cache
		}
		return c, nil
	}
}

// Get counts a touch of key, promotes a buffered value once the threshold is
// reached, and returns the main cache's answer.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	rec := c.touch(key, nil)
	if rec.count >= c.k && rec.buffered {
		c.history.Remove(key)
		c.main.Put(key, rec.val)
	}
	return c.main.Get(key)
}

// Value returns the value for key, or the zero value on a miss.
func (c *Cache[K, V]) Value(key K) V {
	v, _ := c.Get(key)
	return v
}

// Put overwrites key in place when it is already admitted. Otherwise it counts
// a touch, buffers v in the history record and admits key into the main cache
// once the count reaches the threshold.
func (c *Cache[K, V]) Put(key K, v V) {
	if c.main.Replace(key, v) {
		return
	}
	rec := c.touch(key, &v)
	if rec.count >= c.k {
		c.history.Remove(key)
		c.main.Put(key, v)
	}
}

// Remove deletes key from both the main cache and the history.
func (c *Cache[K, V]) Remove(key K) bool {
	inMain := c.main.Remove(key)
	inHistory := c.history.Remove(key)
	return inMain || inHistory
}

// Len returns the number of admitted entries.
func (c *Cache[K, V]) Len() int { return c.main.Len() }

// Purge drops admitted entries and all touch history.
func (c *Cache[K, V]) Purge() {
	c.history.Purge()
	c.main.Purge()
}

// touch increments the history count of key, buffering *v when non-nil.
// With a zero-capacity history the returned record is not retained.
func (c *Cache[K, V]) touch(key K, v *V) record[V] {
	return c.history.Upsert(key, func(old record[V], _ bool) record[V] {
		old.count++
		if v != nil {
			old.val, old.buffered = *v, true
		}
		return old
	})
}

// historyMetrics forwards history evictions under their own reason and
// hides the history's hit/miss/size signals.
type historyMetrics struct{ m policy.Metrics }

func (historyMetrics) Hit()                      {}
func (historyMetrics) Miss()                     {}
func (h historyMetrics) Evict(policy.EvictReason) { h.m.Evict(policy.EvictHistory) }
func (historyMetrics) Size(int)                  {}
func (historyMetrics) Aging()                    {}

var _ policy.Cache[string, int] = (*Cache[string, int])(nil)
