// Package lfu implements a Least-Frequently-Used cache with frequency aging.
//
// Every entry carries an access counter and sits in the bucket holding all
// entries of that exact frequency; inside a bucket entries are ordered oldest
// first. The victim is the oldest entry of the lowest non-empty frequency.
//
// When the average frequency (total / entries) exceeds MaxAverageFreq, every
// counter is lowered by MaxAverageFreq/2 (floored at 1). Without aging, keys
// that were hot long ago would accumulate counts no new key could reach.
package lfu

import (
	"slices"
	"sync"

	"github.com/go-kit/log/level"

	"github.com/IvanBrykalov/kvcache/internal/list"
	"github.com/IvanBrykalov/kvcache/policy"
)

// DefaultMaxAverageFreq is the aging ceiling used when none is configured.
const DefaultMaxAverageFreq = 10

// Cache is a fixed-capacity LFU cache guarded by one mutex.
type Cache[K comparable, V any] struct {
	mu     sync.Mutex
	cap    int
	maxAvg int

	index   map[K]list.Handle
	arena   *list.Arena[K, V]
	buckets map[int]*list.List[K, V] // present only while non-empty

	minFreq   int // smallest frequency with a bucket; 1 when empty
	totalFreq int

	scratch []list.Handle // reused by age

	opt policy.Options[K, V]
}

// New returns an LFU cache holding at most capacity entries.
// maxAverageFreq <= 0 selects DefaultMaxAverageFreq.
func New[K comparable, V any](capacity, maxAverageFreq int, opt policy.Options[K, V]) *Cache[K, V] {
	opt = opt.WithDefaults()
	if capacity <= 0 {
		level.Warn(opt.Logger).Log("msg", "non-positive capacity, cache will never store entries", "policy", "lfu", "capacity", capacity)
		capacity = 0
	}
	if maxAverageFreq <= 0 {
		maxAverageFreq = DefaultMaxAverageFreq
	}
	return &Cache[K, V]{
		cap:     capacity,
		maxAvg:  maxAverageFreq,
		index:   make(map[K]list.Handle, capacity),
		arena:   list.NewArena[K, V](capacity + 8),
		buckets: make(map[int]*list.List[K, V]),
		minFreq: 1,
		opt:     opt,
	}
}

// Factory returns a policy.Factory building LFU instances.
func Factory[K comparable, V any](maxAverageFreq int) policy.Factory[K, V] {
	return func(capacity int, opt policy.Options[K, V]) (policy.Cache[K, V], error) {
		return New(capacity, maxAverageFreq, opt), nil
	}
}

// Put inserts k→v with frequency 1, or overwrites and bumps an existing entry.
// At capacity the oldest entry of the lowest frequency is evicted first.
func (c *Cache[K, V]) Put(k K, v V) {
	if c.cap == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.index[k]; ok {
		c.arena.Entry(h).Value = v
		c.bumpLocked(h)
		return
	}
	if len(c.index) >= c.cap {
		c.evictLocked()
	}
	h := c.arena.Alloc(k, v)
	c.bucketLocked(1).Append(h)
	c.index[k] = h
	c.minFreq = 1
	c.addFreqLocked()
	c.opt.Metrics.Size(len(c.index))
}

// Get returns the value for k and bumps its frequency.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.index[k]
	if !ok {
		c.opt.Metrics.Miss()
		var zero V
		return zero, false
	}
	c.bumpLocked(h)
	c.opt.Metrics.Hit()
	return c.arena.Entry(h).Value, true
}

// Value returns the value for k, or the zero value on a miss.
func (c *Cache[K, V]) Value(k K) V {
	v, _ := c.Get(k)
	return v
}

// Remove deletes k and reports whether it was present.
func (c *Cache[K, V]) Remove(k K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.index[k]
	if !ok {
		return false
	}
	freq := c.arena.Entry(h).Freq
	c.dropLocked(h)
	if _, still := c.buckets[freq]; !still && freq == c.minFreq {
		c.minFreq = c.lowestFreqLocked()
	}
	c.opt.Metrics.Size(len(c.index))
	return true
}

// Len returns the number of resident entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Purge drops every entry and resets the frequency counters.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.index)
	clear(c.buckets)
	c.arena.Reset()
	c.minFreq, c.totalFreq = 1, 0
	c.opt.Metrics.Size(0)
}

// Frequency returns the access counter of k without bumping it.
func (c *Cache[K, V]) Frequency(k K) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.index[k]
	if !ok {
		return 0, false
	}
	return c.arena.Entry(h).Freq, true
}

// -------------------- internals (mu held) --------------------

// bucketLocked returns the bucket for freq, creating it when absent.
// Creating a bucket allocates arena slots: re-fetch Entry pointers afterwards.
func (c *Cache[K, V]) bucketLocked(freq int) *list.List[K, V] {
	b, ok := c.buckets[freq]
	if !ok {
		b = list.New(c.arena)
		c.buckets[freq] = b
	}
	return b
}

// unbucketLocked unlinks h from its frequency bucket and frees the bucket
// once empty. It reports whether the bucket was freed.
func (c *Cache[K, V]) unbucketLocked(h list.Handle, freq int) bool {
	b := c.buckets[freq]
	b.Unlink(h)
	if !b.IsEmpty() {
		return false
	}
	b.Release()
	delete(c.buckets, freq)
	return true
}

// bumpLocked moves h one frequency up and accounts the access.
func (c *Cache[K, V]) bumpLocked(h list.Handle) {
	old := c.arena.Entry(h).Freq
	if c.unbucketLocked(h, old) && old == c.minFreq {
		c.minFreq = old + 1
	}
	c.arena.Entry(h).Freq = old + 1
	c.bucketLocked(old + 1).Append(h)
	c.addFreqLocked()
}

// addFreqLocked accounts one access and ages counters when the average
// frequency exceeds the ceiling.
func (c *Cache[K, V]) addFreqLocked() {
	c.totalFreq++
	if n := len(c.index); n > 0 && c.totalFreq/n > c.maxAvg {
		c.ageLocked()
	}
}

// evictLocked removes the oldest entry of the lowest frequency.
func (c *Cache[K, V]) evictLocked() {
	b, ok := c.buckets[c.minFreq]
	if !ok {
		// minFreq must always name a live bucket while entries exist.
		panic("lfu: no bucket at minimum frequency")
	}
	h, _ := b.PeekFirst()
	e := c.arena.Entry(h)
	k, v := e.Key, e.Value
	c.dropLocked(h)
	c.opt.Evicted(k, v, policy.EvictCapacity)
}

// dropLocked unlinks h, erases it from the index and frees its slot.
func (c *Cache[K, V]) dropLocked(h list.Handle) {
	e := c.arena.Entry(h)
	k, freq := e.Key, e.Freq
	c.unbucketLocked(h, freq)
	delete(c.index, k)
	c.totalFreq -= freq
	c.arena.Release(h)
}

// ageLocked lowers every counter by maxAvg/2 (at least 1, floored at 1),
// keeping entries of equal old frequency in their relative order.
func (c *Cache[K, V]) ageLocked() {
	decay := max(c.maxAvg/2, 1)

	freqs := make([]int, 0, len(c.buckets))
	for f := range c.buckets {
		freqs = append(freqs, f)
	}
	slices.Sort(freqs)

	order := c.scratch[:0]
	for _, f := range freqs {
		c.buckets[f].Walk(func(h list.Handle) bool {
			order = append(order, h)
			return true
		})
	}

	total := 0
	for _, h := range order {
		old := c.arena.Entry(h).Freq
		nf := max(old-decay, 1)
		total += nf
		if nf == old {
			continue
		}
		c.unbucketLocked(h, old)
		c.arena.Entry(h).Freq = nf
		c.bucketLocked(nf).Append(h)
	}
	clear(order)
	c.scratch = order[:0]

	c.totalFreq = total
	c.minFreq = c.lowestFreqLocked()
	c.opt.Metrics.Aging()
	level.Debug(c.opt.Logger).Log("msg", "lfu frequency aging", "entries", len(c.index), "decay", decay, "min_freq", c.minFreq, "total_freq", total)
}

// lowestFreqLocked scans the buckets for the smallest frequency; 1 when empty.
func (c *Cache[K, V]) lowestFreqLocked() int {
	lowest := 0
	for f := range c.buckets {
		if lowest == 0 || f < lowest {
			lowest = f
		}
	}
	if lowest == 0 {
		return 1
	}
	return lowest
}

var _ policy.Cache[string, int] = (*Cache[string, int])(nil)
