package cache

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/IvanBrykalov/kvcache/internal/util"
	"github.com/IvanBrykalov/kvcache/policy"
	"github.com/IvanBrykalov/kvcache/policy/lru"
)

// Cache is the capability every cache in this module provides.
type Cache[K comparable, V any] = policy.Cache[K, V]

// cache partitions the key space across independent policy instances.
// A key always maps to the same shard; there is no cross-shard coordination,
// so eviction is per shard and only approximates the global policy.
type cache[K comparable, V any] struct {
	shards []Cache[K, V]
	hash   func(K) uint64
	size   *sizeAggregator
}

// New constructs a sharded cache with the provided Options.
// It fails only when the policy factory rejects its configuration.
func New[K comparable, V any](opt Options[K, V]) (Cache[K, V], error) {
	if opt.Metrics == nil {
		opt.Metrics = policy.NoopMetrics{}
	}
	if opt.Logger == nil {
		opt.Logger = log.NewNopLogger()
	}
	if opt.Policy == nil {
		opt.Policy = lru.Factory[K, V]()
	}
	if opt.Hash == nil {
		opt.Hash = util.Hash[K]
	}

	n := opt.Shards
	if n <= 0 {
		n = util.DefaultShardCount()
	}

	perShard := 0
	shardLogger := opt.Logger
	if opt.Capacity > 0 {
		perShard = (opt.Capacity + n - 1) / n // ceil
	} else {
		level.Warn(opt.Logger).Log("msg", "non-positive capacity, cache will never store entries", "capacity", opt.Capacity)
		// Warn once here rather than once per shard.
		shardLogger = log.NewNopLogger()
	}

	agg := newSizeAggregator(opt.Metrics, n)
	shards := make([]Cache[K, V], n)
	for i := range shards {
		s, err := opt.Policy(perShard, policy.Options[K, V]{
			Metrics: agg.forShard(i),
			OnEvict: opt.OnEvict,
			Logger:  log.With(shardLogger, "shard", i),
		})
		if err != nil {
			return nil, policy.NewErrInvalidShards(i, err)
		}
		shards[i] = s
	}

	level.Debug(opt.Logger).Log("msg", "sharded cache constructed", "shards", n, "shard_capacity", perShard, "capacity", opt.Capacity)
	return &cache[K, V]{shards: shards, hash: opt.Hash, size: agg}, nil
}

// Put inserts or overwrites k→v in the shard owning k.
func (c *cache[K, V]) Put(k K, v V) { c.shard(k).Put(k, v) }

// Get returns the value for k and a presence flag.
func (c *cache[K, V]) Get(k K) (V, bool) { return c.shard(k).Get(k) }

// Value returns the value for k, or the zero value on a miss.
func (c *cache[K, V]) Value(k K) V { return c.shard(k).Value(k) }

// Remove deletes k if present and returns true on success.
func (c *cache[K, V]) Remove(k K) bool { return c.shard(k).Remove(k) }

// Len returns the total number of resident entries across all shards.
// Under concurrent writes the sum is not a consistent snapshot.
func (c *cache[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		total += s.Len()
	}
	return total
}

// Purge drops the entries of every shard, one shard at a time.
func (c *cache[K, V]) Purge() {
	for _, s := range c.shards {
		s.Purge()
	}
}

// shard picks the partition owning k.
func (c *cache[K, V]) shard(k K) Cache[K, V] {
	return c.shards[util.ShardIndex(c.hash(k), len(c.shards))]
}
