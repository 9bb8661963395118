package cache

import (
	"github.com/go-kit/log"

	"github.com/IvanBrykalov/kvcache/policy"
)

// Options configures the sharded cache. Zero values are safe;
// defaults are applied in New():
//   - nil Policy   => LRU
//   - Shards <= 0  => GOMAXPROCS, clamped to [1..256]
//   - nil Hash     => xxhash of the key (strings, bytes, integers, Stringers)
//   - nil Metrics  => policy.NoopMetrics
//   - nil Logger   => no logging
type Options[K comparable, V any] struct {
	// Capacity is the total entry budget, split evenly (ceil) across shards.
	// Non-positive capacity yields a cache that never stores anything.
	Capacity int

	// Shards is the number of independent partitions. Any positive count is
	// accepted; powers of two route with a mask instead of a modulo.
	Shards int

	// Policy builds one eviction policy instance per shard.
	Policy policy.Factory[K, V]

	// Hash maps a key to the 64-bit value used for shard routing.
	// It must be deterministic for the lifetime of the cache.
	Hash func(K) uint64

	// Observability
	// OnEvict is called on eviction under the shard lock; keep callbacks lightweight.
	OnEvict func(k K, v V, reason policy.EvictReason)
	Metrics policy.Metrics
	Logger  log.Logger
}
