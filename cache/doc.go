// Package cache provides a generic, hash-sharded in-memory cache with a
// pluggable per-shard eviction policy (LRU by default).
//
// Design
//
//   - Concurrency: the key space is split into shards, each an independent
//     policy instance with its own lock. The default shard count follows
//     GOMAXPROCS (clamped to 256). Power-of-two counts route with a mask.
//
//   - Capacity: Options.Capacity is split evenly (ceil) across shards, so the
//     cache may hold slightly more than Capacity in total and a hot shard may
//     evict while others have room.
//
//   - Policies: any policy.Factory works per shard: lru.Factory, lruk.Factory
//     (history sized per shard) or lfu.Factory.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Aging signals from every
//     shard; Size reports are summed across shards first.
//
// Basic usage
//
//	c, err := cache.New[string, []byte](cache.Options[string, []byte]{Capacity: 10_000})
//	if err != nil {
//	    return err
//	}
//	c.Put("a", []byte("1"))
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//	c.Remove("a")
//
// Using LFU shards
//
//	c, err := cache.New[string, string](cache.Options[string, string]{
//	    Capacity: 50_000,
//	    Shards:   16,
//	    Policy:   lfu.Factory[string, string](lfu.DefaultMaxAverageFreq),
//	})
//
// Exporting metrics
//
//	m := prom.New(nil, "kvcache", "demo", nil) // implements policy.Metrics
//	c, err := cache.New[string, []byte](cache.Options[string, []byte]{
//	    Capacity: 10_000,
//	    Metrics:  m,
//	})
package cache
