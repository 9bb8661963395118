package main

import (
	"context"
	"math/rand"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/agilira/go-errors"
	"github.com/go-kit/log"
	"golang.org/x/sync/errgroup"

	"github.com/IvanBrykalov/kvcache/cache"
	"github.com/IvanBrykalov/kvcache/policy"
	"github.com/IvanBrykalov/kvcache/policy/lfu"
	"github.com/IvanBrykalov/kvcache/policy/lru"
	"github.com/IvanBrykalov/kvcache/policy/lruk"
)

const errCodeUnknownPolicy errors.ErrorCode = "KVCACHE_BENCH_UNKNOWN_POLICY"

type cacheConfig struct {
	capacity int
	shards   int // 0 = one unsharded instance
	k        int
	history  int // LRU-K history capacity; 0 = 2*capacity
	maxAvg   int
}

// factory returns the per-instance policy factory for name. When sharded,
// the LRU-K history is split across shards like the capacity.
func factory(name string, cfg cacheConfig) (policy.Factory[int, string], error) {
	switch name {
	case "lru":
		return lru.Factory[int, string](), nil
	case "lruk":
		hist := cfg.history
		if hist <= 0 {
			hist = 2 * cfg.capacity
		}
		if cfg.shards > 0 {
			hist = (hist + cfg.shards - 1) / cfg.shards
		}
		return lruk.Factory[int, string](hist, cfg.k), nil
	case "lfu":
		return lfu.Factory[int, string](cfg.maxAvg), nil
	default:
		return nil, errors.NewWithContext(errCodeUnknownPolicy, "unknown policy", map[string]interface{}{
			"policy":    name,
			"supported": "lru, lruk, lfu",
		})
	}
}

// newCache builds either a single policy instance or a sharded cache of them.
func newCache(name string, cfg cacheConfig, m policy.Metrics, logger log.Logger) (policy.Cache[int, string], error) {
	f, err := factory(name, cfg)
	if err != nil {
		return nil, err
	}
	logger = log.With(logger, "policy", name)
	if cfg.shards > 0 {
		return cache.New(cache.Options[int, string]{
			Capacity: cfg.capacity,
			Shards:   cfg.shards,
			Policy:   f,
			Metrics:  m,
			Logger:   logger,
		})
	}
	return f(cfg.capacity, policy.Options[int, string]{Metrics: m, Logger: logger})
}

type result struct {
	policy   string
	workload string
	gets     uint64
	hits     uint64
	elapsed  time.Duration
}

func (r result) hitRate() float64 {
	if r.gets == 0 {
		return 0
	}
	return 100 * float64(r.hits) / float64(r.gets)
}

func value(k int) string { return "value" + strconv.Itoa(k) }

// run warms c with w, then splits ops measured Gets across workers.
// Each worker owns its RNG (rand.Rand is not goroutine-safe).
func run(ctx context.Context, c policy.Cache[int, string], w workload, ops, workers int, seed int64) (result, error) {
	w.warm(rand.New(rand.NewSource(seed)), func(k int) { c.Put(k, value(k)) })

	workers = max(workers, 1)
	var gets, hits atomic.Uint64
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for id := 0; id < workers; id++ {
		share := ops / workers
		if id < ops%workers {
			share++
		}
		g.Go(func() error {
			r := rand.New(rand.NewSource(seed + int64(id+1)*9973))
			next := w.keys(r)
			for op := 0; op < share; op++ {
				if op%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				k := next(op, share)
				gets.Add(1)
				if _, ok := c.Get(k); ok {
					hits.Add(1)
				} else if w.fillOnMiss {
					c.Put(k, value(k))
				}
			}
			return nil
		})
	}
	err := g.Wait()
	return result{
		workload: w.name,
		gets:     gets.Load(),
		hits:     hits.Load(),
		elapsed:  time.Since(start),
	}, err
}
