package cache

import (
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/IvanBrykalov/kvcache/policy"
	"github.com/IvanBrykalov/kvcache/policy/lfu"
	"github.com/IvanBrykalov/kvcache/policy/lruk"
)

// benchmarkMix exercises a read/write mix against a warm cache.
// It uses parallel workers (RunParallel spawns GOMAXPROCS goroutines).
// String keys include strconv/concat costs and often allocate, which is fine
// for an end-to-end benchmark.
func benchmarkMix(b *testing.B, readsPct int, pol policy.Factory[string, string]) {
	c, err := New(Options[string, string]{
		Capacity: 100_000,
		Policy:   pol,
	})
	if err != nil {
		b.Fatal(err)
	}

	// Preload half the capacity to get a realistic hit-rate.
	for i := 0; i < 50_000; i++ {
		c.Put("k:"+strconv.Itoa(i), "v")
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := (1 << 16) - 1 // hot keyspace (power of two for fast &-mask)

	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := "k:" + strconv.Itoa(i&keyMask)
			if r.Intn(100) < readsPct {
				c.Get(k)
			} else {
				c.Put(k, "v")
			}
			i++
		}
	})
}

func BenchmarkCache_LRU_90r10w(b *testing.B) { benchmarkMix(b, 90, nil) }
func BenchmarkCache_LRU_50r50w(b *testing.B) { benchmarkMix(b, 50, nil) }
func BenchmarkCache_LFU_90r10w(b *testing.B) {
	benchmarkMix(b, 90, lfu.Factory[string, string](lfu.DefaultMaxAverageFreq))
}
func BenchmarkCache_LRUK_90r10w(b *testing.B) {
	benchmarkMix(b, 90, lruk.Factory[string, string](4_096, 2))
}

// benchmarkMixInt is the same workload but with int keys.
// This removes strconv/alloc noise and better exposes the cache hot path.
func benchmarkMixInt(b *testing.B, readsPct int) {
	c, err := New(Options[int, int]{Capacity: 100_000})
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 50_000; i++ {
		c.Put(i, 1)
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := (1 << 16) - 1

	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := i & keyMask
			if r.Intn(100) < readsPct {
				c.Get(k)
			} else {
				c.Put(k, 1)
			}
			i++
		}
	})
}

func BenchmarkCache_IntKeys_90r10w(b *testing.B) { benchmarkMixInt(b, 90) }
func BenchmarkCache_IntKeys_50r50w(b *testing.B) { benchmarkMixInt(b, 50) }
