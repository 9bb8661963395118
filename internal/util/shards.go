package util

import "runtime"

// MaxShards caps the automatic shard count.
const MaxShards = 256

// DefaultShardCount returns the available parallelism, clamped to [1..MaxShards].
func DefaultShardCount() int {
	return min(max(runtime.GOMAXPROCS(0), 1), MaxShards)
}

// ShardIndex maps a 64-bit hash to a shard index in [0, shards).
// Power-of-two shard counts take the mask path; others use modulo.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	if IsPowerOfTwo(uint64(shards)) {
		return int(hash & uint64(shards-1))
	}
	return int(hash % uint64(shards))
}

// IsPowerOfTwo reports whether x is a power of two (> 0).
func IsPowerOfTwo(x uint64) bool {
	return x != 0 && (x&(x-1)) == 0
}
