package policy

import "github.com/agilira/go-errors"

// Error codes for rejected configurations. Cache misses and non-positive
// capacities are not errors.
const (
	ErrCodeInvalidThreshold       errors.ErrorCode = "KVCACHE_INVALID_THRESHOLD"
	ErrCodeInvalidHistoryCapacity errors.ErrorCode = "KVCACHE_INVALID_HISTORY_CAPACITY"
	ErrCodeInvalidShards          errors.ErrorCode = "KVCACHE_INVALID_SHARDS"
)

const (
	msgInvalidThreshold       = "invalid promotion threshold: must be at least 1"
	msgInvalidHistoryCapacity = "invalid history capacity: must be at least 1 when the threshold exceeds 1"
	msgInvalidShards          = "shard construction failed"
)

// NewErrInvalidThreshold reports an LRU-K threshold below 1.
func NewErrInvalidThreshold(k int) error {
	return errors.NewWithContext(ErrCodeInvalidThreshold, msgInvalidThreshold, map[string]interface{}{
		"provided_k":       k,
		"minimum_required": 1,
	})
}

// NewErrInvalidHistoryCapacity reports a history too small to count touches.
func NewErrInvalidHistoryCapacity(historyCapacity, k int) error {
	return errors.NewWithContext(ErrCodeInvalidHistoryCapacity, msgInvalidHistoryCapacity, map[string]interface{}{
		"history_capacity": historyCapacity,
		"k":                k,
	})
}

// NewErrInvalidShards wraps a policy factory failure for shard i.
func NewErrInvalidShards(shard int, cause error) error {
	return errors.Wrap(cause, ErrCodeInvalidShards, msgInvalidShards).
		WithContext("shard", shard)
}

// IsConfigError reports whether err rejects a cache configuration.
func IsConfigError(err error) bool {
	return errors.HasCode(err, ErrCodeInvalidThreshold) ||
		errors.HasCode(err, ErrCodeInvalidHistoryCapacity) ||
		errors.HasCode(err, ErrCodeInvalidShards)
}
