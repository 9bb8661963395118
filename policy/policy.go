// Package policy defines the contract shared by every eviction policy:
// the Cache capability interface, construction Options, the Metrics hooks
// and the error codes returned for inconsistent configuration.
package policy

import "github.com/go-kit/log"

// Cache is a bounded in-memory key/value store with a fixed eviction policy.
// Implementations are safe for concurrent use by multiple goroutines.
//
// Capacity is fixed at construction. A non-positive capacity yields a cache
// that never stores anything; this is not an error.
type Cache[K comparable, V any] interface {
	// Put inserts or overwrites k→v. Capacity enforcement is silent.
	Put(k K, v V)

	// Get returns the value for k and whether it was present.
	// A hit updates the policy state (recency, frequency, admission count).
	Get(k K) (V, bool)

	// Value is Get without the presence flag: a miss yields the zero value,
	// so a stored zero value and a miss look the same.
	Value(k K) V

	// Remove deletes k and reports whether it was present.
	Remove(k K) bool

	// Len returns the number of resident entries.
	Len() int

	// Purge drops every entry without invoking OnEvict.
	Purge()
}

// Factory builds one policy instance bounded to capacity entries.
// Sharded caches call it once per shard.
type Factory[K comparable, V any] func(capacity int, opt Options[K, V]) (Cache[K, V], error)

// Options are the knobs common to all policies. Zero values are safe;
// WithDefaults fills the nil fields.
type Options[K comparable, V any] struct {
	// Metrics receives Hit/Miss/Evict/Size/Aging signals. Nil => NoopMetrics.
	Metrics Metrics

	// OnEvict is called for every policy eviction while the instance lock
	// is held; keep it lightweight and do not call back into the cache.
	OnEvict func(k K, v V, reason EvictReason)

	// Logger receives rare lifecycle events. Nil => log.NewNopLogger().
	Logger log.Logger
}

// WithDefaults returns a copy of o with nil fields replaced by no-op implementations.
func (o Options[K, V]) WithDefaults() Options[K, V] {
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
	if o.Logger == nil {
		o.Logger = log.NewNopLogger()
	}
	return o
}

// Evicted reports an eviction to metrics and the OnEvict callback.
func (o Options[K, V]) Evicted(k K, v V, reason EvictReason) {
	o.Metrics.Evict(reason)
	if cb := o.OnEvict; cb != nil {
		cb(k, v, reason)
	}
}
