package policy

// EvictReason explains why an entry was removed.
type EvictReason int

const (
	// EvictCapacity: the policy picked the entry as a victim to make room.
	EvictCapacity EvictReason = iota
	// EvictHistory: an admission-history record (LRU-K) was displaced
	// before its key reached the promotion threshold.
	EvictHistory
)

// String returns a stable label for the reason.
func (r EvictReason) String() string {
	switch r {
	case EvictHistory:
		return "history"
	default:
		return "capacity"
	}
}

// Metrics exposes cache-level observability hooks.
// Implementations must be safe for concurrent use.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	// Size reports the resident entry count after a mutation.
	Size(entries int)
	// Aging signals one frequency-aging pass (LFU).
	Aging()
}

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is the default when no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()              {}
func (NoopMetrics) Miss()             {}
func (NoopMetrics) Evict(EvictReason) {}
func (NoopMetrics) Size(int)          {}
func (NoopMetrics) Aging()            {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}
