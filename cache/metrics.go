package cache

import (
	"sync/atomic"

	"github.com/IvanBrykalov/kvcache/internal/util"
	"github.com/IvanBrykalov/kvcache/policy"
)

// sizeAggregator turns per-shard Size reports into one cache-wide entry count
// before forwarding them, so a single gauge sees the total and not whichever
// shard reported last.
type sizeAggregator struct {
	next   policy.Metrics
	total  atomic.Int64
	shards []util.PaddedAtomicInt64
}

func newSizeAggregator(next policy.Metrics, shards int) *sizeAggregator {
	return &sizeAggregator{next: next, shards: make([]util.PaddedAtomicInt64, shards)}
}

// forShard returns the Metrics handed to shard i.
func (a *sizeAggregator) forShard(i int) policy.Metrics {
	return shardMetrics{agg: a, idx: i}
}

type shardMetrics struct {
	agg *sizeAggregator
	idx int
}

func (m shardMetrics) Hit()                       { m.agg.next.Hit() }
func (m shardMetrics) Miss()                      { m.agg.next.Miss() }
func (m shardMetrics) Evict(r policy.EvictReason) { m.agg.next.Evict(r) }
func (m shardMetrics) Aging()                     { m.agg.next.Aging() }

// Size is called under the shard lock, so reports of one shard are ordered.
func (m shardMetrics) Size(entries int) {
	prev := m.agg.shards[m.idx].Swap(int64(entries))
	total := m.agg.total.Add(int64(entries) - prev)
	m.agg.next.Size(int(total))
}

var _ policy.Metrics = shardMetrics{}
