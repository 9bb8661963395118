package lruk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/kvcache/policy"
)

type evictCounter struct {
	policy.NoopMetrics
	byReason map[policy.EvictReason]int
}

func (e *evictCounter) Evict(r policy.EvictReason) { e.byReason[r]++ }

func TestLRUK_RejectsInconsistentConfig(t *testing.T) {
	t.Parallel()

	_, err := New[string, int](4, 8, 0, policy.Options[string, int]{})
	require.Error(t, err)
	require.True(t, policy.IsConfigError(err))

	_, err = New[string, int](4, 0, 2, policy.Options[string, int]{})
	require.Error(t, err)
	require.True(t, policy.IsConfigError(err))

	c, err := New[string, int](4, 0, 1, policy.Options[string, int]{})
	require.NoError(t, err, "k=1 admits on first touch and needs no history")
	c.Put("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

// A key touched fewer than K times is never visible; the K-th touch admits it.
func TestLRUK_AdmissionAfterKPuts(t *testing.T) {
	t.Parallel()

	c, err := New[string, string](4, 8, 3, policy.Options[string, string]{})
	require.NoError(t, err)

	c.Put("k", "v1")
	c.Put("k", "v2")
	require.Zero(t, c.Len())
	require.Equal(t, 2, c.history.Value("k").count)

	c.Put("k", "v3") // third touch
	require.Equal(t, 1, c.Len())
	_, inHistory := c.history.Get("k")
	require.False(t, inHistory, "admitted key must leave the history")

	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v3", v)
}

// Gets count as touches and promote the buffered Put value.
func TestLRUK_GetPromotesBufferedValue(t *testing.T) {
	t.Parallel()

	c, err := New[int, string](4, 8, 2, policy.Options[int, string]{})
	require.NoError(t, err)

	c.Put(1, "one") // touch 1, buffered
	v, ok := c.Get(1) // touch 2, promoted then served
	require.True(t, ok)
	require.Equal(t, "one", v)
	require.Equal(t, 1, c.Len())

	// Without a buffered value, reaching K via Gets alone admits nothing.
	_, ok = c.Get(2)
	require.False(t, ok)
	_, ok = c.Get(2)
	require.False(t, ok)
	require.Equal(t, 1, c.Len())
	c.Put(2, "two") // third touch carries a value
	require.Equal(t, "two", c.Value(2))
}

// Once admitted, Puts overwrite in place and the entry follows plain LRU rules.
func TestLRUK_AdmittedKeyFollowsLRU(t *testing.T) {
	t.Parallel()

	c, err := New[string, int](2, 8, 2, policy.Options[string, int]{})
	require.NoError(t, err)

	admit := func(k string, v int) {
		c.Put(k, v)
		c.Put(k, v)
	}
	admit("a", 1)
	admit("b", 2)
	c.Put("a", 10) // resident: overwritten immediately
	require.Equal(t, 10, c.Value("a"))

	admit("c", 3) // main full: LRU victim is b (a was just touched)
	_, ok := c.main.Get("b")
	require.False(t, ok)
	require.Equal(t, []string{"a", "c"}, c.main.Keys())
}

// Cold one-off keys cannot push hot admitted keys out of the main cache.
func TestLRUK_ColdScanDoesNotEvictHotSet(t *testing.T) {
	t.Parallel()

	m := &evictCounter{byReason: map[policy.EvictReason]int{}}
	c, err := New[int, int](3, 4, 2, policy.Options[int, int]{Metrics: m})
	require.NoError(t, err)

	for k := 0; k < 3; k++ {
		c.Put(k, k)
		c.Put(k, k)
	}
	for k := 100; k < 200; k++ {
		c.Put(k, k) // single touch each
	}
	for k := 0; k < 3; k++ {
		v, ok := c.Get(k)
		require.True(t, ok, "hot key %d evicted by a cold scan", k)
		require.Equal(t, k, v)
	}
	require.Zero(t, m.byReason[policy.EvictCapacity])
	require.Positive(t, m.byReason[policy.EvictHistory], "scan must churn the history")
	require.LessOrEqual(t, c.history.Len(), 4)
}

func TestLRUK_RemoveAndPurge(t *testing.T) {
	t.Parallel()

	c, err := New[string, int](4, 4, 2, policy.Options[string, int]{})
	require.NoError(t, err)

	c.Put("pending", 1)
	require.True(t, c.Remove("pending"), "history-only key is removable")
	c.Put("pending", 1)
	require.Zero(t, c.Len(), "removed history must restart the count")

	c.Put("x", 1)
	c.Put("x", 1)
	require.True(t, c.Remove("x"))
	require.False(t, c.Remove("x"))

	c.Put("y", 1)
	c.Put("y", 1)
	c.Purge()
	require.Zero(t, c.Len())
	require.Zero(t, c.history.Len())
}

func TestLRUK_FactoryBuildsPolicyCache(t *testing.T) {
	t.Parallel()

	pc, err := Factory[string, int](8, 2)(4, policy.Options[string, int]{})
	require.NoError(t, err)
	pc.Put("a", 1)
	pc.Put("a", 1)
	require.Equal(t, 1, pc.Value("a"))

	_, err = Factory[string, int](0, 2)(4, policy.Options[string, int]{})
	require.Error(t, err)
}
