package lru

import (
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"testing"

	"github.com/IvanBrykalov/kvcache/internal/list"
	"github.com/IvanBrykalov/kvcache/policy"
)

// --- test doubles ---

type recMetrics struct {
	mu      sync.Mutex
	hits    int
	misses  int
	evicts  map[policy.EvictReason]int
	lastLen int
}

func newRecMetrics() *recMetrics { return &recMetrics{evicts: map[policy.EvictReason]int{}} }

func (m *recMetrics) Hit()  { m.mu.Lock(); m.hits++; m.mu.Unlock() }
func (m *recMetrics) Miss() { m.mu.Lock(); m.misses++; m.mu.Unlock() }
func (m *recMetrics) Evict(r policy.EvictReason) {
	m.mu.Lock()
	m.evicts[r]++
	m.mu.Unlock()
}
func (m *recMetrics) Size(n int) { m.mu.Lock(); m.lastLen = n; m.mu.Unlock() }
func (m *recMetrics) Aging()     {}

// checkInvariants walks the recency list and the index; any mismatch is an
// engine defect.
func checkInvariants[K comparable, V any](t *testing.T, c *Cache[K, V]) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.index) > c.cap {
		t.Fatalf("len %d exceeds capacity %d", len(c.index), c.cap)
	}
	if c.order.Len() != len(c.index) {
		t.Fatalf("list len %d != index len %d", c.order.Len(), len(c.index))
	}
	seen := 0
	c.order.Walk(func(h list.Handle) bool {
		k := c.arena.Entry(h).Key
		if got, ok := c.index[k]; !ok || got != h {
			t.Fatalf("key %v: index handle %v, list handle %v", k, got, h)
		}
		seen++
		return true
	})
	if seen != len(c.index) {
		t.Fatalf("walked %d entries, index has %d", seen, len(c.index))
	}
	if live := c.arena.Live(); live != len(c.index)+2 {
		t.Fatalf("arena live slots %d, want %d", live, len(c.index)+2)
	}
}

// --- tests ---

// Put then Get returns the stored value.
func TestLRU_PutGetRoundTrip(t *testing.T) {
	t.Parallel()

	c := New[string, int](1, policy.Options[string, int]{})
	c.Put("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("want (1, true), got (%v, %v)", v, ok)
	}
	c.Put("a", 2)
	if v := c.Value("a"); v != 2 {
		t.Fatalf("overwrite: want 2, got %v", v)
	}
	if c.Len() != 1 {
		t.Fatalf("overwrite must not grow the cache, len=%d", c.Len())
	}
}

// Inserting C+1 keys evicts exactly the first one.
func TestLRU_EvictsLeastRecentlyInserted(t *testing.T) {
	t.Parallel()

	m := newRecMetrics()
	var evicted []string
	c := New[string, int](3, policy.Options[string, int]{
		Metrics: m,
		OnEvict: func(k string, _ int, r policy.EvictReason) {
			if r != policy.EvictCapacity {
				t.Errorf("unexpected reason %v", r)
			}
			evicted = append(evicted, k)
		},
	})
	for i, k := range []string{"a", "b", "c", "d"} {
		c.Put(k, i)
	}
	if !slices.Equal(evicted, []string{"a"}) {
		t.Fatalf("want [a] evicted, got %v", evicted)
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("a must be gone")
	}
	if m.evicts[policy.EvictCapacity] != 1 || m.lastLen != 3 {
		t.Fatalf("metrics: evicts=%v len=%d", m.evicts, m.lastLen)
	}
	checkInvariants(t, c)
}

// A Get protects an entry from the next eviction.
func TestLRU_GetPromotes(t *testing.T) {
	t.Parallel()

	c := New[string, int](2, policy.Options[string, int]{})
	c.Put("a", 1)
	c.Put("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expect hit for a")
	}
	c.Put("c", 3) // evicts b

	if _, ok := c.Get("b"); ok {
		t.Fatal("b must be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a must survive (promoted)")
	}
	if got := c.Keys(); !slices.Equal(got, []string{"c", "a"}) {
		t.Fatalf("recency order: got %v", got)
	}
}

// Capacity 5: touch 1,2,3 then insert 6,7; 4 and 5 go.
func TestLRU_CapacityFiveScenario(t *testing.T) {
	t.Parallel()

	c := New[int, string](5, policy.Options[int, string]{})
	for k := 1; k <= 5; k++ {
		c.Put(k, fmt.Sprint("v", k))
	}
	for k := 1; k <= 3; k++ {
		c.Get(k)
	}
	c.Put(6, "v6")
	c.Put(7, "v7")

	for _, k := range []int{4, 5} {
		if _, ok := c.Get(k); ok {
			t.Fatalf("key %d must be evicted", k)
		}
	}
	for k := 1; k <= 3; k++ {
		if v, ok := c.Get(k); !ok || v != fmt.Sprint("v", k) {
			t.Fatalf("key %d: got (%q, %v)", k, v, ok)
		}
	}
	checkInvariants(t, c)
}

// Remove deletes once and is a no-op afterwards.
func TestLRU_Remove(t *testing.T) {
	t.Parallel()

	c := New[string, int](4, policy.Options[string, int]{})
	c.Put("a", 1)
	if !c.Remove("a") {
		t.Fatal("Remove a must be true")
	}
	if c.Remove("a") {
		t.Fatal("second Remove must be false")
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("a must be absent after Remove")
	}
	checkInvariants(t, c)
}

// Non-positive capacity: nothing is ever stored.
func TestLRU_ZeroCapacity(t *testing.T) {
	t.Parallel()

	for _, capacity := range []int{0, -3} {
		c := New[string, int](capacity, policy.Options[string, int]{})
		c.Put("a", 1)
		if _, ok := c.Get("a"); ok || c.Len() != 0 {
			t.Fatalf("cap=%d must never store", capacity)
		}
		if got := c.Upsert("a", func(int, bool) int { return 7 }); got != 7 || c.Len() != 0 {
			t.Fatalf("cap=%d Upsert must not store, got %d len %d", capacity, got, c.Len())
		}
	}
}

// Upsert sees the previous value and promotes; Replace only touches residents.
func TestLRU_UpsertAndReplace(t *testing.T) {
	t.Parallel()

	c := New[string, int](2, policy.Options[string, int]{})
	inc := func(old int, _ bool) int { return old + 1 }
	c.Upsert("a", inc)
	c.Put("b", 10)
	if got := c.Upsert("a", inc); got != 2 {
		t.Fatalf("Upsert: want 2, got %d", got)
	}
	c.Put("c", 0) // b is LRU now
	if _, ok := c.Get("b"); ok {
		t.Fatal("b must be evicted after a was upserted")
	}

	if c.Replace("zzz", 1) {
		t.Fatal("Replace on absent key must be false")
	}
	if !c.Replace("a", 42) || c.Value("a") != 42 {
		t.Fatal("Replace on resident key must overwrite")
	}
}

func TestLRU_Purge(t *testing.T) {
	t.Parallel()

	c := New[int, int](8, policy.Options[int, int]{})
	for i := 0; i < 8; i++ {
		c.Put(i, i)
	}
	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("len after Purge: %d", c.Len())
	}
	c.Put(1, 1)
	if v, ok := c.Get(1); !ok || v != 1 {
		t.Fatal("cache must be usable after Purge")
	}
	checkInvariants(t, c)
}

// Random operation sequences never break the list/index invariants.
func TestLRU_RandomOpsKeepInvariants(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(7))
	c := New[int, int](16, policy.Options[int, int]{})
	for i := 0; i < 5_000; i++ {
		k := r.Intn(64)
		switch r.Intn(10) {
		case 0:
			c.Remove(k)
		case 1, 2, 3, 4:
			c.Put(k, i)
		default:
			c.Get(k)
		}
		if c.Len() > 16 {
			t.Fatalf("step %d: len %d > 16", i, c.Len())
		}
	}
	checkInvariants(t, c)
}
