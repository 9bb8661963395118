// Package list implements an arena-backed doubly linked list of cache entries.
//
// Entries live in a slice owned by an Arena and are addressed by stable integer
// handles. Lists store handles instead of pointers, so evicted slots can be
// recycled through a free chain without leaving dangling references behind.
package list

// Handle addresses an entry slot inside an Arena.
type Handle int32

// Nil is the handle of "no entry".
const Nil Handle = -1

// Entry is one arena slot. Freq is only meaningful for frequency-ordered caches.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
	Freq  int

	prev Handle
	next Handle
}

// Arena owns entry storage shared by one or more lists.
// It is not safe for concurrent use; callers hold their own lock.
type Arena[K comparable, V any] struct {
	slots []Entry[K, V]
	free  Handle // head of the free chain, linked through next
	live  int
}

// NewArena returns an arena with room for sizeHint entries before growing.
func NewArena[K comparable, V any](sizeHint int) *Arena[K, V] {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Arena[K, V]{
		slots: make([]Entry[K, V], 0, sizeHint),
		free:  Nil,
	}
}

// Alloc stores k/v in a fresh detached slot (Freq = 1) and returns its handle.
func (a *Arena[K, V]) Alloc(k K, v V) Handle {
	a.live++
	if h := a.free; h != Nil {
		e := &a.slots[h]
		a.free = e.next
		*e = Entry[K, V]{Key: k, Value: v, Freq: 1, prev: Nil, next: Nil}
		return h
	}
	a.slots = append(a.slots, Entry[K, V]{Key: k, Value: v, Freq: 1, prev: Nil, next: Nil})
	return Handle(len(a.slots) - 1)
}

// Release zeroes the slot and returns it to the free chain.
// The entry must already be unlinked from its list.
func (a *Arena[K, V]) Release(h Handle) {
	e := &a.slots[h]
	if e.prev != Nil || e.next != Nil {
		panic("list: release of a linked entry")
	}
	*e = Entry[K, V]{prev: Nil, next: a.free}
	a.free = h
	a.live--
}

// Entry returns the slot for h. The pointer is invalidated by the next Alloc.
func (a *Arena[K, V]) Entry(h Handle) *Entry[K, V] { return &a.slots[h] }

// Live returns the number of allocated slots, sentinels included.
func (a *Arena[K, V]) Live() int { return a.live }

// Reset drops every slot. All lists built on the arena become invalid.
func (a *Arena[K, V]) Reset() {
	clear(a.slots)
	a.slots = a.slots[:0]
	a.free = Nil
	a.live = 0
}
