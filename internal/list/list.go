package list

// List is an ordered chain of arena entries between two sentinels.
// head.next is the oldest entry, tail.prev the newest.
type List[K comparable, V any] struct {
	a    *Arena[K, V]
	head Handle
	tail Handle
	n    int
}

// New allocates the sentinels of an empty list inside a.
func New[K comparable, V any](a *Arena[K, V]) *List[K, V] {
	var (
		zk K
		zv V
	)
	l := &List[K, V]{a: a}
	l.head = a.Alloc(zk, zv)
	l.tail = a.Alloc(zk, zv)
	a.slots[l.head].next = l.tail
	a.slots[l.tail].prev = l.head
	return l
}

// Append links h immediately before the tail sentinel.
func (l *List[K, V]) Append(h Handle) {
	s := l.a.slots
	e := &s[h]
	if e.prev != Nil || e.next != Nil {
		panic("list: append of a linked entry")
	}
	last := s[l.tail].prev
	e.prev = last
	e.next = l.tail
	s[last].next = h
	s[l.tail].prev = h
	l.n++
}

// Unlink detaches h from wherever it sits in the list.
func (l *List[K, V]) Unlink(h Handle) {
	if h == l.head || h == l.tail {
		panic("list: unlink of a sentinel")
	}
	s := l.a.slots
	e := &s[h]
	if e.prev == Nil || e.next == Nil {
		panic("list: unlink of a detached entry")
	}
	s[e.prev].next = e.next
	s[e.next].prev = e.prev
	e.prev, e.next = Nil, Nil
	l.n--
}

// MoveToBack marks h as the newest entry.
func (l *List[K, V]) MoveToBack(h Handle) {
	if l.a.slots[l.tail].prev == h {
		return
	}
	l.Unlink(h)
	l.Append(h)
}

// PeekFirst returns the oldest entry, or false when the list is empty.
func (l *List[K, V]) PeekFirst() (Handle, bool) {
	if l.IsEmpty() {
		return Nil, false
	}
	return l.a.slots[l.head].next, true
}

// IsEmpty reports whether no real entries sit between the sentinels.
func (l *List[K, V]) IsEmpty() bool { return l.a.slots[l.head].next == l.tail }

// Len returns the number of linked entries.
func (l *List[K, V]) Len() int { return l.n }

// Walk calls fn for each entry from oldest to newest until fn returns false.
// fn must not mutate the list.
func (l *List[K, V]) Walk(fn func(Handle) bool) {
	s := l.a.slots
	for h := s[l.head].next; h != l.tail; h = s[h].next {
		if !fn(h) {
			return
		}
	}
}

// Release returns the sentinels to the arena. The list must be empty.
func (l *List[K, V]) Release() {
	if !l.IsEmpty() {
		panic("list: release of a non-empty list")
	}
	s := l.a.slots
	s[l.head].next, s[l.tail].prev = Nil, Nil
	l.a.Release(l.head)
	l.a.Release(l.tail)
	l.head, l.tail = Nil, Nil
}
