package semaphore

// waiterList is an intrusive doubly-linked list of *waiter nodes. Unlike
// container/list (value-boxed Elements requiring a second map lookup to go
// from a *waiter back to its list position), each *waiter embeds its own
// prev/next pointers, so the timer and abort paths can unlink a specific
// waiter in O(1) by identity alone.
type waiterList struct {
	root waiter // sentinel; root.next is the head, root.prev is the tail
	len  int
}

func (l *waiterList) init() *waiterList {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
	return l
}

// pushBack appends w to the tail of the list. w must not already be linked.
func (l *waiterList) pushBack(w *waiter) {
	if l.root.next == nil {
		l.init()
	}
	last := l.root.prev
	w.prev = last
	w.next = &l.root
	last.next = w
	l.root.prev = w
	w.list = l
	l.len++
}

// front returns the head of the list, or nil if empty.
func (l *waiterList) front() *waiter {
	if l.len == 0 {
		return nil
	}
	return l.root.next
}

// unlink removes w from whatever list it is currently a member of. It is
// safe to call on a w that is not linked (e.g. already removed by a racing
// path) — the signal, timer, abort, and broken-drain paths all rely on that.
func (w *waiter) unlink() {
	if w.list == nil {
		return
	}
	l := w.list
	w.prev.next = w.next
	w.next.prev = w.prev
	w.next = nil
	w.prev = nil
	w.list = nil
	l.len--
}

// empty reports whether the list currently has no waiters.
func (l *waiterList) empty() bool {
	return l.len == 0
}
