package semaphore

import "context"

// WithBoundedRegion acquires n units, runs fn, and unconditionally returns
// the units afterward — on success, on error, and on panic alike — making it
// the idiomatic Go analogue of a scoped "acquire for the duration of this
// block" region. It blocks the calling goroutine until the units are
// acquired (via [Completion.Await] against ctx), so unlike the rest of this
// package it is not safe to call from the semaphore's own executor
// goroutine.
func WithBoundedRegion(ctx context.Context, sem *Semaphore, n uint64, fn func() error) error {
	res, err := sem.GetUnits(n).Await(ctx)
	if err != nil {
		return err
	}
	h, _ := res.(*UnitsHandle)
	defer h.ReturnAll()
	return fn()
}

// TryGetUnits attempts to acquire n units without waiting. Returns the
// handle and true on success, or nil and false if the units weren't
// immediately available.
func TryGetUnits(sem *Semaphore, n uint64) (*UnitsHandle, bool) {
	if n == 0 {
		return sem.newHandleExternal(0), true
	}

	var h *UnitsHandle
	ok := false
	_ = sem.run(func() {
		if sem.brokenErr != nil {
			return
		}
		if sem.queue.empty() && sem.count >= int64(n) {
			sem.count -= int64(n)
			h = sem.newHandle(n)
			ok = true
		}
	})
	if !ok {
		return nil, false
	}
	return h, true
}

// ConsumeUnits decrements sem's counter by n without gating on availability
// (like [Semaphore.Consume]) but, unlike Consume, returns a [*UnitsHandle]
// for the n units so the caller can still return them later — useful when a
// caller wants the "this debt must eventually be repaid" bookkeeping of a
// handle without waiting for headroom first.
func ConsumeUnits(sem *Semaphore, n uint64) *UnitsHandle {
	var h *UnitsHandle
	_ = sem.run(func() {
		if sem.brokenErr != nil {
			h = sem.newHandle(0)
			return
		}
		sem.count -= int64(n)
		h = sem.newHandle(n)
	})
	return h
}

// newHandleExternal is like newHandle but callable from outside the
// executor goroutine for the n == 0 fast path, where there is nothing to
// synchronize (an empty handle never touches the counter or leak tracking).
func (s *Semaphore) newHandleExternal(n uint64) *UnitsHandle {
	return &UnitsHandle{sem: s, n: n}
}
