package semaphore

import (
	"fmt"
	"runtime"
	"sync"
)

// UnitsHandle is a scoped ownership token for n units of a [Semaphore]'s
// capacity, returned by [Semaphore.GetUnits] and friends. While n > 0, the
// semaphore's counter is effectively n units lower than its raw value, and
// that debt is paid back (via [Semaphore.Signal]) as units are returned —
// through [UnitsHandle.ReturnUnits], [UnitsHandle.ReturnAll], or (if leak
// detection is enabled) the handle being garbage collected unreturned.
// [UnitsHandle.Release] empties the handle without signaling anything back.
//
// A handle is only ever valid for the semaphore that produced it: [UnitsHandle.Adopt]
// panics if asked to merge in a handle from a different one.
type UnitsHandle struct {
	mu  sync.Mutex
	sem *Semaphore
	n   uint64
}

// Count returns the number of units currently held by h.
func (h *UnitsHandle) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.n
}

// Bool reports whether h still holds any units, for the idiom
//
//	if h.Bool() { ... }
func (h *UnitsHandle) Bool() bool {
	return h.Count() > 0
}

// ReturnUnits gives back k of h's held units to the originating semaphore,
// running its wake loop. Returns an [*InvalidArgumentError] if k exceeds the
// units h currently holds.
func (h *UnitsHandle) ReturnUnits(k uint64) error {
	h.mu.Lock()
	if k > h.n {
		h.mu.Unlock()
		return &InvalidArgumentError{
			Message: fmt.Sprintf("semaphore: ReturnUnits(%d) exceeds held count %d", k, h.n),
		}
	}
	h.n -= k
	sem := h.sem
	h.mu.Unlock()

	if k == 0 {
		return nil
	}
	if sem.leakDetection {
		sem.outstandingUnits.Add(-int64(k))
	}
	sem.Signal(k)
	return nil
}

// ReturnAll gives back every unit h currently holds, returning the count
// that was returned.
func (h *UnitsHandle) ReturnAll() uint64 {
	h.mu.Lock()
	k := h.n
	h.mu.Unlock()
	_ = h.ReturnUnits(k)
	return k
}

// Release discards h's remaining units without signaling them back to the
// semaphore — the units are simply gone, as if consumed. Returns the count
// that was discarded. Go has no destructors, so callers that want "release
// on scope exit" reliably must `defer h.ReturnAll()` themselves; Release
// exists for the rarer case of deliberately discarding units rather than
// returning them.
func (h *UnitsHandle) Release() uint64 {
	h.mu.Lock()
	k := h.n
	h.n = 0
	sem := h.sem
	h.mu.Unlock()
	if k > 0 && sem.leakDetection {
		sem.outstandingUnits.Add(-int64(k))
	}
	return k
}

// Split carves k units off h into a new, independent handle, leaving h with
// its remaining units. Returns an [*InvalidArgumentError] if k exceeds h's
// current count.
func (h *UnitsHandle) Split(k uint64) (*UnitsHandle, error) {
	h.mu.Lock()
	if k > h.n {
		h.mu.Unlock()
		return nil, &InvalidArgumentError{
			Message: fmt.Sprintf("semaphore: Split(%d) exceeds held count %d", k, h.n),
		}
	}
	h.n -= k
	sem := h.sem
	h.mu.Unlock()

	other := &UnitsHandle{sem: sem, n: k}
	if k > 0 && sem.leakDetection {
		// The k units were already counted outstanding when the parent grant
		// was issued; Split redistributes them rather than granting more, so
		// only the finalizer is armed here.
		registerLeakFinalizer(other)
	}
	return other, nil
}

// Adopt merges other's units into h, leaving other empty. Adopting an empty
// handle is a no-op. Otherwise both handles must belong to the same
// semaphore — this is an assertion on caller correctness, not a recoverable
// condition, so a mismatch panics with a [*UsageViolationError] rather than
// returning an error.
func (h *UnitsHandle) Adopt(other *UnitsHandle) {
	if other == nil || other == h {
		return
	}

	other.mu.Lock()
	otherSem := other.sem
	k := other.n
	other.mu.Unlock()
	if k == 0 {
		return
	}

	h.mu.Lock()
	hSem := h.sem
	h.mu.Unlock()

	if otherSem != hSem {
		panic(&UsageViolationError{Message: "semaphore: Adopt between handles of different semaphores"})
	}

	other.mu.Lock()
	k = other.n
	other.n = 0
	other.mu.Unlock()

	h.mu.Lock()
	h.n += k
	h.mu.Unlock()
}

// String renders h's current state for diagnostics.
func (h *UnitsHandle) String() string {
	return fmt.Sprintf("UnitsHandle(n=%d)", h.Count())
}

// registerLeakFinalizer arms a GC finalizer on h that, if h is collected
// while still holding units, logs a warning through its semaphore's logger
// and signals the units back so a forgotten handle doesn't permanently wedge
// the semaphore's counter. A single per-handle finalizer suffices here:
// each handle is a bounded, independently collectible object, so there is
// no unbounded set to periodically scavenge.
func registerLeakFinalizer(h *UnitsHandle) {
	runtime.SetFinalizer(h, finalizeLeakedHandle)
}

func finalizeLeakedHandle(h *UnitsHandle) {
	k := h.Release()
	if k == 0 {
		return
	}
	sem := h.sem
	warnf(sem.logger, "UnitsHandle garbage collected while still holding %d unit(s); returning them", k)
	sem.Signal(k)
}
