package semaphore

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// Semaphore is a counted-resource coordination primitive: a weighted
// semaphore arbitrating access to N interchangeable units among any number
// of callers waiting in arrival (FIFO) order.
//
// All mutable state below is only ever touched on exec's own goroutine —
// that is what lets the counter, queue, and broken-error latch go entirely
// lock-free, even though every exported method here is safe to call from any
// goroutine (each one marshals onto exec via [Executor.SubmitWait]).
type Semaphore struct {
	exec     *Executor
	ownsExec bool
	clock    Clock
	policy   Policy
	logger   Logger

	leakDetection  bool
	waiterPoolSize int

	// --- executor-goroutine-only state below ---
	count     int64
	brokenErr error
	queue     waiterList
	freeList  []*waiter

	// outstandingUnits counts units currently held by live UnitsHandles.
	// Checked by Close when leak detection is enabled. Mutated with atomics
	// because handle drops may race the executor goroutine's own Close call.
	outstandingUnits atomic.Int64
}

// New creates a Semaphore with the given initial unit count and starts a
// private [Executor] to host it (see [WithExecutor] to share one instead).
func New(initialCount int64, opts ...Option) *Semaphore {
	cfg, err := resolveSemOptions(opts)
	if err != nil {
		// Option construction in this package never actually returns an
		// error; this guards against a future Option that might.
		panic(err)
	}

	s := &Semaphore{
		clock:          cfg.clock,
		policy:         resolvePolicy(cfg.policy),
		logger:         cfg.logger,
		leakDetection:  cfg.leakDetection,
		waiterPoolSize: cfg.waiterPoolSize,
		count:          initialCount,
	}
	s.queue.init()

	if cfg.exec != nil {
		s.exec = cfg.exec
	} else {
		s.exec = NewExecutor()
		s.ownsExec = true
	}

	if s.waiterPoolSize > 0 {
		s.EnsureSpaceForWaiters(s.waiterPoolSize)
	}

	return s
}

// MaxCounter returns the signed counter type's maximum positive value.
// Requests larger than this, or a sequence of signal/consume calls that
// would overflow past it, are undefined behavior the caller must avoid —
// this package does not saturate.
func (s *Semaphore) MaxCounter() int64 {
	return math.MaxInt64
}

// run submits fn to the executor and blocks until it completes. If the
// executor has already been shut down, fn never runs.
func (s *Semaphore) run(fn func()) error {
	return s.exec.SubmitWait(fn)
}

// Wait acquires n units, returning a [*Completion] that resolves with a nil
// value on success. Equivalent to [Semaphore.GetUnits] except the success
// value is discarded rather than returned as a [*UnitsHandle] — use this
// when the caller only needs the backpressure, not a scoped release token
// (in which case the caller is responsible for eventually calling [Semaphore.Signal]
// with the same n itself).
func (s *Semaphore) Wait(n uint64) *Completion {
	return s.acquire(n, false, nil, nil)
}

// WaitUntil is [Semaphore.Wait] gated by an absolute deadline: if deadline
// has already passed, or passes before the request is satisfied, the
// completion rejects with the policy's timeout error.
func (s *Semaphore) WaitUntil(deadline time.Time, n uint64) *Completion {
	return s.acquire(n, false, &deadline, nil)
}

// WaitFor is [Semaphore.WaitUntil] with a deadline computed as
// [Semaphore]'s clock's current time plus d.
func (s *Semaphore) WaitFor(d time.Duration, n uint64) *Completion {
	deadline := s.clock.Now().Add(d)
	return s.acquire(n, false, &deadline, nil)
}

// WaitAbortable is [Semaphore.Wait] gated by sig: if sig is already aborted,
// or fires before the request is satisfied, the completion rejects with the
// policy's aborted error (carrying sig's reason).
func (s *Semaphore) WaitAbortable(sig *AbortSignal, n uint64) *Completion {
	return s.acquire(n, false, nil, sig)
}

// GetUnits acquires n units, returning a [*Completion] that resolves with a
// fresh [*UnitsHandle] on success.
func (s *Semaphore) GetUnits(n uint64) *Completion {
	return s.acquire(n, true, nil, nil)
}

// GetUnitsUntil is [Semaphore.GetUnits] gated by an absolute deadline.
func (s *Semaphore) GetUnitsUntil(deadline time.Time, n uint64) *Completion {
	return s.acquire(n, true, &deadline, nil)
}

// GetUnitsFor is [Semaphore.GetUnits] gated by a relative duration, measured
// against the semaphore's [Clock].
func (s *Semaphore) GetUnitsFor(d time.Duration, n uint64) *Completion {
	deadline := s.clock.Now().Add(d)
	return s.acquire(n, true, &deadline, nil)
}

// GetUnitsAbortable is [Semaphore.GetUnits] gated by sig.
func (s *Semaphore) GetUnitsAbortable(sig *AbortSignal, n uint64) *Completion {
	return s.acquire(n, true, nil, sig)
}

// acquire is the shared implementation behind Wait*/GetUnits*. n == 0 always
// succeeds synchronously without touching the queue.
func (s *Semaphore) acquire(n uint64, wantsUnits bool, deadline *time.Time, sig *AbortSignal) *Completion {
	if n == 0 {
		if wantsUnits {
			return newResolvedCompletion(s.newHandleExternal(0))
		}
		return newResolvedCompletion(nil)
	}

	var result *Completion
	if err := s.run(func() {
		result = s.acquireOnExecutor(n, wantsUnits, deadline, sig)
	}); err != nil {
		return newRejectedCompletion(s.policy.Broken(err))
	}
	return result
}

func (s *Semaphore) acquireOnExecutor(n uint64, wantsUnits bool, deadline *time.Time, sig *AbortSignal) *Completion {
	if s.brokenErr != nil {
		return newRejectedCompletion(s.brokenErr)
	}

	now := s.clock.Now()
	if deadline != nil && !deadline.After(now) {
		return newRejectedCompletion(s.policy.Timeout())
	}
	if sig != nil && sig.Aborted() {
		return newRejectedCompletion(s.policy.Aborted(sig.Reason()))
	}

	if s.queue.empty() && s.count >= int64(n) {
		s.count -= int64(n)
		if wantsUnits {
			return newResolvedCompletion(s.newHandle(n))
		}
		return newResolvedCompletion(nil)
	}

	w := s.newWaiter(n, wantsUnits)
	s.queue.pushBack(w)

	// The timer and abort callbacks below may reach the executor goroutine
	// after the waiter has already settled via another path — possibly after
	// its node was retired to the free list and reissued to a different
	// request. settleFromCallback's gen check makes such a late callback a
	// strict no-op, and retirement happens only on the call that actually
	// settled the waiter, so a node can never be retired twice.
	gen := w.gen
	if deadline != nil {
		delay := deadline.Sub(now)
		w.timer = s.clock.AfterFunc(delay, func() {
			_ = s.exec.Submit(func() {
				s.settleFromCallback(w, gen, s.policy.Timeout())
			})
		})
	}
	if sig != nil {
		w.abortCancel = sig.OnAbort(func(reason any) {
			_ = s.exec.Submit(func() {
				s.settleFromCallback(w, gen, s.policy.Aborted(reason))
			})
		})
	}

	return w.completion
}

// settleFromCallback fails w with err on behalf of a timer or abort callback,
// unless w already settled via another path (or was retired and reissued, in
// which case its gen no longer matches). Removing w may have unblocked the
// queue — if w was the head holding back smaller requests, the next waiter
// can be satisfiable with the units already on hand — so the wake loop runs
// afterward. Must run on the executor goroutine.
func (s *Semaphore) settleFromCallback(w *waiter, gen uint64, err error) {
	if w.gen != gen {
		return
	}
	if w.fulfillOnce(nil, err) {
		s.retireWaiter(w)
		s.wakeLoop()
	}
}

// TryWait attempts to acquire n units without waiting. Returns true if
// acquired, false if the semaphore is broken or the units aren't
// immediately available (including when the queue is non-empty, per the
// head-of-line-blocking invariant: TryWait never barges ahead of a queued
// waiter).
func (s *Semaphore) TryWait(n uint64) bool {
	if n == 0 {
		return true
	}
	var ok bool
	_ = s.run(func() {
		if s.brokenErr != nil {
			return
		}
		if s.queue.empty() && s.count >= int64(n) {
			s.count -= int64(n)
			ok = true
		}
	})
	return ok
}

// Signal releases n units back to the semaphore, then runs the wake loop:
// while the head of the queue requests no more than the (now increased)
// count, it is dequeued and fulfilled, in arrival order. A no-op if the
// semaphore is broken.
func (s *Semaphore) Signal(n uint64) {
	if n == 0 {
		return
	}
	_ = s.run(func() {
		if s.brokenErr != nil {
			return
		}
		s.count += int64(n)
		s.wakeLoop()
	})
}

// wakeLoop drains the front of the queue while it is satisfiable. Must run
// on the executor goroutine.
func (s *Semaphore) wakeLoop() {
	for {
		w := s.queue.front()
		if w == nil || s.count < int64(w.requested) {
			return
		}
		s.count -= int64(w.requested)
		if w.wantsUnits {
			w.fulfillOnce(s.newHandle(w.requested), nil)
		} else {
			w.fulfillOnce(nil, nil)
		}
		s.retireWaiter(w)
	}
}

// Consume unconditionally decrements the counter by n without gating on
// availability and without running the wake loop — count may go negative.
// A no-op if the semaphore is broken; callers must not rely on an error
// return here.
func (s *Semaphore) Consume(n uint64) {
	if n == 0 {
		return
	}
	_ = s.run(func() {
		if s.brokenErr != nil {
			return
		}
		s.count -= int64(n)
	})
}

// Broken latches the semaphore into its terminal failed state with a
// default error from the policy, draining the wait queue. Equivalent to
// BrokenWithError(nil).
func (s *Semaphore) Broken() {
	s.BrokenWithError(nil)
}

// BrokenWithError latches the semaphore into its terminal failed state with
// an error derived from cause (via the policy's Broken method), zeroing the
// counter and failing every queued waiter with that error. Once set, the
// broken error never clears; a second call is a no-op.
func (s *Semaphore) BrokenWithError(cause error) {
	_ = s.run(func() {
		s.brokenDrain(cause)
	})
}

func (s *Semaphore) brokenDrain(cause error) {
	if s.brokenErr != nil {
		return
	}
	s.brokenErr = s.policy.Broken(cause)
	s.count = 0
	for {
		w := s.queue.front()
		if w == nil {
			break
		}
		w.fulfillOnce(nil, s.brokenErr)
		s.retireWaiter(w)
	}
}

// Current returns max(0, available units) — the caller-visible, never
// negative view of the counter.
func (s *Semaphore) Current() uint64 {
	var n int64
	_ = s.run(func() {
		n = s.count
	})
	if n < 0 {
		return 0
	}
	return uint64(n)
}

// AvailableUnits returns the raw signed counter, which may be negative after
// [Semaphore.Consume].
func (s *Semaphore) AvailableUnits() int64 {
	var n int64
	_ = s.run(func() {
		n = s.count
	})
	return n
}

// Waiters returns the number of requests currently queued.
func (s *Semaphore) Waiters() int {
	var n int
	_ = s.run(func() {
		n = s.queue.len
	})
	return n
}

// Broke reports whether the semaphore has been latched into its terminal
// failed state, and the latched error if so.
func (s *Semaphore) Broke() (bool, error) {
	var err error
	_ = s.run(func() {
		err = s.brokenErr
	})
	return err != nil, err
}

// EnsureSpaceForWaiters pre-warms the internal waiter-node free list to at
// least k entries, so that a subsequent burst of enqueues does not need to
// allocate.
func (s *Semaphore) EnsureSpaceForWaiters(k int) {
	if k <= 0 {
		return
	}
	_ = s.run(func() {
		for len(s.freeList) < k {
			s.freeList = append(s.freeList, &waiter{})
		}
	})
}

// newWaiter allocates a waiter node, preferring the free list populated by
// EnsureSpaceForWaiters. Must run on the executor goroutine.
func (s *Semaphore) newWaiter(n uint64, wantsUnits bool) *waiter {
	var w *waiter
	if l := len(s.freeList); l > 0 {
		w = s.freeList[l-1]
		s.freeList = s.freeList[:l-1]
		gen := w.gen
		*w = waiter{gen: gen + 1}
	} else {
		w = &waiter{}
	}
	w.requested = n
	w.wantsUnits = wantsUnits
	w.completion = newCompletion()
	return w
}

// retireWaiter returns a settled waiter node to the free list for reuse.
// Must run on the executor goroutine, after the waiter has already been
// fulfilled (so nothing else can still be referencing it).
func (s *Semaphore) retireWaiter(w *waiter) {
	s.freeList = append(s.freeList, w)
}

// newHandle allocates a UnitsHandle for n units already deducted from the
// counter, wiring up leak detection if enabled. Must run on the executor
// goroutine (it reads s.leakDetection, which is set once at construction and
// never mutated, so that part is safe from any goroutine, but callers are
// always on the executor goroutine here anyway).
func (s *Semaphore) newHandle(n uint64) *UnitsHandle {
	h := &UnitsHandle{sem: s, n: n}
	if n > 0 && s.leakDetection {
		s.outstandingUnits.Add(int64(n))
		registerLeakFinalizer(h)
	}
	return h
}

// Close releases the semaphore's resources: it latches a broken state (if
// not already broken) so any still-pending waiters fail rather than hang
// forever, and, if this Semaphore owns its Executor, shuts that down too.
//
// If leak detection is enabled ([WithLeakDetection]) and outstanding handles
// still hold units, Close panics with a [*UsageViolationError] rather than
// silently leaking. With leak detection off (the default), still-held units
// are silently released.
func (s *Semaphore) Close() error {
	_ = s.run(func() {
		s.brokenDrain(nil)
	})

	if s.leakDetection {
		if n := s.outstandingUnits.Load(); n != 0 {
			panic(&UsageViolationError{
				Message: fmt.Sprintf("semaphore: Close with %d outstanding units still held by live handles", n),
			})
		}
	}

	if s.ownsExec {
		return s.exec.Shutdown(context.Background())
	}
	return nil
}

// String renders a short diagnostic summary of the semaphore's last observed
// state.
func (s *Semaphore) String() string {
	var (
		count   int64
		waiters int
		broken  error
	)
	_ = s.run(func() {
		count = s.count
		waiters = s.queue.len
		broken = s.brokenErr
	})
	if broken != nil {
		return fmt.Sprintf("Semaphore(broken: %v)", broken)
	}
	return fmt.Sprintf("Semaphore(count=%d, waiters=%d)", count, waiters)
}
