package semaphore

// waiter is a single queued acquire request.
// It is an intrusive node (prev/next/list, see list.go) carrying the
// requested quantity, the completion sink to fulfill, and at most one
// unsolicited-cancellation source. It self-destructs (unlinks, fulfills
// exactly once) from whichever of four paths reaches it first: signal-wake,
// timer-fire, abort-fire, or broken-drain — see fulfillOnce below.
type waiter struct {
	// intrusive list linkage; nil when not currently queued.
	prev, next *waiter
	list       *waiterList

	requested  uint64
	completion *Completion
	wantsUnits bool // true for GetUnits* (fulfills with *UnitsHandle), false for Wait*

	// at most one cancellation source per waiter: a deadline timer or an
	// abort subscription, never both armed at once with an untimed wait.
	timer       *Timer
	abortCancel func() // unregisters the OnAbort subscription; nil if none

	// gen distinguishes successive uses of a node recycled through the
	// semaphore's free list. Timer and abort callbacks capture the gen they
	// armed against; if the node has been retired and reissued by the time
	// the callback reaches the executor goroutine, the gens no longer match
	// and the callback must not touch the node. Only ever read or written on
	// the executor goroutine.
	gen uint64

	fulfilled bool
}

// fulfillOnce settles w's completion with the given result exactly once,
// unlinks w from its queue, and cancels whatever cancellation source it
// registered. Safe to call redundantly from multiple racing paths (signal,
// timer, abort, broken-drain): only the first call has any effect and
// returns true. Whichever transition executes first wins; the rest silently
// become no-ops.
//
// A non-nil err rejects the completion; otherwise it resolves with val, which
// is nil or a *UnitsHandle depending on w.wantsUnits.
func (w *waiter) fulfillOnce(val any, err error) bool {
	if w.fulfilled {
		return false
	}
	w.fulfilled = true

	w.unlink()
	w.cancelAborter()

	if err != nil {
		w.completion.reject(err)
		return true
	}
	w.completion.resolve(val)
	return true
}

// cancelAborter stops whichever timer or abort subscription this waiter
// armed, so a losing cancellation path never fires after the waiter has
// already settled via a different path.
func (w *waiter) cancelAborter() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.abortCancel != nil {
		w.abortCancel()
		w.abortCancel = nil
	}
}
