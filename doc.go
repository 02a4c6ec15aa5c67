// Package semaphore provides a counted-resource coordination primitive for a
// cooperative, single-execution-context runtime: a weighted semaphore that
// arbitrates access to N interchangeable units among any number of waiting
// callers, plus a scoped [UnitsHandle] token that guarantees the units it
// represents are returned on every exit path.
//
// # Architecture
//
// [Semaphore] owns the counter, the FIFO wait queue, and the broken/terminal
// error latch. Every mutating operation is marshaled through a private
// [Executor] so that the counter, queue, and broken state are only ever
// touched from one goroutine at a time ([Executor.Submit] is itself safe to
// call from any goroutine — see executor.go). [UnitsHandle] is the scoped
// owner of units granted by a successful acquire; its zero value is an empty
// handle, and its ReturnUnits/ReturnAll paths route back through the same
// executor (Release discards units without touching the semaphore).
//
// Acquire operations that cannot complete synchronously return a
// [*Completion] — a one-shot future, not a blocking call — so callers
// integrate it with whatever concurrency model they use: block on
// [Completion.ToChannel], poll [Completion.State], or hand it to their own
// scheduler.
//
// # Cancellation
//
// [Semaphore.WaitFor] arms a [Clock] timer; [Semaphore.WaitAbortable] accepts
// an [*AbortSignal] (also reachable from a [context.Context] via
// [FromContext]). Both race against [Semaphore.Signal] and
// [Semaphore.Broken]; whichever transition reaches the waiter first wins, and
// the others become no-ops — see waiter.go's fulfill-once guard.
//
// # Thread Safety
//
// A [*Semaphore] and any [*UnitsHandle] it issues are safe to use from any
// goroutine. Internally, all counter/queue mutation happens on the
// semaphore's own executor goroutine; nothing in this package holds a lock
// across a blocking call.
//
// # Usage
//
//	sem := semaphore.New(1)
//	defer sem.Close()
//
//	res := <-sem.GetUnits(1).ToChannel()
//	if err, ok := res.(error); ok {
//	    log.Fatal(err)
//	}
//	h := res.(*semaphore.UnitsHandle)
//	defer h.ReturnAll()
//
// # Error Types
//
// The package provides a small typed error taxonomy:
//   - [TimeoutError]: deadline elapsed before the request could be satisfied
//   - [AbortedError]: an [*AbortSignal] fired before satisfaction
//   - [BrokenError]: the semaphore was latched into its terminal failed state
//   - [InvalidArgumentError]: a handle operation requested more units than it holds
//   - [UsageViolationError]: adopting across semaphores, or a leak-detected Close
//
// All error types implement the standard [error] interface, [errors.Unwrap],
// and type-based matching via Is.
package semaphore
