package semaphore

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
)

// Standard errors.
var (
	// ErrExecutorTerminated is returned when Submit is called on an executor
	// that has already been shut down.
	ErrExecutorTerminated = errors.New("semaphore: executor has been terminated")
)

// Executor is the single-goroutine scheduler that gives a [Semaphore] its
// single execution context: no I/O poller, no microtask ring, no timer heap
// (that's [Clock]'s job) — just one goroutine draining a task channel in
// submission order.
//
// Thread Safety: [Executor.Submit] and [Executor.SubmitWait] are safe to
// call from any goroutine. Tasks themselves always run on the executor's own
// goroutine, one at a time.
type Executor struct {
	tasks       chan func()
	closed      chan struct{}
	closeOnce   sync.Once
	wg          sync.WaitGroup
	goroutineID atomic.Uint64
}

// NewExecutor creates and starts a new Executor. The executor's goroutine
// runs until [Executor.Shutdown] or [Executor.Close] is called.
func NewExecutor() *Executor {
	e := &Executor{
		tasks:  make(chan func(), 256),
		closed: make(chan struct{}),
	}
	e.wg.Add(1)
	go e.run()
	return e
}

func (e *Executor) run() {
	defer e.wg.Done()
	e.goroutineID.Store(getGoroutineID())
	defer e.goroutineID.Store(0)

	for {
		select {
		case fn := <-e.tasks:
			fn()
		case <-e.closed:
			e.drain()
			return
		}
	}
}

// drain runs any tasks still queued at shutdown time so that in-flight
// acquires resolve (typically into a broken error) rather than hang forever.
func (e *Executor) drain() {
	for {
		select {
		case fn := <-e.tasks:
			fn()
		default:
			return
		}
	}
}

// Submit enqueues task to run on the executor's goroutine and returns
// immediately without waiting for it to execute. Returns
// [ErrExecutorTerminated] if the executor has already been shut down.
func (e *Executor) Submit(task func()) error {
	select {
	case <-e.closed:
		return ErrExecutorTerminated
	default:
	}

	select {
	case e.tasks <- task:
		return nil
	case <-e.closed:
		return ErrExecutorTerminated
	}
}

// SubmitWait runs task on the executor's goroutine and blocks until it has
// completed. If called from the executor's own goroutine (a task submitting
// more work on itself), task runs inline instead of being enqueued, which
// would otherwise deadlock.
func (e *Executor) SubmitWait(task func()) error {
	if e.isExecutorGoroutine() {
		task()
		return nil
	}

	done := make(chan struct{})
	err := e.Submit(func() {
		defer close(done)
		task()
	})
	if err != nil {
		return err
	}
	<-done
	return nil
}

// isExecutorGoroutine reports whether the calling goroutine is the
// executor's own goroutine.
func (e *Executor) isExecutorGoroutine() bool {
	id := e.goroutineID.Load()
	if id == 0 {
		return false
	}
	return getGoroutineID() == id
}

// Shutdown stops accepting new work, drains whatever is already queued, and
// waits for the executor goroutine to exit or ctx to expire, whichever comes
// first.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.closeOnce.Do(func() {
		close(e.closed)
	})

	doneCh := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the executor without waiting for its goroutine to exit.
// Equivalent to Shutdown with an already-expired context, except it never
// blocks.
func (e *Executor) Close() {
	e.closeOnce.Do(func() {
		close(e.closed)
	})
}

// getGoroutineID returns the current goroutine's numeric ID by parsing the
// leading "goroutine N" line of a stack trace. There is no supported stdlib
// API for this, and the alternative (a context.Context threaded down every
// call path) would leak executor plumbing into every public method
// signature.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
