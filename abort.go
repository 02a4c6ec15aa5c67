// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package semaphore

import (
	"context"
	"sync"
)

// AbortSignal represents a signal object that allows communication with an
// in-flight [Semaphore.WaitAbortable] call and aborts it if needed via an
// [AbortController].
//
// This implementation follows the shape of the W3C DOM AbortController/
// AbortSignal specification (https://dom.spec.whatwg.org/#interface-abortsignal),
// adapted here as a generic cancellation source rather than anything
// fetch/DOM specific.
//
// Thread Safety:
// AbortSignal is safe for concurrent access from multiple goroutines.
// All state mutations are protected by an internal mutex.
//
// Usage:
//
//	controller := semaphore.NewAbortController()
//	signal := controller.Signal()
//
//	// Check if aborted
//	if signal.Aborted() {
//	    // Handle aborted state
//	}
//
//	// Add abort handler
//	signal.OnAbort(func(reason any) {
//	    fmt.Println("Aborted with reason:", reason)
//	})
//
//	// Abort the operation
//	controller.Abort("user cancelled")
type AbortSignal struct { //nolint:govet // betteralign:ignore
	handlers []*abortHandler
	reason   any
	mu       sync.RWMutex
	aborted  bool
}

// abortHandler is a single OnAbort registration. Boxed so the cancel func
// returned by OnAbort can remove exactly this registration by identity.
type abortHandler struct {
	fn func(reason any)
}

// newAbortSignal creates a new AbortSignal.
// This is an internal function; signals are created via AbortController.
func newAbortSignal() *AbortSignal {
	return &AbortSignal{}
}

// Aborted returns true if the signal has been aborted.
//
// Thread Safety: Safe to call concurrently.
func (s *AbortSignal) Aborted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aborted
}

// Reason returns the abort reason, or nil if not aborted or no reason was
// provided.
//
// Thread Safety: Safe to call concurrently.
func (s *AbortSignal) Reason() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// OnAbort registers a callback function to be invoked when the signal is
// aborted, returning a cancel function that unregisters it. Calling cancel
// after the handler has already been invoked (or more than once) is a no-op.
//
// If the signal is already aborted at the time of registration, the callback
// is invoked immediately with the current abort reason. Multiple callbacks
// can be registered and will be called in registration order. Delivery is
// at-most-once per callback, matching the contract [Semaphore.WaitAbortable]
// relies on.
//
// Thread Safety: Safe to call concurrently.
func (s *AbortSignal) OnAbort(handler func(reason any)) (cancel func()) {
	if handler == nil {
		return func() {}
	}

	s.mu.Lock()
	// If already aborted, invoke handler immediately after unlocking
	if s.aborted {
		reason := s.reason
		s.mu.Unlock()
		handler(reason)
		return func() {}
	}

	reg := &abortHandler{fn: handler}
	s.handlers = append(s.handlers, reg)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, h := range s.handlers {
			if h == reg {
				s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
				return
			}
		}
	}
}

// ThrowIfAborted returns a *[AbortedError] if the signal has been aborted,
// else nil.
//
// Thread Safety: Safe to call concurrently.
func (s *AbortSignal) ThrowIfAborted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.aborted {
		return &AbortedError{Reason: s.reason}
	}
	return nil
}

// abort is called by AbortController to abort the signal.
// This is an internal method.
func (s *AbortSignal) abort(reason any) {
	s.mu.Lock()

	// If already aborted, this is a no-op
	if s.aborted {
		s.mu.Unlock()
		return
	}

	s.aborted = true
	s.reason = reason

	// Copy handlers to invoke outside the lock
	handlers := make([]*abortHandler, len(s.handlers))
	copy(handlers, s.handlers)
	s.handlers = nil
	s.mu.Unlock()

	// Invoke all handlers. Handlers must not panic; we don't recover here so
	// that a bug in a handler surfaces loudly rather than being swallowed.
	for _, handler := range handlers {
		handler.fn(reason)
	}
}

// AbortController represents a controller object that allows aborting one or
// more in-flight waits through its associated [AbortSignal].
//
// Thread Safety:
// AbortController is safe for concurrent access from multiple goroutines.
// The Abort() method can be called from any goroutine.
//
// Usage:
//
//	controller := semaphore.NewAbortController()
//	signal := controller.Signal()
//
//	c := sem.WaitAbortable(signal, 1)
//
//	// Later, abort the operation
//	controller.Abort("operation timed out")
type AbortController struct {
	signal *AbortSignal
}

// NewAbortController creates a new AbortController with a fresh AbortSignal.
//
// The returned controller can be used to abort operations that accept its
// associated Signal().
func NewAbortController() *AbortController {
	return &AbortController{
		signal: newAbortSignal(),
	}
}

// Signal returns the AbortSignal associated with this controller.
//
// Thread Safety: Safe to call concurrently. Always returns the same signal.
func (c *AbortController) Signal() *AbortSignal {
	return c.signal
}

// Abort aborts the controller's signal with the given reason.
//
// If reason is nil, a default [*AbortedError] is used as the reason.
//
// Calling Abort() multiple times has no additional effect; the signal
// remains in its aborted state with the original reason.
//
// Thread Safety: Safe to call concurrently from any goroutine.
func (c *AbortController) Abort(reason any) {
	if reason == nil {
		reason = &AbortedError{Message: "semaphore: wait aborted"}
	}
	c.signal.abort(reason)
}

// AbortAny creates a composite AbortSignal that aborts when ANY of the input
// signals abort. The returned signal's reason is the reason from the first
// signal to abort.
//
// If any input signal is already aborted, the returned signal is immediately
// aborted with that signal's reason. An empty input returns a signal that
// never aborts.
//
// Thread Safety:
// AbortAny is safe to call from any goroutine. The returned signal is safe
// for concurrent access.
func AbortAny(signals []*AbortSignal) *AbortSignal {
	composite := newAbortSignal()

	if len(signals) == 0 {
		return composite
	}

	// The first input to fire aborts the composite; every other subscription
	// is then cancelled, so the composite does not stay registered on (and
	// retained by) long-lived input signals after it has already aborted.
	var (
		mu      sync.Mutex
		fired   bool
		cancels []func()
	)
	fire := func(reason any) {
		mu.Lock()
		if fired {
			mu.Unlock()
			return
		}
		fired = true
		cs := cancels
		cancels = nil
		mu.Unlock()

		composite.abort(reason)
		for _, cancel := range cs {
			cancel()
		}
	}

	for _, sig := range signals {
		if sig == nil {
			continue
		}
		// An already-aborted signal invokes fire synchronously here.
		cancel := sig.OnAbort(fire)
		mu.Lock()
		if fired {
			mu.Unlock()
			cancel()
			continue
		}
		cancels = append(cancels, cancel)
		mu.Unlock()
	}

	return composite
}

// FromContext adapts a [context.Context] into an [*AbortSignal]: the returned
// signal aborts (with ctx.Err() as its reason) the moment ctx is done. This is
// the idiomatic Go entry point into [Semaphore.WaitAbortable] for callers who
// already carry a context rather than an [*AbortController].
//
// If ctx is already done, the returned signal is aborted immediately and no
// goroutine is spawned. Otherwise a single goroutine watches ctx.Done() and
// exits as soon as it fires; it never outlives the signal's one abort.
func FromContext(ctx context.Context) *AbortSignal {
	signal := newAbortSignal()

	select {
	case <-ctx.Done():
		signal.abort(ctx.Err())
		return signal
	default:
	}

	go func() {
		<-ctx.Done()
		signal.abort(ctx.Err())
	}()

	return signal
}
