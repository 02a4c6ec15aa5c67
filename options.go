// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package semaphore

// semOptions holds configuration options for Semaphore creation.
type semOptions struct {
	policy         Policy
	clock          Clock
	logger         Logger
	exec           *Executor
	leakDetection  bool
	waiterPoolSize int
}

// --- Semaphore Options ---

// Option configures a Semaphore instance.
type Option interface {
	applySem(*semOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applySemFunc func(*semOptions) error
}

func (o *optionImpl) applySem(opts *semOptions) error {
	return o.applySemFunc(opts)
}

// WithPolicy sets the [Policy] used to manufacture timeout/aborted/broken
// errors. When omitted, [DefaultPolicy] is used.
func WithPolicy(p Policy) Option {
	return &optionImpl{func(opts *semOptions) error {
		opts.policy = p
		return nil
	}}
}

// WithClock overrides the [Clock] used by [Semaphore.WaitUntil] and
// [Semaphore.WaitFor]. When omitted, [RealClock] is used. Tests substitute a
// [clock.Mock] (see github.com/benbjohnson/clock) to drive timers
// deterministically.
func WithClock(c Clock) Option {
	return &optionImpl{func(opts *semOptions) error {
		opts.clock = c
		return nil
	}}
}

// WithLogger sets the [Logger] used for best-effort diagnostic messages
// (e.g. a leak-detector trip). When omitted, a no-op logger is used.
func WithLogger(l Logger) Option {
	return &optionImpl{func(opts *semOptions) error {
		opts.logger = l
		return nil
	}}
}

// WithExecutor attaches the semaphore to an existing [*Executor] instead of
// spawning a private one. Useful when many semaphores should share one
// execution context (and therefore one goroutine).
func WithExecutor(e *Executor) Option {
	return &optionImpl{func(opts *semOptions) error {
		opts.exec = e
		return nil
	}}
}

// WithLeakDetection enables the optional outstanding-handle diagnostic.
// When enabled, [Semaphore.Close] panics if any issued [*UnitsHandle] has not
// yet returned its units. Disabled by default.
func WithLeakDetection(enabled bool) Option {
	return &optionImpl{func(opts *semOptions) error {
		opts.leakDetection = enabled
		return nil
	}}
}

// WithWaiterPoolSize pre-warms the free list consulted by
// [Semaphore.EnsureSpaceForWaiters] at construction time.
func WithWaiterPoolSize(n int) Option {
	return &optionImpl{func(opts *semOptions) error {
		opts.waiterPoolSize = n
		return nil
	}}
}

// resolveSemOptions applies Option instances to semOptions.
func resolveSemOptions(opts []Option) (*semOptions, error) {
	cfg := &semOptions{
		policy: DefaultPolicy{},
		clock:  RealClock,
		logger: NewNoopLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applySem(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
