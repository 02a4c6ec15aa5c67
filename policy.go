package semaphore

// Policy manufactures the three error kinds a [Semaphore] produces on a
// failed wait: timeout, aborted, and broken. A Policy need not implement all
// three methods directly — [Semaphore] checks for each capability separately
// against the three single-method interfaces below ([TimeoutErrorer],
// [AbortedErrorer], [BrokenErrorer]) and falls back to the matching
// [DefaultPolicy] method for whichever is missing. This is the same optional-
// interface detection idiom the standard library uses for io.ReaderFrom/
// io.WriterTo, chosen over reflection because it is cheap, static, and
// requires no runtime method lookup.
type Policy interface {
	Timeout() error
	Aborted(reason any) error
	Broken(cause error) error
}

// TimeoutErrorer is the narrow capability a custom policy may implement to
// override the timeout error, without also implementing Aborted/Broken.
type TimeoutErrorer interface {
	Timeout() error
}

// AbortedErrorer is the narrow capability a custom policy may implement to
// override the aborted error.
type AbortedErrorer interface {
	Aborted(reason any) error
}

// BrokenErrorer is the narrow capability a custom policy may implement to
// override the broken error.
type BrokenErrorer interface {
	Broken(cause error) error
}

// DefaultPolicy produces the package's default error values. It is used for
// any Policy capability a caller-supplied policy does not implement, and as
// the zero-value policy when [WithPolicy] is never supplied.
type DefaultPolicy struct{}

// Timeout returns the default [*TimeoutError].
func (DefaultPolicy) Timeout() error {
	return &TimeoutError{}
}

// Aborted returns the default [*AbortedError] carrying reason.
func (DefaultPolicy) Aborted(reason any) error {
	return &AbortedError{Reason: reason}
}

// Broken returns the default [*BrokenError] wrapping cause, or a bare
// [*BrokenError] if cause is nil.
func (DefaultPolicy) Broken(cause error) error {
	return &BrokenError{Cause: cause}
}

// resolvePolicy normalizes p (which may be nil or only partially implement
// Policy) into a fully-populated Policy, falling back to DefaultPolicy for
// any missing capability.
func resolvePolicy(p Policy) Policy {
	if p == nil {
		return DefaultPolicy{}
	}
	if _, ok := p.(DefaultPolicy); ok {
		return p
	}
	return &detectedPolicy{p: p}
}

// detectedPolicy wraps a caller-supplied Policy, routing each method to p
// when p implements the corresponding narrow interface, and to DefaultPolicy
// otherwise. Because Policy itself requires all three methods, in practice
// every concrete Policy value satisfies every narrow interface too — this
// wrapper exists so that callers who embed DefaultPolicy and override only
// one method still get a safe value if a future method is ever added to the
// Policy interface without a corresponding implementation.
type detectedPolicy struct {
	p Policy
}

// Timeout returns t.Timeout()'s result, falling back to DefaultPolicy if the
// narrow interface isn't implemented or the call panics — a policy bug must
// never derail the semaphore's own invariants.
func (d *detectedPolicy) Timeout() (err error) {
	t, ok := d.p.(TimeoutErrorer)
	if !ok {
		return DefaultPolicy{}.Timeout()
	}
	defer func() {
		if recover() != nil {
			err = DefaultPolicy{}.Timeout()
		}
	}()
	return t.Timeout()
}

func (d *detectedPolicy) Aborted(reason any) (err error) {
	a, ok := d.p.(AbortedErrorer)
	if !ok {
		return DefaultPolicy{}.Aborted(reason)
	}
	defer func() {
		if recover() != nil {
			err = DefaultPolicy{}.Aborted(reason)
		}
	}()
	return a.Aborted(reason)
}

func (d *detectedPolicy) Broken(cause error) (err error) {
	b, ok := d.p.(BrokenErrorer)
	if !ok {
		return DefaultPolicy{}.Broken(cause)
	}
	defer func() {
		if recover() != nil {
			err = DefaultPolicy{}.Broken(cause)
		}
	}()
	return b.Broken(cause)
}
