// Package semaphore error types with cause chain support.
package semaphore

import "fmt"

// TimeoutError represents a deadline or [Semaphore.WaitFor] duration that
// elapsed before a request could be satisfied.
type TimeoutError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "semaphore: timed out waiting for units"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is support, matching any other *TimeoutError.
func (e *TimeoutError) Is(target error) bool {
	_, ok := target.(*TimeoutError)
	return ok
}

// AbortedError represents a wait that failed because its [*AbortSignal]
// fired before the request could be satisfied.
type AbortedError struct {
	// Reason carries whatever value was passed to [AbortController.Abort].
	Reason  any
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *AbortedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if s, ok := e.Reason.(string); ok && s != "" {
		return "semaphore: aborted: " + s
	}
	if err, ok := e.Reason.(error); ok {
		return "semaphore: aborted: " + err.Error()
	}
	return "semaphore: wait aborted"
}

// Is implements errors.Is support, matching any other *AbortedError.
func (e *AbortedError) Is(target error) bool {
	_, ok := target.(*AbortedError)
	return ok
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
// If Cause is nil but Reason is itself an error, Reason is unwrapped instead.
func (e *AbortedError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	if err, ok := e.Reason.(error); ok {
		return err
	}
	return nil
}

// BrokenError represents the terminal failure state latched by
// [Semaphore.Broken]. Once a semaphore observes this error, every present and
// future wait fails with it until the semaphore is reconstructed.
type BrokenError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *BrokenError) Error() string {
	if e.Message == "" {
		return "semaphore: broken"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *BrokenError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is support, matching any other *BrokenError.
func (e *BrokenError) Is(target error) bool {
	_, ok := target.(*BrokenError)
	return ok
}

// InvalidArgumentError represents a handle operation ([UnitsHandle.ReturnUnits],
// [UnitsHandle.Split]) given a quantity outside the range the handle holds.
type InvalidArgumentError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	if e.Message == "" {
		return "semaphore: invalid argument"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *InvalidArgumentError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is support, matching any other *InvalidArgumentError.
func (e *InvalidArgumentError) Is(target error) bool {
	_, ok := target.(*InvalidArgumentError)
	return ok
}

// UsageViolationError represents a caught programming error: [UnitsHandle.Adopt]
// across two different semaphores, or [Semaphore.Close] while the leak
// detector still sees outstanding handles.
type UsageViolationError struct {
	Cause   error
	Message string
}

// Error implements the error interface.
func (e *UsageViolationError) Error() string {
	if e.Message == "" {
		return "semaphore: usage violation"
	}
	return e.Message
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *UsageViolationError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is support, matching any other *UsageViolationError.
func (e *UsageViolationError) Is(target error) bool {
	_, ok := target.(*UsageViolationError)
	return ok
}

// WrapError wraps an error with a message and optional cause chain.
// This is a convenience function for creating wrapped errors with cause.
//
// Pass the original error as cause:
//
//	WrapError("context failed", originalErr)
//
// The result satisfies errors.Is(result, originalErr) == true.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
