// logging.go - logging seam for the semaphore package.
//
// Design Decision: a minimal [Logger] interface, kept deliberately small:
// this package only ever has a handful of best-effort diagnostic things to
// say (a leak-detector trip), not a general-purpose
// structured logging framework. Callers who want those lines routed into
// zap, logrus, logiface, or anything else implement Logger themselves; this
// package never takes a hard dependency on a specific backend.
package semaphore

import "log"

// Logger receives best-effort diagnostic messages from a [Semaphore].
// Implementations must not block or panic.
type Logger interface {
	Warnf(format string, args ...any)
}

// noopLogger discards everything.
type noopLogger struct{}

func (noopLogger) Warnf(string, ...any) {}

// NewNoopLogger returns a [Logger] that discards all messages. This is the
// default logger when [WithLogger] is not supplied.
func NewNoopLogger() Logger {
	return noopLogger{}
}

// stdLogger routes messages through the standard library's [log] package.
type stdLogger struct{}

func (stdLogger) Warnf(format string, args ...any) {
	log.Printf("WARNING: semaphore: "+format, args...)
}

// NewStdLogger returns a [Logger] backed by the standard library [log]
// package.
func NewStdLogger() Logger {
	return stdLogger{}
}

// funcLogger adapts a plain function into a [Logger].
type funcLogger func(string, ...any)

func (f funcLogger) Warnf(format string, args ...any) {
	f(format, args...)
}

// LoggerFunc adapts a func(format string, args ...any) into a [Logger].
func LoggerFunc(f func(format string, args ...any)) Logger {
	return funcLogger(f)
}

// warnf is a nil-safe helper so call sites never need to check for a nil
// Logger.
func warnf(l Logger, format string, args ...any) {
	if l == nil {
		return
	}
	l.Warnf(format, args...)
}
