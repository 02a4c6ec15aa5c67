package semaphore

import "github.com/benbjohnson/clock"

// Clock is the monotonic time source consumed by [Semaphore.WaitUntil] and
// [Semaphore.WaitFor]. It is an alias of the [clock.Clock] interface from
// github.com/benbjohnson/clock, which this package adopts wholesale rather
// than hand-rolling a timer abstraction: tests substitute *clock.Mock to
// drive deadline races deterministically (see semaphore_test.go), and
// production code uses [RealClock].
type Clock = clock.Clock

// Timer is the one-shot callback primitive a [Clock] arms. It is an alias of
// clock.Timer, which both the real and the mock clock return from AfterFunc.
type Timer = clock.Timer

// RealClock is the default, wall-clock-backed [Clock] used when
// [WithClock] is not supplied.
var RealClock Clock = clock.New()
