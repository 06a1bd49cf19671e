package clock

import "time"

// Epoch is the instant at which simulated time starts. Every run begins here
// so that recorded timestamps are comparable across runs.
var Epoch = time.Unix(0, 0).UTC()

// Clock yields the current simulated time. The event loop is the canonical
// implementation; tests may substitute a fixed or hand-advanced clock.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to the Clock interface.
type Func func() time.Time

// Now implements Clock.
func (f Func) Now() time.Time { return f() }

// Fixed returns a clock frozen at t.
func Fixed(t time.Time) Clock {
	return Func(func() time.Time { return t })
}
