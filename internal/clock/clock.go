// Package clock abstracts wall-clock time so deadline, liveness, and pacing
// logic stays testable.
package clock

import "time"

// Clock hands out the current instant. Components take it as a dependency
// instead of calling time.Now directly.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the real wall clock.
func System() Clock { return systemClock{} }

// Fixed is a Clock pinned to a settable instant, for tests.
type Fixed struct {
	Instant time.Time
}

// Now returns the pinned instant.
func (f *Fixed) Now() time.Time { return f.Instant }

// Advance moves the pinned instant forward.
func (f *Fixed) Advance(d time.Duration) { f.Instant = f.Instant.Add(d) }
