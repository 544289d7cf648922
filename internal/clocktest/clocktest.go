// Package clocktest provides a deterministic engine.Clock implementation
// for tests, so reset-timeout/jitter/window behavior can be verified
// without real sleeps. Grounded on the Clock abstraction spec.md §9 calls
// for ("abstract Deadline handle... bound to whatever cancellation
// primitive the host provides"), generalized slightly to also cover wall
// time for status timestamps.
package clocktest

import "time"

// Fake is a Clock advanced only by calling Advance — never by the wall
// clock. Implements github.com/fenwick-labs/breaker/internal/engine.Clock
// structurally (Now() time.Time, Monotonic() int64) without importing it,
// to avoid an import cycle with engine's own tests.
type Fake struct {
	now       time.Time
	monotonic int64
}

// New builds a Fake starting at t.
func New(t time.Time) *Fake {
	return &Fake{now: t}
}

func (f *Fake) Now() time.Time   { return f.now }
func (f *Fake) Monotonic() int64 { return f.monotonic }

// Advance moves both the wall clock and the monotonic counter forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.now = f.now.Add(d)
	f.monotonic += int64(d)
}
