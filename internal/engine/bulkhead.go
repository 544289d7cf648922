package engine

import "sync/atomic"

// Bulkhead is a non-blocking, semaphore-style admission counter (spec.md
// §4.4). TryAcquire returns a release func on success; there is no FIFO
// queueing and no waiting — a Bulkhead enforces instantaneous capacity
// only. Grounded on the teacher's CAS-loop saturation-protected counters
// (internal/breaker/panic_recovery.go's safeIncrementCounter family) and
// its halfOpenRequests admission-limiting pattern, generalized into a
// standalone type any Circuit (or external caller) can use directly.
type Bulkhead struct {
	max     atomic.Uint32
	current atomic.Uint32
}

// NewBulkhead builds a Bulkhead with the given capacity.
func NewBulkhead(max uint32) *Bulkhead {
	b := &Bulkhead{}
	b.max.Store(max)
	return b
}

// SetMax adjusts the bulkhead's capacity in place, letting
// Circuit.UpdateSettings resize an already-constructed bulkhead without
// disturbing permits currently held.
func (b *Bulkhead) SetMax(max uint32) { b.max.Store(max) }

// TryAcquire attempts to reserve one permit. On success it returns a
// release func that must be called exactly once; ok is false if the
// bulkhead is at capacity.
func (b *Bulkhead) TryAcquire() (release func(), ok bool) {
	for {
		cur := b.current.Load()
		if cur >= b.max.Load() {
			return nil, false
		}
		if b.current.CompareAndSwap(cur, cur+1) {
			released := atomic.Bool{}
			return func() {
				if released.CompareAndSwap(false, true) {
					b.current.Add(^uint32(0)) // -1
				}
			}, true
		}
	}
}

// InFlight returns the current occupancy.
func (b *Bulkhead) InFlight() uint32 { return b.current.Load() }

// MaxConcurrent returns the configured capacity.
func (b *Bulkhead) MaxConcurrent() uint32 { return b.max.Load() }
