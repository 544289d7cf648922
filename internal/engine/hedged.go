package engine

import (
	"context"
	"time"
)

// RunHedged implements the staggered-parallel executor of spec.md §4.3: the
// primary attempt starts immediately; every delay thereafter, if nothing
// has yet succeeded, another attempt starts, up to maxRequests. The first
// non-erroring completion wins; the rest are allowed to finish but
// discarded. If every started attempt errors, the last exception
// propagates and counts as exactly one failure for the caller — the
// per-attempt bookkeeping is the caller's job (Circuit classifies the
// overall outcome once, not per-hedge-attempt).
//
// No teacher equivalent exists (the teacher is single-attempt only); this
// is grounded directly on the scheduling contract in spec.md §4.3, using
// plain goroutines and a time.Ticker the way the rest of this package
// favors explicit primitives over a worker-pool library.
func RunHedged(ctx context.Context, delay time.Duration, maxRequests int, backends []func() (any, error)) (any, error) {
	if len(backends) == 0 {
		return nil, &ConfigurationError{Message: "RunHedged requires at least one backend"}
	}
	if maxRequests <= 0 || maxRequests > len(backends) {
		maxRequests = len(backends)
	}

	type outcome struct {
		v   any
		err error
	}
	results := make(chan outcome, maxRequests)
	started := 0

	launch := func() {
		fn := backends[started]
		started++
		go func() {
			v, err := fn()
			select {
			case results <- outcome{v, err}:
			case <-ctx.Done():
			}
		}()
	}

	launch() // attempt #1 starts immediately

	var ticker *time.Ticker
	var tickCh <-chan time.Time
	if delay > 0 && maxRequests > 1 {
		ticker = time.NewTicker(delay)
		defer ticker.Stop()
		tickCh = ticker.C
	}

	var lastErr error
	completed := 0
	for completed < maxRequests {
		select {
		case o := <-results:
			completed++
			if o.err == nil {
				return o.v, nil
			}
			lastErr = o.err
		case <-tickCh:
			if started < maxRequests {
				launch()
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
