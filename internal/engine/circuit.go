package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// circuitGuard lets CoordinatedCircuit/CascadingCircuit hook into the base
// Circuit's transition points without the base type needing to know about
// dependency graphs. Grounded on spec.md §9's guidance to resolve cascades
// "as names resolved through the Registry at transition time" rather than
// through shared-ownership edges in memory.
type circuitGuard interface {
	dependencyGuardOK() bool
	unmetDependencies() []string
	onEnterOpen()
}

// Circuit wraps a protected operation and enforces the Closed/Open/HalfOpen
// state machine (spec.md §4.2). Grounded on the teacher's CircuitBreaker
// (internal/breaker/circuitbreaker.go): atomic fields exclusively, no
// lock contention on the hot path. Unlike the teacher, per-call counting
// is delegated to Settings.Storage rather than kept as atomic fields here,
// so Storage backends (Memory/BucketMemory/Null/external) are the single
// source of truth for trip decisions.
type Circuit struct {
	settings atomic.Pointer[Settings] // swapped whole, never mutated in place
	recorder *Recorder
	guard    circuitGuard // nil for a plain Circuit

	state atomic.Int32

	openedAt              atomic.Int64 // monotonic ns, 0 = never opened
	effectiveResetTimeout atomic.Int64 // ns, sampled fresh per Open entry

	halfOpenAttempts  atomic.Int32
	halfOpenSuccesses atomic.Int32

	bulkhead *Bulkhead // nil when MaxConcurrent == 0
}

// New constructs a Circuit. Settings are validated and defaulted; an
// invalid configuration returns a *ConfigurationError rather than
// panicking, so library callers can handle bad config from e.g. a
// hot-reloaded Template without crashing the process.
func New(settings Settings) (*Circuit, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}
	settings.applyDefaults()

	c := &Circuit{
		recorder: NewRecorder(settings.Logger),
	}
	c.settings.Store(&settings)
	if settings.MaxConcurrent > 0 {
		c.bulkhead = NewBulkhead(settings.MaxConcurrent)
	}
	return c, nil
}

// cfg returns the currently active Settings. Reads are lock-free and always
// observe a fully-formed Settings value — UpdateSettings swaps the pointer
// rather than mutating fields in place, so there is no tearing.
func (c *Circuit) cfg() *Settings { return c.settings.Load() }

// Name returns the circuit's identity.
func (c *Circuit) Name() string { return c.cfg().Name }

// State returns the current state.
func (c *Circuit) State() State { return State(c.state.Load()) }

// InFlight returns the current bulkhead occupancy (0 if no bulkhead).
func (c *Circuit) InFlight() uint32 {
	if c.bulkhead == nil {
		return 0
	}
	return c.bulkhead.InFlight()
}

func (c *Circuit) jitteredResetTimeout() time.Duration {
	base := c.cfg().ResetTimeout
	jp := c.cfg().ResetTimeoutJitter
	if jp == nil || *jp == 0 {
		return base
	}
	j := *jp
	// factor in [1-j, 1+j]
	factor := 1 + (rand.Float64()*2-1)*j
	return time.Duration(float64(base) * factor)
}

// safeCallback recovers a panicking user callback, logging it rather than
// letting it escape — callback exceptions must never prevent a transition
// nor leak to the caller (spec.md §4.1).
func (c *Circuit) safeCallback(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.recorder.log.Warn("circuit callback panicked", "circuit", c.cfg().Name, "panic", r)
		}
	}()
	fn()
}

// Execute runs fn under the circuit's admission and accounting rules, with
// no cooperative deadline. Equivalent to ExecuteContext(context.Background(), fn).
func (c *Circuit) Execute(fn func() (any, error)) (any, error) {
	return c.ExecuteContext(context.Background(), fn)
}

// ExecuteContext implements the full wrap/call algorithm of spec.md §4.2.
func (c *Circuit) ExecuteContext(ctx context.Context, fn func() (any, error)) (any, error) {
	if ok, rejectErr := c.admit(); !ok {
		c.recorder.Rejected(c.cfg().Name)
		c.safeCallback(func() {
			if c.cfg().OnReject != nil {
				c.cfg().OnReject(c.cfg().Name)
			}
		})
		return c.runFallback(rejectErr)
	}

	if c.bulkhead != nil {
		release, ok := c.bulkhead.TryAcquire()
		if !ok {
			berr := &CircuitBulkheadError{Name: c.cfg().Name, MaxConcurrent: c.cfg().MaxConcurrent}
			c.recorder.BulkheadRejected(c.cfg().Name, c.cfg().MaxConcurrent)
			// Bulkhead rejection is never counted as a circuit failure and
			// never routed through fallback — it's a load-shedding signal.
			return nil, berr
		}
		defer release()
	}

	if c.cfg().Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg().Timeout)
		defer cancel()
	}

	t0 := c.cfg().Clock.Monotonic()

	var result any
	var err error
	var panicked any
	if c.cfg().Hedged.Enabled && len(c.cfg().Backends) > 0 {
		result, err = RunHedged(ctx, c.cfg().Hedged.Delay, c.cfg().Hedged.MaxRequests, c.cfg().Backends)
	} else {
		result, err, panicked = c.runProtected(ctx, fn)
	}
	d := time.Duration(c.cfg().Clock.Monotonic() - t0)

	if ctx.Err() != nil && err != nil && panicked == nil {
		// Cooperative cancellation is not counted toward success/failure —
		// it reflects the caller giving up, not the dependency failing.
		if c.cfg().Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, &CircuitTimeoutError{Name: c.cfg().Name, Deadline: c.cfg().Timeout.String()}
		}
		return result, err
	}

	if panicked != nil {
		c.recordFailure(d, "panic")
		panic(panicked)
	}

	return c.classify(result, err, d)
}

// runProtected executes fn with panic-as-failure recovery, matching the
// teacher's Execute closure (internal/breaker/circuitbreaker.go): a panic
// is recorded as a tracked failure and re-raised to the caller once
// bookkeeping completes.
func (c *Circuit) runProtected(ctx context.Context, fn func() (any, error)) (result any, err error, panicked any) {
	done := make(chan struct{})
	go func() {
		defer func() {
			if r := recover(); r != nil {
				panicked = r
			}
			close(done)
		}()
		result, err = fn()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Advisory only: we stop waiting here, but never forcibly terminate
		// the goroutine (spec.md's "MUST NOT forcibly terminate in-flight
		// work") — fn keeps running to completion and its eventual result
		// is discarded.
		return nil, ctx.Err(), nil
	}
	return result, err, panicked
}

// admit implements state-peek admission (spec.md §4.2 step 1).
func (c *Circuit) admit() (bool, error) {
	switch c.State() {
	case StateOpen:
		if !c.attemptRecovery() {
			return false, &CircuitOpenError{Name: c.cfg().Name}
		}
		fallthrough
	case StateHalfOpen:
		if c.halfOpenAttempts.Add(1) > int32(c.cfg().HalfOpenCalls) {
			return false, &CircuitOpenError{Name: c.cfg().Name}
		}
	}
	return true, nil
}

func (c *Circuit) classify(result any, err error, d time.Duration) (any, error) {
	tracked := err != nil && c.cfg().IsTracked(err)

	if !tracked {
		// Success path, OR an untracked error that passes through uncounted.
		c.recordSuccess(d)
		return result, err
	}

	errClass := errorClass(err)
	c.recordFailureErr(d, errClass, err)
	if fbResult, fbErr, handled := c.maybeFallback(err); handled {
		return fbResult, fbErr
	}
	return result, err
}

func (c *Circuit) recordSuccess(d time.Duration) {
	c.cfg().Storage.RecordSuccess(c.cfg().Name, d)
	c.recorder.Success(c.cfg().Name, d)
	c.safeCallback(func() {
		if c.cfg().OnSuccess != nil {
			c.cfg().OnSuccess(c.cfg().Name, d)
		}
	})
	c.handleStateTransition(true, c.State())
}

func (c *Circuit) recordFailure(d time.Duration, errClass string) {
	c.recordFailureErr(d, errClass, nil)
}

func (c *Circuit) recordFailureErr(d time.Duration, errClass string, err error) {
	c.cfg().Storage.RecordFailure(c.cfg().Name, d, errClass)
	c.recorder.Failure(c.cfg().Name, d, errClass)
	c.safeCallback(func() {
		if c.cfg().OnFailure != nil {
			c.cfg().OnFailure(c.cfg().Name, d, err)
		}
	})
	c.handleStateTransition(false, c.State())
}

func errorClass(err error) string {
	if err == nil {
		return ""
	}
	return typeName(err)
}

// maybeFallback is invoked after bookkeeping for a tracked failure. handled
// reports whether a fallback ran (whether or not it itself errored).
func (c *Circuit) maybeFallback(err error) (any, error, bool) {
	if c.cfg().Fallback.Kind == FallbackNone {
		return nil, nil, false
	}
	v, fbErr := c.runFallback(err)
	return v, fbErr, true
}

// runFallback evaluates the configured Fallback for a rejection (err may be
// *CircuitOpenError) or a tracked failure, per spec.md §4.2's fallback
// kinds.
func (c *Circuit) runFallback(err error) (any, error) {
	switch c.cfg().Fallback.Kind {
	case FallbackNone:
		return nil, err
	case FallbackScalar:
		return c.cfg().Fallback.Value, nil
	case FallbackCallable:
		return c.cfg().Fallback.Fn(err)
	case FallbackList:
		return runFallbackList(c.cfg().Fallback.Chain, err)
	case FallbackParallel:
		return runFallbackParallel(c.cfg().Fallback.Chain, err)
	default:
		return nil, err
	}
}

func runFallbackList(chain []func(err error) (any, error), err error) (any, error) {
	var lastErr error = err
	for _, fn := range chain {
		v, fnErr := fn(lastErr)
		if fnErr == nil {
			return v, nil
		}
		lastErr = fnErr
	}
	return nil, lastErr
}

// runFallbackParallel races all chain entries; the first non-error
// completion wins. If all fail, the last-seen error propagates (spec.md
// §9 Open Question: "last-seen" chosen for reproducibility). Surviving
// in-flight work is allowed to complete; its result is discarded.
func runFallbackParallel(chain []func(err error) (any, error), err error) (any, error) {
	if len(chain) == 0 {
		return nil, err
	}
	type outcome struct {
		v   any
		err error
	}
	results := make(chan outcome, len(chain))
	for _, fn := range chain {
		fn := fn
		go func() {
			v, fnErr := fn(err)
			results <- outcome{v, fnErr}
		}()
	}

	var lastErr error = err
	for i := 0; i < len(chain); i++ {
		o := <-results
		if o.err == nil {
			return o.v, nil
		}
		lastErr = o.err
	}
	return nil, lastErr
}
