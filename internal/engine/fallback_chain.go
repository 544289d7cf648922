package engine

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ChainBackend names one storage-like collaborator in a FallbackChain.
// Op receives a context already scoped to the per-backend time budget.
type ChainBackend struct {
	Name    string
	Timeout time.Duration
	Op      func(ctx context.Context) (any, error)
}

type backendHealth struct {
	mu            sync.Mutex
	failureCount  int
	unhealthyUntil time.Time
}

// FallbackChain wraps an ordered list of backends with a per-backend
// mini-breaker (spec.md §4.6). No teacher equivalent exists; grounded on
// oriys-nova/internal/store's one-type-per-backend convention for the
// backend shape, and on the teacher's CAS-guarded counters for the
// per-backend failure bookkeeping.
type FallbackChain struct {
	name                     string
	backends                 []ChainBackend
	breakerThreshold         int
	breakerTimeout           time.Duration
	clock                    Clock
	recorder                 *Recorder
	mu                       sync.Mutex
	health                   map[string]*backendHealth
}

// FallbackChainOption customizes NewFallbackChain defaults.
type FallbackChainOption func(*FallbackChain)

// WithChainBreaker overrides the default mini-breaker threshold (3 failures)
// and unhealthy duration (30s) from spec.md §4.6.
func WithChainBreaker(threshold int, unhealthyFor time.Duration) FallbackChainOption {
	return func(fc *FallbackChain) {
		fc.breakerThreshold = threshold
		fc.breakerTimeout = unhealthyFor
	}
}

// NewFallbackChain builds a FallbackChain over backends, tried in order.
func NewFallbackChain(name string, backends []ChainBackend, clock Clock, logger *Recorder, opts ...FallbackChainOption) *FallbackChain {
	if clock == nil {
		clock = defaultClock
	}
	if logger == nil {
		logger = NewRecorder(nil)
	}
	fc := &FallbackChain{
		name:             name,
		backends:         backends,
		breakerThreshold: 3,
		breakerTimeout:   30 * time.Second,
		clock:            clock,
		recorder:         logger,
		health:           make(map[string]*backendHealth),
	}
	for _, o := range opts {
		o(fc)
	}
	return fc
}

func (fc *FallbackChain) healthFor(backend string) *backendHealth {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	h, ok := fc.health[backend]
	if !ok {
		h = &backendHealth{}
		fc.health[backend] = h
	}
	return h
}

// Run executes op against each backend in order, skipping unhealthy ones,
// under each backend's own time budget. Returns StorageError if every
// backend is skipped or fails.
func (fc *FallbackChain) Run(ctx context.Context) (any, error) {
	var attempted []string
	var lastErr error
	for i, b := range fc.backends {
		h := fc.healthFor(b.Name)
		h.mu.Lock()
		unhealthy := !h.unhealthyUntil.IsZero() && fc.clock.Now().Before(h.unhealthyUntil)
		h.mu.Unlock()
		if unhealthy {
			continue
		}

		attempted = append(attempted, b.Name)
		backendCtx := ctx
		var cancel context.CancelFunc
		if b.Timeout > 0 {
			backendCtx, cancel = context.WithTimeout(ctx, b.Timeout)
		}
		t0 := fc.clock.Monotonic()
		v, err := b.Op(backendCtx)
		if cancel != nil {
			cancel()
		}
		d := time.Duration(fc.clock.Monotonic() - t0)

		if err == nil {
			fc.recorder.StorageOperation(fc.name, b.Name, i, d, true)
			fc.resetHealth(b.Name)
			fc.recorder.StorageChainOperation(fc.name, attempted, true)
			return v, nil
		}

		if b.Timeout > 0 && errors.Is(err, context.DeadlineExceeded) {
			err = &StorageTimeoutError{Backend: b.Name, Budget: b.Timeout.String()}
		}
		lastErr = err

		fc.recorder.StorageOperation(fc.name, b.Name, i, d, false)
		next := ""
		if i+1 < len(fc.backends) {
			next = fc.backends[i+1].Name
		}
		fc.recorder.StorageFallback(fc.name, b.Name, next, typeName(err))
		fc.markFailure(b.Name)
	}
	fc.recorder.StorageChainOperation(fc.name, attempted, false)
	if lastErr == nil {
		lastErr = &ConfigurationError{Message: "all backends exhausted"}
	}
	return nil, &StorageError{Op: "chain_run", Err: lastErr}
}

func (fc *FallbackChain) markFailure(backend string) {
	h := fc.healthFor(backend)
	h.mu.Lock()
	h.failureCount++
	trip := h.failureCount >= fc.breakerThreshold
	if trip {
		h.unhealthyUntil = fc.clock.Now().Add(fc.breakerTimeout)
	}
	h.mu.Unlock()
	if trip {
		fc.recorder.StorageBackendHealth(fc.name, backend, true)
	}
}

func (fc *FallbackChain) resetHealth(backend string) {
	h := fc.healthFor(backend)
	h.mu.Lock()
	wasUnhealthy := !h.unhealthyUntil.IsZero()
	h.failureCount = 0
	h.unhealthyUntil = time.Time{}
	h.mu.Unlock()
	if wasUnhealthy {
		fc.recorder.StorageBackendHealth(fc.name, backend, false)
	}
}
