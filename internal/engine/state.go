package engine

// State represents a Circuit's position in the Closed/Open/HalfOpen
// machine (spec.md §4.1).
type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// handleStateTransition applies the outcome of a completed attempt to the
// state machine. Grounded on the teacher's handleStateTransition
// (internal/breaker/state.go), generalized to spec.md §4.1's success-
// threshold-gated HalfOpen→Closed transition (the teacher closes on the
// first half-open success; spec.md requires N consecutive successes).
func (c *Circuit) handleStateTransition(success bool, currentState State) {
	switch currentState {
	case StateClosed:
		if !success {
			c.checkAndTripCircuit()
		}
	case StateHalfOpen:
		if success {
			if c.halfOpenSuccesses.Add(1) >= int32(c.cfg().SuccessThreshold) {
				c.transitionToClosed()
			}
		} else {
			c.transitionBackToOpen()
		}
	}
}

// checkAndTripCircuit evaluates the configured trip condition (spec.md
// §4.2.5) and transitions Closed→Open if it is met.
func (c *Circuit) checkAndTripCircuit() {
	if !c.shouldTrip() {
		return
	}
	if !c.state.CompareAndSwap(int32(StateClosed), int32(StateOpen)) {
		return
	}
	c.enterOpen(StateClosed)
}

// shouldTrip implements the two trip modes from spec.md §4.2.5.
func (c *Circuit) shouldTrip() bool {
	window := c.cfg().FailureWindow
	failures := c.cfg().Storage.FailureCount(c.cfg().Name, window)
	if c.cfg().rateMode() {
		successes := c.cfg().Storage.SuccessCount(c.cfg().Name, window)
		total := successes + failures
		if uint32(total) < c.cfg().MinimumCalls {
			return false
		}
		return float64(failures)/float64(total) >= c.cfg().FailureRate
	}
	return uint32(failures) >= c.cfg().FailureThreshold
}

// enterOpen samples a fresh jittered reset timeout, snapshots opened_at,
// resets half-open counters, and fires on_open — shared by the Closed→Open
// and HalfOpen→Open paths (spec.md §4.1 "On entry to Open").
func (c *Circuit) enterOpen(from State) {
	c.openedAt.Store(c.cfg().Clock.Monotonic())
	c.effectiveResetTimeout.Store(int64(c.jitteredResetTimeout()))
	c.halfOpenAttempts.Store(0)
	c.halfOpenSuccesses.Store(0)
	c.recorder.Opened(c.cfg().Name)
	c.safeCallback(func() {
		if c.cfg().OnOpen != nil {
			c.cfg().OnOpen(c.cfg().Name)
		}
	})
	c.onEnterOpen()
}

// shouldTransitionToHalfOpen reports whether enough jittered time has
// elapsed since Open entry, per spec.md §8's quantified invariant.
func (c *Circuit) shouldTransitionToHalfOpen() bool {
	openedAt := c.openedAt.Load()
	if openedAt == 0 {
		return false
	}
	elapsed := c.cfg().Clock.Monotonic() - openedAt
	return elapsed >= c.effectiveResetTimeout.Load()
}

// attemptRecovery transitions Open→HalfOpen if the timeout has elapsed and
// the dependency guard (overridden by CoordinatedCircuit) passes.
func (c *Circuit) attemptRecovery() bool {
	if !c.shouldTransitionToHalfOpen() {
		return false
	}
	if !c.dependencyGuardOK() {
		return false
	}
	if !c.state.CompareAndSwap(int32(StateOpen), int32(StateHalfOpen)) {
		return c.State() == StateHalfOpen
	}
	c.halfOpenAttempts.Store(0)
	c.halfOpenSuccesses.Store(0)
	c.recorder.HalfOpened(c.cfg().Name)
	c.safeCallback(func() {
		if c.cfg().OnHalfOpen != nil {
			c.cfg().OnHalfOpen(c.cfg().Name)
		}
	})
	return true
}

func (c *Circuit) transitionToClosed() {
	if !c.state.CompareAndSwap(int32(StateHalfOpen), int32(StateClosed)) {
		return
	}
	c.openedAt.Store(0)
	c.cfg().Storage.Clear(c.cfg().Name)
	c.recorder.Closed(c.cfg().Name)
	c.safeCallback(func() {
		if c.cfg().OnClose != nil {
			c.cfg().OnClose(c.cfg().Name)
		}
	})
}

func (c *Circuit) transitionBackToOpen() {
	if !c.state.CompareAndSwap(int32(StateHalfOpen), int32(StateOpen)) {
		return
	}
	c.enterOpen(StateHalfOpen)
}

// Reset implements the manual `reset` operation (spec.md §4.1): Open or
// HalfOpen → Closed, guarded by dependencies for CoordinatedCircuit.
func (c *Circuit) Reset() error {
	if !c.dependencyGuardOK() {
		return &CircuitDependencyError{Name: c.cfg().Name, Unmet: c.unmetDependencies()}
	}
	old := State(c.state.Swap(int32(StateClosed)))
	if old != StateClosed {
		c.openedAt.Store(0)
		c.cfg().Storage.Clear(c.cfg().Name)
		c.recorder.Closed(c.cfg().Name)
	}
	return nil
}

// ForceOpen implements the manual `force_open` operation — never guarded.
func (c *Circuit) ForceOpen() {
	old := State(c.state.Swap(int32(StateOpen)))
	c.enterOpen(old)
}

// HardReset implements spec.md's `hard_reset`: Closed from any state,
// clears all counters and storage, never denied by guards.
func (c *Circuit) HardReset() {
	c.state.Store(int32(StateClosed))
	c.openedAt.Store(0)
	c.halfOpenAttempts.Store(0)
	c.halfOpenSuccesses.Store(0)
	c.cfg().Storage.Clear(c.cfg().Name)
	c.recorder.Closed(c.cfg().Name)
}

// dependencyGuardOK is overridden by CoordinatedCircuit; the base Circuit
// has no dependencies so it always passes.
func (c *Circuit) dependencyGuardOK() bool {
	if c.guard == nil {
		return true
	}
	return c.guard.dependencyGuardOK()
}

func (c *Circuit) unmetDependencies() []string {
	if c.guard == nil {
		return nil
	}
	return c.guard.unmetDependencies()
}

// onEnterOpen is overridden by CascadingCircuit to propagate downstream.
func (c *Circuit) onEnterOpen() {
	if c.guard != nil {
		c.guard.onEnterOpen()
	}
}
