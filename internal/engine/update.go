package engine

// UpdateSettings applies a partial, validated patch to a running Circuit.
// Grounded on the teacher's UpdateSettings (internal/breaker/update.go):
// every non-nil field is validated before any of them are applied (an
// invalid patch changes nothing), and the whole result is swapped in as one
// Settings value rather than mutated field-by-field, so a concurrent
// ExecuteContext call never observes a half-applied patch.
//
// Smart-reset mirrors the teacher: narrowing FailureWindow or FailureRate
// while Closed clears accumulated counts, since they were gathered under
// the old window and would otherwise misrepresent the new one. Changing
// ResetTimeout while Open restarts the effective deadline from now, so an
// operator relaxing the timeout doesn't have to wait out the old one first.
func (c *Circuit) UpdateSettings(update SettingsUpdate) error {
	current := *c.cfg()
	next := current
	applyUpdate(&next, update)

	if err := next.validate(); err != nil {
		return err
	}
	// A bulkhead that didn't exist at construction can't be added later
	// without a data race against the unsynchronized read in
	// ExecuteContext; resizing one that already exists is safe (Bulkhead's
	// own fields are atomic).
	if update.MaxConcurrent != nil && next.MaxConcurrent > 0 && c.bulkhead == nil {
		return &ConfigurationError{Message: "MaxConcurrent cannot be enabled on a circuit constructed without a bulkhead"}
	}

	resetCounts := (update.FailureWindow != nil || update.FailureRate != nil) && c.State() == StateClosed
	resetDeadline := update.ResetTimeout != nil && c.State() == StateOpen

	c.settings.Store(&next)

	if c.bulkhead != nil && next.MaxConcurrent > 0 {
		c.bulkhead.SetMax(next.MaxConcurrent)
	}

	if resetCounts {
		next.Storage.Clear(next.Name)
	}
	if resetDeadline {
		c.openedAt.Store(next.Clock.Monotonic())
		c.effectiveResetTimeout.Store(int64(c.jitteredResetTimeout()))
	}
	return nil
}

// applyUpdate copies every non-nil field of update onto s.
func applyUpdate(s *Settings, update SettingsUpdate) {
	if update.FailureThreshold != nil {
		s.FailureThreshold = *update.FailureThreshold
	}
	if update.FailureWindow != nil {
		s.FailureWindow = *update.FailureWindow
	}
	if update.FailureRate != nil {
		s.FailureRate = *update.FailureRate
	}
	if update.MinimumCalls != nil {
		s.MinimumCalls = *update.MinimumCalls
	}
	if update.SuccessThreshold != nil {
		s.SuccessThreshold = *update.SuccessThreshold
	}
	if update.HalfOpenCalls != nil {
		s.HalfOpenCalls = *update.HalfOpenCalls
	}
	if update.ResetTimeout != nil {
		s.ResetTimeout = *update.ResetTimeout
	}
	if update.ResetTimeoutJitter != nil {
		s.ResetTimeoutJitter = update.ResetTimeoutJitter
	}
	if update.Timeout != nil {
		s.Timeout = *update.Timeout
	}
	if update.MaxConcurrent != nil {
		s.MaxConcurrent = *update.MaxConcurrent
	}
}
