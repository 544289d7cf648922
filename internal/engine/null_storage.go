package engine

import "time"

// Null is the no-op Storage backend (spec.md §4.5). All writes no-op, all
// counts return 0, status setters discard. Used when only the state
// machine's reject/pass behavior matters and metrics are collected
// externally — e.g. the dependency guard fast-path tests.
type Null struct{}

func (Null) RecordSuccess(string, time.Duration)         {}
func (Null) RecordFailure(string, time.Duration, string) {}
func (Null) SuccessCount(string, time.Duration) int      { return 0 }
func (Null) FailureCount(string, time.Duration) int      { return 0 }
func (Null) GetStatus(string) (StatusRecord, bool)       { return StatusRecord{}, false }
func (Null) SetStatus(string, StatusRecord)              {}
func (Null) Clear(string)                                {}
func (Null) ClearAll()                                   {}
func (Null) EventLog(string, int) []Event                { return nil }
