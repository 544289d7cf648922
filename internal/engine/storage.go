package engine

import "time"

// StatusRecord is the minimum state needed to reconstitute a circuit across
// processes when a shared backend is used (spec.md §3).
type StatusRecord struct {
	State    State
	OpenedAt time.Time
	HasOpenedAt bool
}

// Storage is the pluggable event-accounting and status-persistence
// interface (spec.md §4.5). Implementations must be safe under concurrent
// access by multiple goroutines.
type Storage interface {
	RecordSuccess(name string, d time.Duration)
	RecordFailure(name string, d time.Duration, errInfo string)

	SuccessCount(name string, window time.Duration) int
	FailureCount(name string, window time.Duration) int

	GetStatus(name string) (StatusRecord, bool)
	SetStatus(name string, rec StatusRecord)

	Clear(name string)
	ClearAll()

	// EventLog returns up to limit most-recent events for name. Order is
	// backend-specific and documented on each implementation.
	EventLog(name string, limit int) []Event
}

// storageKey returns the persisted key prefix scheme from spec.md §6:
// "{prefix}{circuit_name}:status" etc. Exported for backends and the
// external examples/*_backend reference adapters.
func StatusKey(prefix, name string) string  { return prefix + name + ":status" }
func SuccessKey(prefix, name string) string { return prefix + name + ":success_count" }
func FailureKey(prefix, name string) string { return prefix + name + ":failure_count" }
func OpenedAtKey(prefix, name string) string { return prefix + name + ":opened_at" }

// StatusString renders State as one of "closed"|"open"|"half_open" per the
// persisted status value format in spec.md §6.
func StatusString(s State) string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}
