package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event names. These must match spec exactly — external observers (tests,
// metric bridges) key off the literal strings.
const (
	EventOpened          = "breaker_machines.opened"
	EventClosed          = "breaker_machines.closed"
	EventHalfOpened      = "breaker_machines.half_opened"
	EventRejected        = "breaker_machines.rejected"
	EventSuccess         = "breaker_machines.success"
	EventFailure         = "breaker_machines.failure"
	EventBulkheadReject  = "breaker_machines.bulkhead_rejected"
	EventStorageOp       = "storage_operation.breaker_machines"
	EventStorageFallback = "storage_fallback.breaker_machines"
	EventStorageHealth   = "storage_backend_health.breaker_machines"
	EventStorageChainOp  = "storage_chain_operation.breaker_machines"
)

// EventKind distinguishes an accounted Success/Failure event from the
// ancillary record kept only for the event log.
type EventKind int

const (
	EventSuccessKind EventKind = iota
	EventFailureKind
)

// Event is an immutable record of a single circuit outcome. It backs the
// Storage event log; counting logic consumes Kind and Timestamp only.
// CorrelationID lets an operator trace one outcome across a Storage
// backend's event log and the structured log lines Recorder emits for the
// same call.
type Event struct {
	Kind          EventKind
	Timestamp     int64 // monotonic nanoseconds, per Clock.Monotonic
	Duration      time.Duration
	ErrorClass    string
	Message       string
	State         State
	CorrelationID string
}

// newCorrelationID generates the id stamped onto each Event recorded
// through RecordSuccess/RecordFailure.
func newCorrelationID() string { return uuid.NewString() }

// Recorder emits structured log lines for the observable event vocabulary.
// This is the ambient logging seam: spec.md only pins down the event
// *names*, not a sink, so Recorder logs via log/slog and nothing else.
type Recorder struct {
	log *slog.Logger
}

// NewRecorder builds a Recorder. A nil logger defaults to slog.Default().
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{log: logger}
}

func (r *Recorder) emit(level slog.Level, event, circuit string, args ...any) {
	all := append([]any{"event", event, "circuit", circuit}, args...)
	r.log.Log(context.Background(), level, event, all...)
}

func (r *Recorder) Opened(circuit string)     { r.emit(slog.LevelWarn, EventOpened, circuit) }
func (r *Recorder) Closed(circuit string)     { r.emit(slog.LevelInfo, EventClosed, circuit) }
func (r *Recorder) HalfOpened(circuit string) { r.emit(slog.LevelInfo, EventHalfOpened, circuit) }
func (r *Recorder) Rejected(circuit string)   { r.emit(slog.LevelDebug, EventRejected, circuit) }
func (r *Recorder) Success(circuit string, d time.Duration) {
	r.emit(slog.LevelDebug, EventSuccess, circuit, "duration_ms", d.Milliseconds())
}
func (r *Recorder) Failure(circuit string, d time.Duration, errClass string) {
	r.emit(slog.LevelWarn, EventFailure, circuit, "duration_ms", d.Milliseconds(), "error_class", errClass)
}
func (r *Recorder) BulkheadRejected(circuit string, maxConcurrent uint32) {
	r.emit(slog.LevelWarn, EventBulkheadReject, circuit, "max_concurrent", maxConcurrent)
}

// StorageOperation reports a single backend attempt within a FallbackChain.
func (r *Recorder) StorageOperation(circuit string, backend string, idx int, d time.Duration, ok bool) {
	r.emit(slog.LevelDebug, EventStorageOp, circuit,
		"backend", backend, "backend_index", idx, "duration_ms", d.Milliseconds(), "success", ok,
		"id", uuid.NewString())
}

// StorageFallback reports a backend attempt that failed and the chain
// advancing to the next configured backend.
func (r *Recorder) StorageFallback(circuit, backend, next, errClass string) {
	r.emit(slog.LevelWarn, EventStorageFallback, circuit,
		"backend", backend, "next_backend", next, "error_class", errClass)
}

// StorageBackendHealth reports a backend transitioning healthy/unhealthy.
func (r *Recorder) StorageBackendHealth(circuit, backend string, unhealthy bool) {
	state := "healthy"
	if unhealthy {
		state = "unhealthy"
	}
	r.emit(slog.LevelWarn, EventStorageHealth, circuit, "backend", backend, "new_state", state)
}

// StorageChainOperation reports the final outcome of a chain call.
func (r *Recorder) StorageChainOperation(circuit string, attempted []string, ok bool) {
	r.emit(slog.LevelDebug, EventStorageChainOp, circuit, "attempted", attempted, "success", ok)
}
