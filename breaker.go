// Package breaker provides a circuit-breaker library for wrapping
// potentially-failing operations (remote calls, resource access) with a
// fault-isolation primitive: a Closed/Open/Half-Open state machine backed
// by a pluggable sliding-window event store, with bulkhead admission,
// hedged (staggered-parallel) execution, dependency-aware cascading
// circuits, named circuit groups, and template-driven dynamic circuit
// creation.
//
// # Quick start
//
//	cb, err := breaker.New(breaker.Settings{
//	    Name:             "payments-api",
//	    FailureThreshold: 5,
//	    ResetTimeout:     30 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := cb.Execute(func() (any, error) {
//	    return paymentsClient.Charge(ctx, req)
//	})
//	if errors.As(err, new(*breaker.CircuitOpenError)) {
//	    // circuit is open, fail fast or use a cached response
//	}
//
// # Rate mode
//
// Set FailureRate (and optionally MinimumCalls) instead of
// FailureThreshold to trip on a failure percentage rather than a raw
// count — the same configuration then works across traffic levels.
//
// # Coordination
//
// Use NewCoordinatedCircuit to guard recovery on upstream dependencies, and
// NewCascadingCircuit to additionally force-open declared downstream
// circuits when this one trips. Both resolve dependency/cascade names
// through a Registry rather than holding direct references, so dependency
// graphs never pin memory and cycles can't leak.
package breaker

import "github.com/fenwick-labs/breaker/internal/engine"

// Core types. These are type aliases over internal/engine so the facade
// package adds no wrapper overhead — same pattern as the teacher's
// autobreaker.go (var New = breaker.New / type X = breaker.X), re-pointed
// at internal/engine instead of internal/breaker.

type (
	// Circuit is the main type implementing the circuit breaker pattern.
	// All methods are safe for concurrent use.
	Circuit = engine.Circuit

	// CoordinatedCircuit extends Circuit with dependency-aware recovery
	// guards.
	CoordinatedCircuit = engine.CoordinatedCircuit

	// CascadingCircuit extends CoordinatedCircuit with downstream cascade
	// propagation.
	CascadingCircuit = engine.CascadingCircuit

	// CircuitGroup is a named collection of circuits with shared defaults.
	CircuitGroup = engine.CircuitGroup

	// Registry is the process-global weak-referenced circuit directory.
	Registry = engine.Registry

	// State represents the current state of a Circuit.
	State = engine.State

	// Settings configures a Circuit.
	Settings = engine.Settings

	// SettingsUpdate specifies a partial runtime Settings patch.
	SettingsUpdate = engine.SettingsUpdate

	// Fallback configures the fallback behavior invoked on rejection or
	// tracked failure.
	Fallback = engine.Fallback

	// FallbackKind selects which shape of Fallback is populated.
	FallbackKind = engine.FallbackKind

	// HedgedSettings configures the staggered-parallel executor.
	HedgedSettings = engine.HedgedSettings

	// Clock abstracts wall-clock and monotonic time.
	Clock = engine.Clock

	// Event is an immutable record of a single circuit outcome.
	Event = engine.Event

	// EventKind distinguishes an accounted Success event from a Failure
	// event within an Event record (see EventSuccessKind, EventFailureKind
	// below) — unrelated to the package-level Event* message constants.
	EventKind = engine.EventKind

	// Status is a lightweight status snapshot for operator tooling.
	Status = engine.Status

	// Storage is the pluggable event-accounting and status-persistence
	// interface. See Memory, BucketMemory, and Null for the shipped
	// backends.
	Storage = engine.Storage

	// StatusRecord is the minimum state needed to reconstitute a circuit
	// across processes when a shared Storage backend is used.
	StatusRecord = engine.StatusRecord

	// Memory is the per-event bounded-buffer Storage backend.
	Memory = engine.Memory

	// BucketMemory is the default, fixed-memory bucketed Storage backend.
	BucketMemory = engine.BucketMemory

	// Null is the no-op Storage backend.
	Null = engine.Null

	// Bulkhead is a non-blocking, bounded-concurrency admission counter.
	Bulkhead = engine.Bulkhead

	// FallbackChain is a layered Storage-like collaborator that degrades
	// across multiple backends with a per-backend mini-breaker.
	FallbackChain = engine.FallbackChain

	// ChainBackend names one collaborator in a FallbackChain.
	ChainBackend = engine.ChainBackend

	// Template is a named, partial configuration fragment.
	Template = engine.Template

	// TemplateSet is a namespace of Templates with parent-chain resolution.
	TemplateSet = engine.TemplateSet

	// DynamicFactory creates circuits on demand from Templates.
	DynamicFactory = engine.DynamicFactory

	// DynamicScope selects the lifetime of a dynamically-created circuit.
	DynamicScope = engine.DynamicScope
)

// State constants.
const (
	StateClosed   = engine.StateClosed
	StateOpen     = engine.StateOpen
	StateHalfOpen = engine.StateHalfOpen
)

// Fallback kind constants.
const (
	FallbackNone     = engine.FallbackNone
	FallbackScalar   = engine.FallbackScalar
	FallbackCallable = engine.FallbackCallable
	FallbackList     = engine.FallbackList
	FallbackParallel = engine.FallbackParallel
)

// Dynamic circuit scope constants.
const (
	ScopeLocal  = engine.ScopeLocal
	ScopeGlobal = engine.ScopeGlobal
)

// Event name constants, matching spec's observable event vocabulary
// exactly — useful for test assertions against a custom slog.Handler.
const (
	EventOpened          = engine.EventOpened
	EventClosed          = engine.EventClosed
	EventHalfOpened      = engine.EventHalfOpened
	EventRejected        = engine.EventRejected
	EventSuccess         = engine.EventSuccess
	EventFailure         = engine.EventFailure
	EventBulkheadReject  = engine.EventBulkheadReject
	EventStorageOp       = engine.EventStorageOp
	EventStorageFallback = engine.EventStorageFallback
	EventStorageHealth   = engine.EventStorageHealth
	EventStorageChainOp  = engine.EventStorageChainOp
)

// Event.Kind constants, distinguishing a Success Event record from a
// Failure one — for Storage implementations that persist Event.
const (
	EventSuccessKind = engine.EventSuccessKind
	EventFailureKind = engine.EventFailureKind
)

// Constructors and helpers, exposed as package variables per the teacher's
// facade pattern.
var (
	// New constructs a Circuit. Returns *ConfigurationError for invalid
	// Settings.
	New = engine.New

	// NewCoordinatedCircuit builds a CoordinatedCircuit guarded by the
	// health of named dependencies, resolved against registry (Global()
	// if nil).
	NewCoordinatedCircuit = engine.NewCoordinatedCircuit

	// NewCascadingCircuit builds a CascadingCircuit with both upstream
	// dependencies and downstream cascade targets.
	NewCascadingCircuit = engine.NewCascadingCircuit

	// NewCircuitGroup builds an empty CircuitGroup.
	NewCircuitGroup = engine.NewCircuitGroup

	// NewRegistry builds an empty Registry. Most callers use Global().
	NewRegistry = engine.NewRegistry

	// Global returns the process-wide Registry singleton.
	Global = engine.Global

	// NewMemory builds a per-event bounded-buffer Storage backend.
	NewMemory = engine.NewMemory

	// NewBucketMemory builds the default bucketed Storage backend.
	NewBucketMemory = engine.NewBucketMemory

	// NewBulkhead builds a standalone Bulkhead.
	NewBulkhead = engine.NewBulkhead

	// NewFallbackChain builds a FallbackChain over an ordered list of
	// backends.
	NewFallbackChain = engine.NewFallbackChain

	// WithChainBreaker overrides a FallbackChain's mini-breaker defaults.
	WithChainBreaker = engine.WithChainBreaker

	// NewTemplateSet builds an empty TemplateSet.
	NewTemplateSet = engine.NewTemplateSet

	// NewDynamicFactory builds a DynamicFactory over a TemplateSet and
	// Registry.
	NewDynamicFactory = engine.NewDynamicFactory

	// RunHedged runs the staggered-parallel executor directly, without a
	// Circuit wrapper.
	RunHedged = engine.RunHedged

	// Uint32Ptr, DurationPtr, and Float64Ptr build pointer fields for
	// SettingsUpdate.
	Uint32Ptr   = engine.Uint32Ptr
	DurationPtr = engine.DurationPtr
	Float64Ptr  = engine.Float64Ptr

	// StatusKey, SuccessKey, FailureKey, and OpenedAtKey build the
	// persisted status key scheme ("{prefix}{circuit_name}:status") for
	// Storage backends that share a key-value namespace.
	StatusKey   = engine.StatusKey
	SuccessKey  = engine.SuccessKey
	FailureKey  = engine.FailureKey
	OpenedAtKey = engine.OpenedAtKey
	StatusString = engine.StatusString
)
