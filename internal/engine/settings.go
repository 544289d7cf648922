package engine

import (
	"log/slog"
	"time"
)

// FallbackKind distinguishes the four fallback shapes of spec.md §4.2.
type FallbackKind int

const (
	// FallbackNone means no fallback is configured.
	FallbackNone FallbackKind = iota
	// FallbackScalar returns a fixed value verbatim.
	FallbackScalar
	// FallbackCallable invokes fn(err) and returns its result.
	FallbackCallable
	// FallbackList tries each callable in order; first non-error wins.
	FallbackList
	// FallbackParallel races all callables; first non-error completion wins.
	FallbackParallel
)

// Fallback bundles a FallbackKind with its payload. Exactly one of Value,
// Fn, or Chain is meaningful, selected by Kind.
type Fallback struct {
	Kind  FallbackKind
	Value any
	Fn    func(err error) (any, error)
	Chain []func(err error) (any, error)
}

// HedgedSettings configures the staggered-parallel executor of spec.md §4.3.
type HedgedSettings struct {
	Enabled    bool
	Delay      time.Duration
	MaxRequests int
}

// Settings configures a Circuit. Grounded on the teacher's Settings
// (internal/breaker/types.go), generalized to spec.md §6's configuration
// table: window/rate trip modes, jitter, hedging, bulkhead, fallback,
// cascades and dependencies replace the teacher's flat adaptive-threshold
// fields.
type Settings struct {
	// Name identifies the circuit for storage keys and registry lookup.
	Name string

	// FailureThreshold is the count-mode trip threshold. Default 5.
	FailureThreshold uint32

	// FailureWindow is the sliding window used for counts/rates. Default 60s.
	FailureWindow time.Duration

	// FailureRate enables rate mode when > 0. Range (0, 1].
	FailureRate float64

	// MinimumCalls is the rate-mode minimum sample size before tripping.
	// Default 5.
	MinimumCalls uint32

	// SuccessThreshold is the half-open successes required to close.
	// Default 1.
	SuccessThreshold uint32

	// HalfOpenCalls is the half-open admission cap. Default 1.
	HalfOpenCalls uint32

	// ResetTimeout is the Open→HalfOpen delay. Default 60s.
	ResetTimeout time.Duration

	// ResetTimeoutJitter is a multiplicative random factor bound in [0,1],
	// applied to ResetTimeout. nil means "use the default" (0.25); an
	// explicit 0 is the documented way to get an exact, unjittered
	// ResetTimeout and is distinct from leaving this unset — a plain
	// float64 couldn't tell the two apart, since Go zero-values an unset
	// field to 0 as well.
	ResetTimeoutJitter *float64

	// Timeout is a cooperative deadline applied via context.WithTimeout.
	// Zero disables it.
	Timeout time.Duration

	// MaxConcurrent is the bulkhead capacity. Zero disables the bulkhead.
	MaxConcurrent uint32

	// IsTracked decides whether an error counts as a tracked failure.
	// Default: all non-nil errors are tracked.
	IsTracked func(err error) bool

	// Fallback is invoked on rejection or tracked failure.
	Fallback Fallback

	// Storage backs event accounting and status. Defaults to a
	// BucketMemory with a 1s bucket width sized to FailureWindow.
	Storage Storage

	// Hedged configures staggered-parallel execution.
	Hedged HedgedSettings

	// Backends is the list of operations raced by the hedged executor.
	// If empty, the wrapped block is the sole attempt.
	Backends []func() (any, error)

	// OnOpen, OnClose, OnHalfOpen, OnReject, OnSuccess, OnFailure are
	// best-effort callbacks. Panics are recovered and logged; they never
	// affect the transition or propagate to the caller.
	OnOpen     func(name string)
	OnClose    func(name string)
	OnHalfOpen func(name string)
	OnReject   func(name string)
	OnSuccess  func(name string, d time.Duration)
	OnFailure  func(name string, d time.Duration, err error)

	// CascadesTo lists downstream circuit names force-opened when this
	// circuit enters Open (CascadingCircuit only).
	CascadesTo []string

	// DependentCircuits lists upstream circuit names that must not be Open
	// for this circuit's recovery guards to pass (CoordinatedCircuit and
	// CascadingCircuit).
	DependentCircuits []string

	// EmergencyProtocol fires exactly once per cascade trip, with the
	// downstream names that were force-opened.
	EmergencyProtocol func(name string, downstream []string)

	// Clock overrides time for tests. Defaults to SystemClock.
	Clock Clock

	// Logger receives structured events. Defaults to slog.Default().
	Logger *slog.Logger
}

// SettingsUpdate carries a partial runtime patch, applied by
// Circuit.UpdateSettings. Grounded on the teacher's SettingsUpdate
// (internal/breaker/update.go); nil fields are left unmodified.
type SettingsUpdate struct {
	FailureThreshold   *uint32
	FailureWindow      *time.Duration
	FailureRate        *float64
	MinimumCalls       *uint32
	SuccessThreshold   *uint32
	HalfOpenCalls      *uint32
	ResetTimeout       *time.Duration
	ResetTimeoutJitter *float64
	Timeout            *time.Duration
	MaxConcurrent      *uint32
}

// Uint32Ptr, DurationPtr, and Float64Ptr build pointer fields for
// SettingsUpdate, mirroring the teacher's helper functions.
func Uint32Ptr(v uint32) *uint32                 { return &v }
func DurationPtr(v time.Duration) *time.Duration { return &v }
func Float64Ptr(v float64) *float64              { return &v }

func (s *Settings) applyDefaults() {
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.FailureWindow == 0 {
		s.FailureWindow = 60 * time.Second
	}
	if s.MinimumCalls == 0 {
		s.MinimumCalls = 5
	}
	if s.SuccessThreshold == 0 {
		s.SuccessThreshold = 1
	}
	if s.HalfOpenCalls == 0 {
		s.HalfOpenCalls = 1
	}
	if s.ResetTimeout == 0 {
		s.ResetTimeout = 60 * time.Second
	}
	if s.ResetTimeoutJitter == nil {
		s.ResetTimeoutJitter = Float64Ptr(0.25)
	}
	if s.IsTracked == nil {
		s.IsTracked = func(err error) bool { return err != nil }
	}
	if s.Clock == nil {
		s.Clock = defaultClock
	}
	if s.Storage == nil {
		s.Storage = NewBucketMemory(int(s.FailureWindow.Seconds())+1, s.Clock)
	}
}

// validate mirrors the teacher's New() panics, raised as ConfigurationError
// instead so construction can be handled by a caller rather than only by
// a recovered panic.
func (s Settings) validate() error {
	if s.Name == "" {
		return &ConfigurationError{Message: "Name is required"}
	}
	if s.FailureRate < 0 || s.FailureRate > 1 {
		return &ConfigurationError{Message: "FailureRate must be in [0,1]"}
	}
	if s.ResetTimeoutJitter != nil && (*s.ResetTimeoutJitter < 0 || *s.ResetTimeoutJitter > 1) {
		return &ConfigurationError{Message: "ResetTimeoutJitter must be in [0,1]"}
	}
	if s.Hedged.Enabled && s.Hedged.MaxRequests <= 0 {
		return &ConfigurationError{Message: "Hedged.MaxRequests must be > 0 when Hedged.Enabled"}
	}
	return nil
}

// rateMode reports whether rate-mode trip evaluation is active.
func (s Settings) rateMode() bool { return s.FailureRate > 0 }
