package breaker

import "github.com/fenwick-labs/breaker/internal/engine"

// Error taxonomy (spec.md §6). Each is a struct (not a sentinel) because
// several carry fields callers need (circuit name, unmet dependencies,
// bulkhead capacity) — use errors.As to extract one from a wrapped chain.
type (
	// CircuitOpenError is returned when a call is rejected because the
	// circuit is Open and no fallback handled it.
	CircuitOpenError = engine.CircuitOpenError

	// CircuitBulkheadError is returned when bulkhead admission rejects a
	// call. Never counted as a circuit failure, never routed through a
	// fallback — it is a load-shedding signal, not a service failure.
	CircuitBulkheadError = engine.CircuitBulkheadError

	// CircuitTimeoutError is returned when a circuit's cooperative
	// deadline expires before the wrapped operation completes.
	CircuitTimeoutError = engine.CircuitTimeoutError

	// CircuitDependencyError is returned when a coordinated state
	// transition is denied because an upstream dependency is unhealthy.
	CircuitDependencyError = engine.CircuitDependencyError

	// ConfigurationError is returned for invalid Settings at construction.
	ConfigurationError = engine.ConfigurationError

	// StorageError wraps a failure from a Storage backend operation.
	StorageError = engine.StorageError

	// StorageTimeoutError is raised by FallbackChain when a backend
	// exceeds its per-backend time budget.
	StorageTimeoutError = engine.StorageTimeoutError
)
