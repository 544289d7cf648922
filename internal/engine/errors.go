package engine

import "fmt"

// CircuitOpenError is returned when a call is rejected because the circuit
// is Open (and no fallback was configured, or the fallback itself failed).
type CircuitOpenError struct {
	Name string
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit %q: open", e.Name)
}

// CircuitBulkheadError is returned when bulkhead admission rejects a call.
// This is never counted as a circuit failure — it is a load-shedding
// signal, not a service failure.
type CircuitBulkheadError struct {
	Name          string
	MaxConcurrent uint32
}

func (e *CircuitBulkheadError) Error() string {
	return fmt.Sprintf("circuit %q: bulkhead full (max_concurrent=%d)", e.Name, e.MaxConcurrent)
}

// CircuitTimeoutError is returned when a cooperative deadline configured on
// a circuit expires before the wrapped operation completes.
type CircuitTimeoutError struct {
	Name     string
	Deadline string
}

func (e *CircuitTimeoutError) Error() string {
	return fmt.Sprintf("circuit %q: timeout exceeded (deadline=%s)", e.Name, e.Deadline)
}

// CircuitDependencyError is returned when a coordinated state transition is
// denied because one or more upstream dependencies are not healthy.
type CircuitDependencyError struct {
	Name  string
	Unmet []string
}

func (e *CircuitDependencyError) Error() string {
	return fmt.Sprintf("circuit %q: dependency guard denied, unmet=%v", e.Name, e.Unmet)
}

// ConfigurationError is raised at construction time for invalid settings.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// StorageError wraps a failure from a Storage backend operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// StorageTimeoutError is raised by FallbackChain when a backend exceeds its
// per-backend time budget.
type StorageTimeoutError struct {
	Backend string
	Budget  string
}

func (e *StorageTimeoutError) Error() string {
	return fmt.Sprintf("storage backend %q exceeded time budget %s", e.Backend, e.Budget)
}
