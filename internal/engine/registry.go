package engine

import (
	"sync"
	"weak"
)

// Registry is the process-global weak-valued circuit directory of spec.md
// §4.7. Grounded on itsneelabh-gomind/telemetry/registry.go's singleton
// shape (sync.Map-backed, lazily initialized), adapted to store
// weak.Pointer[Circuit] instead of strong values: enumeration excludes
// collected entries, and the Registry itself never prevents a Circuit's
// owner from being garbage collected. There is no third-party weak
// reference primitive anywhere in the Go ecosystem, so this is the one
// component where the standard library (the "weak" package, Go >= 1.24)
// is the only tool that can satisfy the invariant.
type Registry struct {
	mu    sync.RWMutex
	byName map[string][]weak.Pointer[Circuit]
}

// NewRegistry builds an empty Registry. Most callers use the process
// Global() instance; an explicit Registry is useful for instance-scoped
// dynamic circuits and for tests that want isolation.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string][]weak.Pointer[Circuit])}
}

var globalRegistry = NewRegistry()

// Global returns the process-wide Registry singleton.
func Global() *Registry { return globalRegistry }

// Register adds c under its Name. Multiple circuits may share a name
// (e.g. across CircuitGroup members with generated keys); Find returns the
// first live one.
func (r *Registry) Register(c *Circuit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[c.Name()] = append(r.byName[c.Name()], weak.Make(c))
}

// Find returns the first live circuit registered under name.
func (r *Registry) Find(name string) (*Circuit, bool) {
	r.mu.RLock()
	ptrs := r.byName[name]
	r.mu.RUnlock()
	for _, p := range ptrs {
		if c := p.Value(); c != nil {
			return c, true
		}
	}
	return nil, false
}

// All returns every live circuit currently registered, compacting dead
// entries as a side effect.
func (r *Registry) All() []*Circuit {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Circuit
	for name, ptrs := range r.byName {
		live := ptrs[:0]
		for _, p := range ptrs {
			if c := p.Value(); c != nil {
				out = append(out, c)
				live = append(live, p)
			}
		}
		if len(live) == 0 {
			delete(r.byName, name)
		} else {
			r.byName[name] = live
		}
	}
	return out
}

// CleanupDeadReferences compacts the internal map, dropping names whose
// weak pointers have all been collected.
func (r *Registry) CleanupDeadReferences() {
	_ = r.All() // All() already compacts as a side effect
}

// ForceOpen force-opens the named circuit, if live. Used by
// CascadingCircuit to propagate downstream, and by breakerctl.
func (r *Registry) ForceOpen(name string) bool {
	c, ok := r.Find(name)
	if !ok {
		return false
	}
	c.ForceOpen()
	return true
}

// ForceClose resets the named circuit to Closed, if live, ignoring
// dependency guards (equivalent to HardReset for operator use).
func (r *Registry) ForceClose(name string) bool {
	c, ok := r.Find(name)
	if !ok {
		return false
	}
	c.HardReset()
	return true
}

// Reset applies the guarded manual reset operation to the named circuit.
func (r *Registry) Reset(name string) error {
	c, ok := r.Find(name)
	if !ok {
		return &ConfigurationError{Message: "no circuit named " + name}
	}
	return c.Reset()
}

// Clear drops all registrations. Existing *Circuit values already held by
// callers remain valid; only registry bookkeeping is cleared.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName = make(map[string][]weak.Pointer[Circuit])
}

// Status is a lightweight status snapshot for operator tooling.
type Status struct {
	Name    string
	State   State
	InFlight uint32
}

// AllStatus returns a Status snapshot for every live circuit.
func (r *Registry) AllStatus() []Status {
	all := r.All()
	out := make([]Status, 0, len(all))
	for _, c := range all {
		out = append(out, Status{Name: c.Name(), State: c.State(), InFlight: c.InFlight()})
	}
	return out
}

// isOpen reports whether name resolves to a live, currently-Open circuit.
// A missing dependency is treated as satisfied (not-open), per spec.md
// §4.8: "a missing dependency ... is treated as satisfied."
func (r *Registry) isOpen(name string) bool {
	c, ok := r.Find(name)
	if !ok {
		return false
	}
	return c.State() == StateOpen
}
