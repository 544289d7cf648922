package engine

import "sync"

// CircuitGroup is a named collection of circuits sharing defaults and
// optional dependency wiring (spec.md §4.10). A member's effective name is
// "{group_name}.{member_name}", matching the teacher's convention of using
// Settings.Name directly as the storage key.
type CircuitGroup struct {
	mu       sync.RWMutex
	name     string
	shared   Settings
	registry *Registry
	members  map[string]*Circuit
	order    []string
	guards   map[string]func() bool
}

// NewCircuitGroup builds an empty group. shared provides default field
// values copied into each member before per-member overrides are applied.
func NewCircuitGroup(name string, shared Settings, registry *Registry) *CircuitGroup {
	if registry == nil {
		registry = Global()
	}
	return &CircuitGroup{
		name:     name,
		shared:   shared,
		registry: registry,
		members:  make(map[string]*Circuit),
		guards:   make(map[string]func() bool),
	}
}

// Circuit creates (or returns the existing) member circuit, applying
// dependsOn and an optional custom guard predicate. override, if non-nil,
// is applied to the shared defaults before construction.
func (g *CircuitGroup) Circuit(name string, dependsOn []string, guardWith func() bool, override func(*Settings)) (*Circuit, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.members[name]; ok {
		return c, nil
	}

	settings := g.shared
	settings.Name = g.name + "." + name
	if override != nil {
		override(&settings)
	}

	var c *Circuit
	var err error
	if len(dependsOn) > 0 {
		qualified := make([]string, len(dependsOn))
		for i, d := range dependsOn {
			qualified[i] = g.name + "." + d
		}
		cc, ccErr := NewCoordinatedCircuit(settings, g.registry, qualified)
		c, err = cc.Circuit, ccErr
	} else {
		c, err = New(settings)
		if err == nil {
			g.registry.Register(c)
		}
	}
	if err != nil {
		return nil, err
	}

	g.members[name] = c
	g.order = append(g.order, name)
	if guardWith != nil {
		g.guards[name] = guardWith
	}
	return c, nil
}

// Get returns the named member, if present.
func (g *CircuitGroup) Get(name string) (*Circuit, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.members[name]
	return c, ok
}

// Status returns a name->State map for every member, in a single
// consistent read pass (the map itself has no cross-member atomicity
// guarantee, per spec.md §5's ordering notes).
func (g *CircuitGroup) Status() map[string]State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]State, len(g.members))
	for name, c := range g.members {
		out[name] = c.State()
	}
	return out
}

// AllHealthy reports whether every member is Closed.
func (g *CircuitGroup) AllHealthy() bool {
	for _, s := range g.Status() {
		if s != StateClosed {
			return false
		}
	}
	return true
}

// AnyOpen reports whether at least one member is Open.
func (g *CircuitGroup) AnyOpen() bool {
	for _, s := range g.Status() {
		if s == StateOpen {
			return true
		}
	}
	return false
}

// TripAll force-opens every member.
func (g *CircuitGroup) TripAll() {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, c := range g.members {
		c.ForceOpen()
	}
}

// ResetAll resets every member (guarded, per-member dependency rules
// still apply).
func (g *CircuitGroup) ResetAll() {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, c := range g.members {
		_ = c.Reset()
	}
}

// DependenciesMet reports whether name's custom guard (if any) currently
// passes; a member with no guard is always considered met.
func (g *CircuitGroup) DependenciesMet(name string) bool {
	g.mu.RLock()
	guard, ok := g.guards[name]
	g.mu.RUnlock()
	if !ok {
		return true
	}
	return guard()
}
