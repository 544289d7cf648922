package engine

// CoordinatedCircuit extends Circuit with dependency-aware recovery guards
// (spec.md §4.8). attempt_recovery and manual reset are denied while any
// named upstream dependency resolves (via the Registry) to a circuit that
// is currently Open. hard_reset ignores the guard, as does ForceOpen.
//
// No teacher equivalent exists; grounded directly on spec.md §4.8 and the
// "resolve through the Registry at transition time, never cached as
// owning references" guidance of spec.md §3/§9, which is why Dependencies
// is a plain []string rather than []*Circuit.
type CoordinatedCircuit struct {
	*Circuit
	registry     *Registry
	dependencies []string
}

// NewCoordinatedCircuit builds a CoordinatedCircuit whose recovery and
// manual reset are guarded by the health of dependencies (by name,
// resolved against registry).
func NewCoordinatedCircuit(settings Settings, registry *Registry, dependencies []string) (*CoordinatedCircuit, error) {
	if registry == nil {
		registry = Global()
	}
	base, err := New(settings)
	if err != nil {
		return nil, err
	}
	cc := &CoordinatedCircuit{Circuit: base, registry: registry, dependencies: dependencies}
	base.guard = cc
	registry.Register(base)
	return cc, nil
}

func (cc *CoordinatedCircuit) dependencyGuardOK() bool {
	for _, dep := range cc.dependencies {
		if cc.registry.isOpen(dep) {
			return false
		}
	}
	return true
}

func (cc *CoordinatedCircuit) unmetDependencies() []string {
	var unmet []string
	for _, dep := range cc.dependencies {
		if cc.registry.isOpen(dep) {
			unmet = append(unmet, dep)
		}
	}
	return unmet
}

// onEnterOpen is a no-op for a plain CoordinatedCircuit; CascadingCircuit
// overrides this to propagate downstream.
func (cc *CoordinatedCircuit) onEnterOpen() {}
