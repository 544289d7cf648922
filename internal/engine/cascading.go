package engine

// CascadingCircuit inherits CoordinatedCircuit's dependency guards and
// additionally declares downstream cascade targets (spec.md §4.9). When
// this circuit enters Open, every named downstream circuit is force-opened
// through the Registry, and EmergencyProtocol (if configured) fires
// exactly once with the list of downstream names that were affected.
// Cascade is one-way; cycles are not prevented — callers must design
// acyclic dependency graphs, per spec.md §4.9.
type CascadingCircuit struct {
	*CoordinatedCircuit
	cascadesTo []string
}

// NewCascadingCircuit builds a CascadingCircuit with both upstream
// dependencies and downstream cascade targets.
func NewCascadingCircuit(settings Settings, registry *Registry, dependencies, cascadesTo []string) (*CascadingCircuit, error) {
	if registry == nil {
		registry = Global()
	}
	coord, err := NewCoordinatedCircuit(settings, registry, dependencies)
	if err != nil {
		return nil, err
	}
	casc := &CascadingCircuit{CoordinatedCircuit: coord, cascadesTo: cascadesTo}
	coord.Circuit.guard = casc
	return casc, nil
}

func (casc *CascadingCircuit) onEnterOpen() {
	if len(casc.cascadesTo) == 0 {
		return
	}
	var affected []string
	for _, name := range casc.cascadesTo {
		if casc.registry.ForceOpen(name) {
			affected = append(affected, name)
		}
	}
	if len(affected) == 0 {
		return
	}
	casc.Circuit.safeCallback(func() {
		if casc.Circuit.cfg().EmergencyProtocol != nil {
			casc.Circuit.cfg().EmergencyProtocol(casc.Circuit.Name(), affected)
		}
	})
}
