package engine

import "sync"

// Template is a named, partial configuration fragment inheritable across a
// parent chain (spec.md §4.11). Resolution is lexical: a child's
// non-zero-valued fields override its parent's, and a per-instantiation
// override block overrides both. Grounded on spec.md §9's "maintain a
// name->config map per namespace with explicit parent-chain lookup"
// guidance.
type Template struct {
	Name    string
	Parent  string
	Partial Settings
}

// TemplateSet is a namespace of named Templates with parent-chain
// resolution, populated either programmatically or via config.LoadYAML.
type TemplateSet struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewTemplateSet builds an empty TemplateSet.
func NewTemplateSet() *TemplateSet {
	return &TemplateSet{templates: make(map[string]Template)}
}

// Define registers or replaces a Template.
func (ts *TemplateSet) Define(t Template) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.templates[t.Name] = t
}

// Names returns every template name defined in ts, in no particular order.
func (ts *TemplateSet) Names() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	names := make([]string, 0, len(ts.templates))
	for name := range ts.templates {
		names = append(names, name)
	}
	return names
}

// Resolve walks the parent chain (ancestor first) and merges each
// Template's Partial into a base Settings, followed by override (if
// non-nil). Returns an error if name or any ancestor is undefined, or if
// the parent chain exceeds maxParentDepth (cycle guard).
const maxParentDepth = 32

func (ts *TemplateSet) Resolve(name string, override func(*Settings)) (Settings, error) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	chain := make([]Template, 0, 4)
	cur := name
	for depth := 0; ; depth++ {
		if depth > maxParentDepth {
			return Settings{}, &ConfigurationError{Message: "template parent chain too deep (cycle?) for " + name}
		}
		t, ok := ts.templates[cur]
		if !ok {
			return Settings{}, &ConfigurationError{Message: "undefined template: " + cur}
		}
		chain = append(chain, t)
		if t.Parent == "" {
			break
		}
		cur = t.Parent
	}

	var merged Settings
	for i := len(chain) - 1; i >= 0; i-- {
		mergeSettings(&merged, chain[i].Partial)
	}
	if override != nil {
		override(&merged)
	}
	return merged, nil
}

// mergeSettings copies every non-zero field of patch into base. Zero
// values in patch mean "inherit from the parent/base" — a deliberate
// limitation (spec.md doesn't distinguish "explicitly zero" from
// "unset" at the Template layer).
func mergeSettings(base *Settings, patch Settings) {
	if patch.Name != "" {
		base.Name = patch.Name
	}
	if patch.FailureThreshold != 0 {
		base.FailureThreshold = patch.FailureThreshold
	}
	if patch.FailureWindow != 0 {
		base.FailureWindow = patch.FailureWindow
	}
	if patch.FailureRate != 0 {
		base.FailureRate = patch.FailureRate
	}
	if patch.MinimumCalls != 0 {
		base.MinimumCalls = patch.MinimumCalls
	}
	if patch.SuccessThreshold != 0 {
		base.SuccessThreshold = patch.SuccessThreshold
	}
	if patch.HalfOpenCalls != 0 {
		base.HalfOpenCalls = patch.HalfOpenCalls
	}
	if patch.ResetTimeout != 0 {
		base.ResetTimeout = patch.ResetTimeout
	}
	if patch.ResetTimeoutJitter != nil {
		base.ResetTimeoutJitter = patch.ResetTimeoutJitter
	}
	if patch.Timeout != 0 {
		base.Timeout = patch.Timeout
	}
	if patch.MaxConcurrent != 0 {
		base.MaxConcurrent = patch.MaxConcurrent
	}
	if patch.IsTracked != nil {
		base.IsTracked = patch.IsTracked
	}
	if patch.Fallback.Kind != FallbackNone {
		base.Fallback = patch.Fallback
	}
	if patch.Storage != nil {
		base.Storage = patch.Storage
	}
	if patch.Hedged.Enabled {
		base.Hedged = patch.Hedged
	}
	if len(patch.Backends) > 0 {
		base.Backends = patch.Backends
	}
	if len(patch.CascadesTo) > 0 {
		base.CascadesTo = patch.CascadesTo
	}
	if len(patch.DependentCircuits) > 0 {
		base.DependentCircuits = patch.DependentCircuits
	}
}

// DynamicScope selects the lifetime of a circuit created by DynamicCircuit
// (spec.md §4.11).
type DynamicScope int

const (
	// ScopeLocal stores the circuit in the caller-supplied local map;
	// lifetime follows whatever owns that map.
	ScopeLocal DynamicScope = iota
	// ScopeGlobal stores the circuit in the Registry under its name;
	// lifetime extends past the creating instance until explicitly removed.
	ScopeGlobal
)

// DynamicFactory creates circuits on demand from Templates, honoring the
// instance-scoped vs process-global lifetime split of spec.md §4.11.
type DynamicFactory struct {
	templates *TemplateSet
	registry  *Registry
}

// NewDynamicFactory builds a DynamicFactory over the given TemplateSet and
// Registry (Global() if nil).
func NewDynamicFactory(templates *TemplateSet, registry *Registry) *DynamicFactory {
	if registry == nil {
		registry = Global()
	}
	return &DynamicFactory{templates: templates, registry: registry}
}

// DynamicCircuit resolves templateName (optional; empty uses zero-value
// defaults), applies override, and produces a circuit with the requested
// scope. For ScopeLocal, local must be a non-nil map the caller owns (its
// lifetime, not the factory's, determines the circuit's lifetime). For
// ScopeGlobal, the circuit is registered in the factory's Registry under
// its resolved name.
func (f *DynamicFactory) DynamicCircuit(name, templateName string, scope DynamicScope, local map[string]*Circuit, override func(*Settings)) (*Circuit, error) {
	if name == "" {
		// An anonymous, ephemeral circuit (typically ScopeLocal, one per
		// request) gets a generated correlation id as its name instead of
		// forcing every caller to invent one.
		name = "dyn-" + newCorrelationID()
	}

	var settings Settings
	var err error
	if templateName != "" {
		settings, err = f.templates.Resolve(templateName, override)
		if err != nil {
			return nil, err
		}
	} else {
		settings = Settings{}
		if override != nil {
			override(&settings)
		}
	}
	if settings.Name == "" {
		settings.Name = name
	}

	c, err := New(settings)
	if err != nil {
		return nil, err
	}

	switch scope {
	case ScopeGlobal:
		f.registry.Register(c)
	case ScopeLocal:
		if local == nil {
			return nil, &ConfigurationError{Message: "ScopeLocal requires a non-nil local map"}
		}
		local[name] = c
	}
	return c, nil
}
