package engine

import "testing"

func TestCircuitGroupMemberKeying(t *testing.T) {
	reg := NewRegistry()
	g := NewCircuitGroup("payments", Settings{FailureThreshold: 3}, reg)

	c, err := g.Circuit("stripe", nil, nil, nil)
	if err != nil {
		t.Fatalf("Circuit: %v", err)
	}
	if c.Name() != "payments.stripe" {
		t.Fatalf("Name() = %q, want %q", c.Name(), "payments.stripe")
	}

	again, err := g.Circuit("stripe", nil, nil, nil)
	if err != nil || again != c {
		t.Fatalf("expected Circuit to return the same instance on repeat call")
	}
}

func TestCircuitGroupDependsOnQualifiesNames(t *testing.T) {
	reg := NewRegistry()
	g := NewCircuitGroup("payments", Settings{FailureThreshold: 1}, reg)

	upstream, err := g.Circuit("gateway", nil, nil, nil)
	if err != nil {
		t.Fatalf("Circuit(gateway): %v", err)
	}
	downstream, err := g.Circuit("checkout", []string{"gateway"}, nil, nil)
	if err != nil {
		t.Fatalf("Circuit(checkout): %v", err)
	}

	upstream.Execute(failFn)
	if upstream.State() != StateOpen {
		t.Fatal("expected gateway Open")
	}
	downstream.Execute(failFn)
	if downstream.State() != StateOpen {
		t.Fatal("expected checkout Open")
	}
	if err := downstream.Reset(); err == nil {
		t.Fatal("expected Reset to be denied while payments.gateway is open")
	}
}

func TestCircuitGroupTripAllAndResetAll(t *testing.T) {
	reg := NewRegistry()
	g := NewCircuitGroup("svc", Settings{FailureThreshold: 1}, reg)
	g.Circuit("a", nil, nil, nil)
	g.Circuit("b", nil, nil, nil)

	if g.AnyOpen() {
		t.Fatal("expected no member open initially")
	}
	g.TripAll()
	if g.AllHealthy() {
		t.Fatal("expected AllHealthy false after TripAll")
	}
	if !g.AnyOpen() {
		t.Fatal("expected AnyOpen true after TripAll")
	}

	g.ResetAll()
	if !g.AllHealthy() {
		t.Fatal("expected AllHealthy true after ResetAll")
	}
}

func TestCircuitGroupDependenciesMetDefaultsToTrue(t *testing.T) {
	reg := NewRegistry()
	g := NewCircuitGroup("svc", Settings{}, reg)
	g.Circuit("solo", nil, nil, nil)
	if !g.DependenciesMet("solo") {
		t.Fatal("a member with no custom guard must report DependenciesMet true")
	}
}

func TestCircuitGroupCustomGuard(t *testing.T) {
	reg := NewRegistry()
	g := NewCircuitGroup("svc", Settings{}, reg)
	healthy := false
	g.Circuit("guarded", nil, func() bool { return healthy }, nil)

	if g.DependenciesMet("guarded") {
		t.Fatal("expected guard to report false initially")
	}
	healthy = true
	if !g.DependenciesMet("guarded") {
		t.Fatal("expected guard to report true once healthy flips")
	}
}
