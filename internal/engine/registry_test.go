package engine

import (
	"runtime"
	"testing"
	"time"
)

func TestRegistryFindAndAllStatus(t *testing.T) {
	r := NewRegistry()
	c, err := New(Settings{Name: "svc-a"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.Register(c)

	found, ok := r.Find("svc-a")
	if !ok || found != c {
		t.Fatalf("Find = %v, %v, want (c, true)", found, ok)
	}

	statuses := r.AllStatus()
	if len(statuses) != 1 || statuses[0].Name != "svc-a" {
		t.Fatalf("AllStatus = %+v", statuses)
	}
}

func TestRegistryMissingDependencyTreatedAsSatisfied(t *testing.T) {
	r := NewRegistry()
	if r.isOpen("never-registered") {
		t.Fatal("missing dependency must be treated as not-open (satisfied)")
	}
}

func TestRegistryForceOpenForceCloseReset(t *testing.T) {
	r := NewRegistry()
	c, _ := New(Settings{Name: "svc-b"})
	r.Register(c)

	if !r.ForceOpen("svc-b") {
		t.Fatal("ForceOpen on a live circuit should succeed")
	}
	if c.State() != StateOpen {
		t.Fatal("expected Open after ForceOpen")
	}

	if err := r.Reset("svc-b"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if c.State() != StateClosed {
		t.Fatal("expected Closed after Reset")
	}

	r.ForceOpen("svc-b")
	if !r.ForceClose("svc-b") {
		t.Fatal("ForceClose on a live circuit should succeed")
	}
	if c.State() != StateClosed {
		t.Fatal("expected Closed after ForceClose")
	}
}

func TestRegistryOperationsOnUnknownName(t *testing.T) {
	r := NewRegistry()
	if r.ForceOpen("ghost") {
		t.Fatal("ForceOpen on unknown name should report false")
	}
	if r.ForceClose("ghost") {
		t.Fatal("ForceClose on unknown name should report false")
	}
	if err := r.Reset("ghost"); err == nil {
		t.Fatal("Reset on unknown name should error")
	}
}

func TestRegistryClear(t *testing.T) {
	r := NewRegistry()
	c, _ := New(Settings{Name: "svc-c"})
	r.Register(c)
	r.Clear()
	if _, ok := r.Find("svc-c"); ok {
		t.Fatal("expected Find to miss after Clear")
	}
}

func TestRegistryDoesNotPinMemory(t *testing.T) {
	r := NewRegistry()
	func() {
		c, _ := New(Settings{Name: "ephemeral"})
		r.Register(c)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		runtime.GC()
		if _, ok := r.Find("ephemeral"); !ok {
			return // weak pointer was collected, as required
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Skip("GC did not collect the ephemeral circuit within the test deadline; weak-pointer behavior is best-effort under GC scheduling")
}
