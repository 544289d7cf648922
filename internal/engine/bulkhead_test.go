package engine

import "testing"

func TestBulkheadCapacityEnforcement(t *testing.T) {
	b := NewBulkhead(2)

	r1, ok1 := b.TryAcquire()
	r2, ok2 := b.TryAcquire()
	if !ok1 || !ok2 {
		t.Fatal("expected first two acquisitions to succeed")
	}
	if _, ok3 := b.TryAcquire(); ok3 {
		t.Fatal("expected third acquisition to fail at capacity")
	}
	if got := b.InFlight(); got != 2 {
		t.Fatalf("InFlight = %d, want 2", got)
	}

	r1()
	if got := b.InFlight(); got != 1 {
		t.Fatalf("InFlight after one release = %d, want 1", got)
	}
	if _, ok := b.TryAcquire(); !ok {
		t.Fatal("expected acquisition to succeed after a release")
	}
	r2()
}

func TestBulkheadReleaseIsIdempotent(t *testing.T) {
	b := NewBulkhead(1)
	release, ok := b.TryAcquire()
	if !ok {
		t.Fatal("expected acquisition to succeed")
	}
	release()
	release()
	release()
	if got := b.InFlight(); got != 0 {
		t.Fatalf("InFlight after repeated release = %d, want 0", got)
	}
}

func TestBulkheadMaxConcurrent(t *testing.T) {
	b := NewBulkhead(7)
	if got := b.MaxConcurrent(); got != 7 {
		t.Fatalf("MaxConcurrent = %d, want 7", got)
	}
}
