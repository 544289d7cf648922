package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/fenwick-labs/breaker/internal/clocktest"
)

var errBoom = errors.New("boom")

func succeedFn() (any, error) { return "ok", nil }
func failFn() (any, error)    { return nil, errBoom }

func TestBasicTripAndRecover(t *testing.T) {
	clock := clocktest.New(time.Unix(0, 0))
	c, err := New(Settings{
		Name:               "svc",
		FailureThreshold:   3,
		FailureWindow:      60 * time.Second,
		ResetTimeout:       time.Second,
		ResetTimeoutJitter: Float64Ptr(0),
		Clock:              clock,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := c.Execute(failFn); err != errBoom {
			t.Fatalf("failure %d: got %v, want errBoom", i, err)
		}
	}
	if c.State() != StateOpen {
		t.Fatalf("state = %v, want Open", c.State())
	}

	if _, err := c.Execute(succeedFn); !errors.As(err, new(*CircuitOpenError)) {
		t.Fatalf("immediate call: err = %v, want CircuitOpenError", err)
	}

	clock.Advance(1100 * time.Millisecond)

	if v, err := c.Execute(succeedFn); err != nil || v != "ok" {
		t.Fatalf("recovery call: v=%v err=%v", v, err)
	}
	if c.State() != StateClosed {
		t.Fatalf("state after recovery = %v, want Closed", c.State())
	}
}

func TestBulkheadIsolation(t *testing.T) {
	c, err := New(Settings{
		Name:             "iso",
		MaxConcurrent:    2,
		FailureThreshold: 10,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	release1, ok1 := c.bulkhead.TryAcquire()
	release2, ok2 := c.bulkhead.TryAcquire()
	if !ok1 || !ok2 {
		t.Fatalf("expected both permits to be acquired")
	}
	defer release1()
	defer release2()

	_, err = c.Execute(succeedFn)
	var bhErr *CircuitBulkheadError
	if !errors.As(err, &bhErr) {
		t.Fatalf("err = %v, want CircuitBulkheadError", err)
	}
	if c.cfg().Storage.FailureCount(c.Name(), time.Minute) != 0 {
		t.Fatalf("bulkhead rejection must not count as a circuit failure")
	}
	if c.State() != StateClosed {
		t.Fatalf("state = %v, want Closed", c.State())
	}
}

func TestRateMode(t *testing.T) {
	c, err := New(Settings{
		Name:         "rate",
		FailureRate:  0.5,
		MinimumCalls: 10,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 9; i++ {
		c.Execute(failFn)
	}
	if c.State() != StateClosed {
		t.Fatalf("after 9 failures (below minimum): state = %v, want Closed", c.State())
	}

	c.Execute(failFn)
	if c.State() != StateOpen {
		t.Fatalf("after 10th failure (rate=1.0 >= 0.5): state = %v, want Open", c.State())
	}
}

func TestHalfOpenSuccessThreshold(t *testing.T) {
	clock := clocktest.New(time.Unix(0, 0))
	c, err := New(Settings{
		Name:               "half",
		FailureThreshold:   1,
		ResetTimeout:       time.Second,
		ResetTimeoutJitter: Float64Ptr(0),
		SuccessThreshold:   2,
		HalfOpenCalls:      2,
		Clock:              clock,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Execute(failFn)
	if c.State() != StateOpen {
		t.Fatalf("state = %v, want Open", c.State())
	}
	clock.Advance(1100 * time.Millisecond)

	c.Execute(succeedFn)
	if c.State() != StateHalfOpen {
		t.Fatalf("after 1 half-open success (threshold=2): state = %v, want HalfOpen", c.State())
	}

	c.Execute(succeedFn)
	if c.State() != StateClosed {
		t.Fatalf("after 2nd half-open success: state = %v, want Closed", c.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	clock := clocktest.New(time.Unix(0, 0))
	c, _ := New(Settings{
		Name:               "half-fail",
		FailureThreshold:   1,
		ResetTimeout:       time.Second,
		ResetTimeoutJitter: Float64Ptr(0),
		Clock:              clock,
	})
	c.Execute(failFn)
	clock.Advance(1100 * time.Millisecond)
	c.Execute(failFn)
	if c.State() != StateOpen {
		t.Fatalf("state after failed probe = %v, want Open", c.State())
	}
}

func TestFallbackScalar(t *testing.T) {
	c, _ := New(Settings{
		Name:             "fb-scalar",
		FailureThreshold: 1,
		Fallback:         Fallback{Kind: FallbackScalar, Value: "cached"},
	})
	v, err := c.Execute(failFn)
	if err != nil || v != "cached" {
		t.Fatalf("v=%v err=%v, want (cached, nil)", v, err)
	}
}

func TestFallbackOnRejection(t *testing.T) {
	c, _ := New(Settings{
		Name:             "fb-reject",
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
		Fallback:         Fallback{Kind: FallbackScalar, Value: "degraded"},
	})
	c.Execute(failFn) // trips
	v, err := c.Execute(succeedFn)
	if err != nil || v != "degraded" {
		t.Fatalf("v=%v err=%v, want (degraded, nil)", v, err)
	}
}

func TestFallbackListFirstWins(t *testing.T) {
	chain := []func(error) (any, error){
		func(error) (any, error) { return nil, errBoom },
		func(error) (any, error) { return "second", nil },
	}
	c, _ := New(Settings{
		Name:             "fb-list",
		FailureThreshold: 1,
		Fallback:         Fallback{Kind: FallbackList, Chain: chain},
	})
	v, err := c.Execute(failFn)
	if err != nil || v != "second" {
		t.Fatalf("v=%v err=%v, want (second, nil)", v, err)
	}
}

func TestFallbackParallelLastErrorOnTotalFailure(t *testing.T) {
	errA := errors.New("a")
	chain := []func(error) (any, error){
		func(error) (any, error) { return nil, errA },
	}
	c, _ := New(Settings{
		Name:             "fb-parallel",
		FailureThreshold: 1,
		Fallback:         Fallback{Kind: FallbackParallel, Chain: chain},
	})
	_, err := c.Execute(failFn)
	if !errors.Is(err, errA) {
		t.Fatalf("err = %v, want errA", err)
	}
}

func TestPanicCountsAsFailureAndRepropagates(t *testing.T) {
	c, _ := New(Settings{Name: "panic", FailureThreshold: 1})
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic to propagate")
		}
		if c.State() != StateOpen {
			t.Fatalf("state after panic = %v, want Open", c.State())
		}
	}()
	c.Execute(func() (any, error) { panic("kaboom") })
}

func TestUntrackedErrorDoesNotTrip(t *testing.T) {
	c, _ := New(Settings{
		Name:             "untracked",
		FailureThreshold: 1,
		IsTracked:        func(error) bool { return false },
	})
	for i := 0; i < 5; i++ {
		c.Execute(failFn)
	}
	if c.State() != StateClosed {
		t.Fatalf("state = %v, want Closed (errors untracked)", c.State())
	}
}

func TestHardResetIdempotent(t *testing.T) {
	c, _ := New(Settings{Name: "hard", FailureThreshold: 1})
	c.Execute(failFn)
	if c.State() != StateOpen {
		t.Fatal("expected Open before HardReset")
	}
	c.HardReset()
	c.HardReset()
	if c.State() != StateClosed {
		t.Fatalf("state = %v, want Closed", c.State())
	}
}

func TestForceOpenForceClose(t *testing.T) {
	c, _ := New(Settings{Name: "force"})
	c.ForceOpen()
	if c.State() != StateOpen {
		t.Fatal("expected Open after ForceOpen")
	}
	if err := c.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if c.State() != StateClosed {
		t.Fatal("expected Closed after Reset")
	}
}

func TestNullStorageNeverTrips(t *testing.T) {
	c, _ := New(Settings{
		Name:             "null-backed",
		FailureThreshold: 1,
		Storage:          Null{},
	})
	for i := 0; i < 1000; i++ {
		c.Execute(failFn)
	}
	if c.State() != StateClosed {
		t.Fatalf("state = %v, want Closed (Null storage always reads 0)", c.State())
	}
}

func TestConfigurationErrorOnMissingName(t *testing.T) {
	_, err := New(Settings{})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
}

func TestResetTimeoutJitterZeroIsExactNotDefaulted(t *testing.T) {
	c, err := New(Settings{
		Name:               "exact",
		ResetTimeoutJitter: Float64Ptr(0),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.cfg().ResetTimeoutJitter; got == nil || *got != 0 {
		t.Fatalf("ResetTimeoutJitter = %v, want explicit 0 preserved", got)
	}
}

func TestResetTimeoutJitterUnsetDefaultsToPointTwoFive(t *testing.T) {
	c, err := New(Settings{Name: "defaulted"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.cfg().ResetTimeoutJitter; got == nil || *got != 0.25 {
		t.Fatalf("ResetTimeoutJitter = %v, want defaulted 0.25", got)
	}
}

func TestCircuitTimeoutErrorOnCooperativeDeadline(t *testing.T) {
	c, err := New(Settings{
		Name:             "cooperative",
		FailureThreshold: 100,
		Timeout:          5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, execErr := c.Execute(func() (any, error) {
		time.Sleep(50 * time.Millisecond)
		return "too slow", nil
	})
	var timeoutErr *CircuitTimeoutError
	if !errors.As(execErr, &timeoutErr) {
		t.Fatalf("err = %v, want errors.As match on *CircuitTimeoutError", execErr)
	}
	if timeoutErr.Name != "cooperative" {
		t.Fatalf("timeoutErr.Name = %q, want %q", timeoutErr.Name, "cooperative")
	}
}
