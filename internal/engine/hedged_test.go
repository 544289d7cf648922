package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunHedgedFirstAttemptWinsWithoutDelay(t *testing.T) {
	called := make([]bool, 2)
	backends := []func() (any, error){
		func() (any, error) { called[0] = true; return "primary", nil },
		func() (any, error) { called[1] = true; time.Sleep(50 * time.Millisecond); return "secondary", nil },
	}
	v, err := RunHedged(context.Background(), 10*time.Millisecond, 2, backends)
	if err != nil || v != "primary" {
		t.Fatalf("v=%v err=%v, want (primary, nil)", v, err)
	}
}

func TestRunHedgedFallsBackToLaterAttempt(t *testing.T) {
	errPrimary := errors.New("primary down")
	backends := []func() (any, error){
		func() (any, error) { return nil, errPrimary },
		func() (any, error) { return "secondary", nil },
	}
	v, err := RunHedged(context.Background(), 5*time.Millisecond, 2, backends)
	if err != nil || v != "secondary" {
		t.Fatalf("v=%v err=%v, want (secondary, nil)", v, err)
	}
}

func TestRunHedgedAllFailReturnsLastError(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")
	backends := []func() (any, error){
		func() (any, error) { return nil, errA },
		func() (any, error) { return nil, errB },
	}
	_, err := RunHedged(context.Background(), 5*time.Millisecond, 2, backends)
	if err == nil {
		t.Fatal("expected an error when all attempts fail")
	}
}

func TestRunHedgedMaxRequestsCapsAttempts(t *testing.T) {
	var launched int
	backends := []func() (any, error){
		func() (any, error) { launched++; return nil, errors.New("1") },
		func() (any, error) { launched++; return nil, errors.New("2") },
		func() (any, error) { launched++; return nil, errors.New("3") },
	}
	_, err := RunHedged(context.Background(), 5*time.Millisecond, 1, backends)
	if err == nil {
		t.Fatal("expected error")
	}
	time.Sleep(20 * time.Millisecond)
	if launched != 1 {
		t.Fatalf("launched = %d, want 1 (maxRequests=1 caps at the primary attempt)", launched)
	}
}

func TestRunHedgedRequiresAtLeastOneBackend(t *testing.T) {
	_, err := RunHedged(context.Background(), time.Millisecond, 1, nil)
	var cfgErr *ConfigurationError
	if err == nil {
		t.Fatal("expected ConfigurationError")
	}
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
}

func TestRunHedgedContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backends := []func() (any, error){
		func() (any, error) { time.Sleep(time.Second); return "late", nil },
	}
	cancel()
	_, err := RunHedged(ctx, time.Millisecond, 1, backends)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
