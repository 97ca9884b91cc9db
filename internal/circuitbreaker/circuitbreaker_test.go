package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream boom")

func failing() error    { return errUpstream }
func succeeding() error { return nil }

// TestOpensAfterFailureThreshold verifies the circuit opens after the
// configured number of consecutive failures and refuses further calls.
func TestOpensAfterFailureThreshold(t *testing.T) {
	cb := New(Config{FailureThreshold: 3, Timeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cb.Call(ctx, failing); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d error = %v, want upstream error", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	if err := cb.Call(ctx, succeeding); !errors.Is(err, ErrOpen) {
		t.Fatalf("open-circuit call error = %v, want ErrOpen", err)
	}
}

// TestRecoversThroughHalfOpen verifies the probe path: after the cool-down a
// call runs, and enough successes close the circuit again.
func TestRecoversThroughHalfOpen(t *testing.T) {
	cb := New(Config{FailureThreshold: 1, SuccessThreshold: 2, Timeout: 10 * time.Millisecond})
	ctx := context.Background()

	_ = cb.Call(ctx, failing)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	if err := cb.Call(ctx, succeeding); err != nil {
		t.Fatalf("probe call error = %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("state after first probe = %v, want half_open", cb.State())
	}
	if err := cb.Call(ctx, succeeding); err != nil {
		t.Fatalf("second probe error = %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed after success threshold", cb.State())
	}
}

// TestHalfOpenFailureReopens verifies a failed probe reopens immediately.
func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(Config{FailureThreshold: 1, Timeout: 10 * time.Millisecond})
	ctx := context.Background()

	_ = cb.Call(ctx, failing)
	time.Sleep(20 * time.Millisecond)

	_ = cb.Call(ctx, failing)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open after failed probe", cb.State())
	}
}

// TestUncountedErrorsDoNotTrip verifies errors excluded by IsFailure pass
// through without opening the circuit.
func TestUncountedErrorsDoNotTrip(t *testing.T) {
	errNotFound := errors.New("not found")
	cb := New(Config{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return err != nil && !errors.Is(err, errNotFound) },
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := cb.Call(ctx, func() error { return errNotFound }); !errors.Is(err, errNotFound) {
			t.Fatalf("error = %v, want errNotFound passed through", err)
		}
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed; not-found must not count", cb.State())
	}
}

// TestStateChangeCallback verifies transitions are reported.
func TestStateChangeCallback(t *testing.T) {
	var transitions []string
	cb := New(Config{
		FailureThreshold: 1,
		Timeout:          time.Hour,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = cb.Call(context.Background(), failing)
	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Fatalf("transitions = %v, want [closed->open]", transitions)
	}
}
