// Package circuitbreaker protects upstream calls by refusing them after
// repeated failures, probing again once a cool-down has elapsed.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the circuit refuses a call without running it.
var ErrOpen = errors.New("circuit breaker open")

// State is the circuit breaker state (Closed, Open, HalfOpen).
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreaker opens after FailureThreshold consecutive counted failures
// and closes again after SuccessThreshold successful probes in half-open.
type CircuitBreaker struct {
	mu              sync.RWMutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time

	failureThreshold int
	successThreshold int
	timeout          time.Duration
	component        string
	isFailure        func(error) bool
	onStateChange    func(from, to State)
}

// Config holds circuit breaker parameters. IsFailure decides which errors
// count against the breaker; when nil every error counts. Client-side errors
// like a bad place name should not trip an upstream-health breaker.
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	Component        string
	IsFailure        func(error) bool
	OnStateChange    func(from, to State)
}

// New creates a new CircuitBreaker with the given config.
func New(cfg Config) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: cfg.FailureThreshold,
		successThreshold: cfg.SuccessThreshold,
		timeout:          cfg.Timeout,
		component:        cfg.Component,
		isFailure:        cfg.IsFailure,
		onStateChange:    cfg.OnStateChange,
	}
}

// Call runs fn when the circuit allows it. When open, returns ErrOpen unless
// the cool-down has elapsed (then transitions to half-open and probes).
func (cb *CircuitBreaker) Call(ctx context.Context, fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen {
		if time.Since(cb.lastFailureTime) < cb.timeout {
			cb.mu.Unlock()
			return ErrOpen
		}
		cb.transition(StateHalfOpen)
		cb.successCount = 0
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.isFailure(err) {
		cb.failureCount++
		cb.lastFailureTime = time.Now()
		if cb.state == StateHalfOpen || cb.failureCount >= cb.failureThreshold {
			cb.transition(StateOpen)
			cb.failureCount = 0
		}
		return err
	}
	if err != nil {
		// Uncounted error: upstream answered, the answer was just unwelcome.
		return err
	}

	cb.successCount++
	cb.failureCount = 0
	if cb.state == StateHalfOpen && cb.successCount >= cb.successThreshold {
		cb.transition(StateClosed)
		cb.successCount = 0
	}
	return nil
}

// transition must be called with cb.mu held.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if cb.onStateChange != nil {
		cb.onStateChange(from, to)
	}
}

// State returns the current state (for metrics).
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}
