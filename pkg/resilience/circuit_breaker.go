// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/vibemonitor/vibemonitor-go/pkg/errors"
)

// CircuitBreakerState is the current mode of a circuit breaker.
type CircuitBreakerState string

const (
	// StateClosed passes calls through normally.
	StateClosed CircuitBreakerState = "closed"

	// StateOpen rejects calls without touching the backend.
	StateOpen CircuitBreakerState = "open"

	// StateHalfOpen probes whether the backend recovered.
	StateHalfOpen CircuitBreakerState = "half-open"
)

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the consecutive failures before opening.
	FailureThreshold int

	// SuccessThreshold is the successes in half-open before closing.
	SuccessThreshold int

	// Timeout is how long the circuit stays open before half-open.
	Timeout time.Duration

	// Name identifies the breaker in errors and logs.
	Name string
}

// CircuitBreaker sheds load from a failing backend so repeated sync
// attempts do not pile up behind a dead connection.
type CircuitBreaker struct {
	config       CircuitBreakerConfig
	state        CircuitBreakerState
	failures     int
	successes    int
	lastFailTime time.Time
	mu           sync.RWMutex
}

// NewCircuitBreaker creates a breaker with defaults filled in.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold < 1 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold < 1 {
		config.SuccessThreshold = 2
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Name == "" {
		config.Name = "backend"
	}
	return &CircuitBreaker{config: config, state: StateClosed}
}

// Call executes fn when the circuit allows it. An open circuit returns a
// recoverable network error immediately.
func (cb *CircuitBreaker) Call(_ context.Context, fn func() error) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if time.Since(cb.lastFailTime) <= cb.config.Timeout {
			return errors.New(errors.CodeNetwork, "circuit breaker open", nil).
				WithContext("breaker", cb.config.Name)
		}
		cb.state = StateHalfOpen
		cb.failures = 0
		cb.successes = 0
	}

	err := fn()
	if err != nil {
		cb.failures++
		cb.lastFailTime = time.Now()
		if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
			cb.state = StateOpen
			cb.failures = 0
			cb.successes = 0
		}
		return err
	}

	switch cb.state {
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = StateClosed
			cb.failures = 0
			cb.successes = 0
		}
	case StateClosed:
		cb.failures = 0
	}
	return nil
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reset forces the breaker closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
}
