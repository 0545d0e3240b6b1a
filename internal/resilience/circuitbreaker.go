// Package resilience adapts the gobreaker/go-retry patterns the rest of
// the corpus uses for protecting a flapping dependency, scoped here to
// what the event store and dispatch supervisor need.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// State mirrors gobreaker.State without leaking the dependency into
// callers that only want to log or export it.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

func fromGobreakerState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// ErrOpen is returned by CircuitBreaker.Execute when the circuit is open
// or the half-open request quota is exhausted.
var ErrOpen = errors.New("resilience: circuit breaker open")

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval over which closed-state failure counts reset.
	Interval time.Duration
	// Timeout before an open circuit moves to half-open.
	Timeout time.Duration
	// FailureThreshold of consecutive failures that trips the circuit.
	FailureThreshold uint32
}

// DefaultCircuitBreakerConfig returns sensible defaults for guarding a
// database dependency.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// CircuitBreaker wraps gobreaker with a name and a logger for state
// transitions.
type CircuitBreaker struct {
	name    string
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewCircuitBreaker constructs a CircuitBreaker named name.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig, logger *slog.Logger) *CircuitBreaker {
	if logger == nil {
		logger = slog.Default()
	}
	cb := &CircuitBreaker{name: name, logger: logger}
	cb.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cb.logger.Info("resilience: circuit breaker state changed",
				"name", name, "from", string(fromGobreakerState(from)), "to", string(fromGobreakerState(to)))
		},
	})
	return cb
}

// Execute runs fn under circuit breaker protection, translating
// gobreaker's open-state errors into ErrOpen.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	_, err := cb.breaker.Execute(func() (any, error) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrOpen
	}
	return err
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() State {
	return fromGobreakerState(cb.breaker.State())
}
