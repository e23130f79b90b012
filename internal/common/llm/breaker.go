package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"connector-workers/internal/common/logger"
	"connector-workers/internal/common/metrics"
)

type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func stateOf(s gobreaker.State) CircuitState {
	switch s {
	case gobreaker.StateOpen:
		return CircuitOpen
	case gobreaker.StateHalfOpen:
		return CircuitHalfOpen
	default:
		return CircuitClosed
	}
}

// CircuitBreaker opens after failureThreshold consecutive failures and lets a
// single trial request through once recoveryTimeout has passed. Caller cancellations
// do not count as failures.
type CircuitBreaker struct {
	name   string
	cb     *gobreaker.CircuitBreaker[string]
	logger logger.Logger
}

func NewCircuitBreaker(name string, failureThreshold int, recoveryTimeout time.Duration, log logger.Logger) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 3
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = 30 * time.Second
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	b := &CircuitBreaker{
		name:   name,
		logger: log.WithFields(map[string]interface{}{"breaker": name}),
	}
	threshold := uint32(failureThreshold)
	b.cb = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     recoveryTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: b.onStateChange,
	})
	metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(CircuitClosed))
	return b
}

// Execute runs fn unless the circuit is open or a half-open trial request is
// already in flight, in which case it returns ErrCircuitOpen.
func (b *CircuitBreaker) Execute(fn func() (string, error)) (string, error) {
	text, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", ErrCircuitOpen
	}
	return text, err
}

func (b *CircuitBreaker) State() CircuitState {
	return stateOf(b.cb.State())
}

func (b *CircuitBreaker) Stats() map[string]interface{} {
	counts := b.cb.Counts()
	return map[string]interface{}{
		"name":                 b.name,
		"state":                b.State().String(),
		"consecutive_failures": counts.ConsecutiveFailures,
		"total_requests":       counts.Requests,
		"total_failures":       counts.TotalFailures,
	}
}

// onStateChange runs under the breaker's lock and must not call back into it.
func (b *CircuitBreaker) onStateChange(name string, from, to gobreaker.State) {
	state := stateOf(to)
	metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(state))

	fields := map[string]interface{}{
		"from": stateOf(from).String(),
		"to":   state.String(),
	}
	switch state {
	case CircuitOpen:
		b.logger.Warn("circuit breaker opened", fields)
	case CircuitHalfOpen:
		b.logger.Info("circuit breaker half-open, admitting a trial request", fields)
	default:
		b.logger.Info("circuit breaker closed after a successful trial request", fields)
	}
}

// Guarded runs every call through a breaker.
type Guarded struct {
	next    Completer
	breaker *CircuitBreaker
}

func NewGuarded(next Completer, breaker *CircuitBreaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

func (g *Guarded) Complete(ctx context.Context, req Request) (string, error) {
	return g.breaker.Execute(func() (string, error) {
		return g.next.Complete(ctx, req)
	})
}

func (g *Guarded) Breaker() *CircuitBreaker {
	return g.breaker
}
