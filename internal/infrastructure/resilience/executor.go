package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Verdict tells the executor how to treat a failure: whether the call may
// be retried, and whether the breaker should count it against the
// dependency's health.
type Verdict struct {
	Retryable     bool
	CountsAgainst bool
}

// Classifier maps a dependency error to its Verdict.
type Classifier func(err error) Verdict

// Executor wraps calls to one external dependency with bounded retries and
// a circuit breaker. One executor guards one dependency; operations share
// its breaker state.
type Executor struct {
	name     string
	policy   Policy
	classify Classifier
	breaker  *gobreaker.CircuitBreaker[any]
}

func NewExecutor(name string, policy Policy, classify Classifier) *Executor {
	policy = policy.normalize()
	if classify == nil {
		classify = func(error) Verdict { return Verdict{CountsAgainst: true} }
	}

	e := &Executor{name: name, policy: policy, classify: classify}
	if policy.BreakerEnabled {
		e.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        name,
			MaxRequests: policy.BreakerHalfOpenCalls,
			Timeout:     policy.BreakerOpenFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < policy.BreakerMinCalls {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= policy.BreakerFailureRatio
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !classify(err).CountsAgainst
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit_breaker_transition", "dependency", name, "from", from.String(), "to", to.String())
			},
		})
	}
	return e
}

func (e *Executor) Run(ctx context.Context, operation string, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("resilience: nil operation %q", operation)
	}
	if e.breaker == nil {
		return e.runWithRetry(ctx, operation, fn)
	}
	_, err := e.breaker.Execute(func() (any, error) {
		return nil, e.runWithRetry(ctx, operation, fn)
	})
	return err
}

func (e *Executor) runWithRetry(ctx context.Context, operation string, fn func(context.Context) error) error {
	wait := e.policy.RetryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= e.policy.RetryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !e.classify(lastErr).Retryable || attempt == e.policy.RetryAttempts {
			return lastErr
		}

		slog.Warn("retrying_operation",
			"dependency", e.name,
			"operation", operation,
			"attempt", attempt,
			"delay", wait.String(),
			"error", lastErr,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}

		wait *= 2
		if wait > e.policy.RetryMaxDelay {
			wait = e.policy.RetryMaxDelay
		}
	}
	return lastErr
}

// IsCircuitOpen reports whether the error came from an open or saturated
// breaker rather than the dependency itself.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
