package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Verdict says how a failed call should be treated.
type Verdict struct {
	Retry         bool
	CountsAsFault bool
}

type Classifier func(err error) Verdict

// Guard runs calls to one external dependency through retry and a
// circuit breaker keyed by operation name.
type Guard struct {
	policy Policy

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewGuard(policy Policy) *Guard {
	return &Guard{
		policy:   policy.withDefaults(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Do runs fn under the guard. A nil Guard runs fn once.
func (g *Guard) Do(ctx context.Context, operation string, fn func(context.Context) error, classify Classifier) error {
	if fn == nil {
		return fmt.Errorf("resilience: nil callback for %q", operation)
	}
	if g == nil {
		return fn(ctx)
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unnamed"
	}
	if classify == nil {
		classify = faultOnly
	}

	if !g.policy.Breaker {
		return g.retry(ctx, op, fn, classify)
	}
	_, err := g.breaker(op, classify).Execute(func() (any, error) {
		return nil, g.retry(ctx, op, fn, classify)
	})
	return err
}

// Call is Do for callbacks that produce a value.
func Call[T any](ctx context.Context, g *Guard, operation string, fn func(context.Context) (T, error), classify Classifier) (T, error) {
	var out T
	err := g.Do(ctx, operation, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	}, classify)
	return out, err
}

func (g *Guard) retry(ctx context.Context, op string, fn func(context.Context) error, classify Classifier) error {
	backoff := g.policy.InitialBackoff

	var err error
	for attempt := 1; attempt <= g.policy.Attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == g.policy.Attempts || !classify(err).Retry {
			return err
		}

		wait := min(backoff, g.policy.MaxBackoff)
		slog.Warn("retrying_operation",
			"operation", op,
			"attempt", attempt,
			"max_attempts", g.policy.Attempts,
			"wait_ms", wait.Milliseconds(),
			"error", err,
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		backoff = min(time.Duration(float64(backoff)*g.policy.Multiplier), g.policy.MaxBackoff)
	}
	return err
}

func (g *Guard) breaker(op string, classify Classifier) *gobreaker.CircuitBreaker[any] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cb, ok := g.breakers[op]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        op,
		MaxRequests: g.policy.HalfOpenMaxRequests,
		Timeout:     g.policy.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < g.policy.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= g.policy.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classify(err).CountsAsFault
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	})
	g.breakers[op] = cb
	return cb
}

// IsOpen reports whether err came from a breaker rejecting the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func faultOnly(error) Verdict {
	return Verdict{CountsAsFault: true}
}
