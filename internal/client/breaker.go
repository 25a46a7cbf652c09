package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
)

// ErrBreakerOpen is returned when a call is short-circuited by an open breaker.
var ErrBreakerOpen = errors.New("circuit breaker open")

// BreakerSettings configures a Breaker.
type BreakerSettings struct {
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// CallTimeout bounds every individual call.
	CallTimeout time.Duration
}

// Breaker guards calls to one remote service with a timeout and a circuit breaker.
type Breaker struct {
	name        string
	cb          *gobreaker.CircuitBreaker[any]
	callTimeout time.Duration
}

// NewBreaker creates a Breaker. Zero settings fall back to 5 failures, a 30s
// open period and a 3s call timeout.
func NewBreaker(name string, s BreakerSettings) *Breaker {
	if s.MaxFailures == 0 {
		s.MaxFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	if s.CallTimeout <= 0 {
		s.CallTimeout = 3 * time.Second
	}

	maxFailures := s.MaxFailures
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Named("breaker").Warnw("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &Breaker{name: name, cb: cb, callTimeout: s.CallTimeout}
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.name }

// State returns the current breaker state ("closed", "half-open", "open").
func (b *Breaker) State() string { return b.cb.State().String() }

// isBreakerSuccess treats client errors (4xx) as a healthy remote: the call
// failed on its merits, not because the dependency is down.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode < 500
	}
	return false
}

// Execute runs fn under b's timeout and circuit breaker. A nil breaker runs
// fn directly.
func Execute[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	if b == nil {
		return fn(ctx)
	}

	callCtx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	res, err := b.cb.Execute(func() (any, error) {
		return fn(callCtx)
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%s: %w", b.name, ErrBreakerOpen)
		}
		return zero, err
	}

	v, _ := res.(T)
	return v, nil
}
