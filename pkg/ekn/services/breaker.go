package services

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	apperrors "github.com/enliterator/enliterator/internal/errors"
)

// Breaker wraps one external collaborator's calls in a circuit breaker so a
// failing Rights/Extraction/Embedding backend degrades to fast
// ExternalTransient errors (retriable at the stage level, spec.md §7) rather
// than letting every in-flight item block on the service's own timeout.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker configures a breaker that trips after 5 consecutive failures
// and probes again after 30 seconds, matching the "external service degraded"
// shape the spec's ExternalTransient kind is meant to absorb.
func NewBreaker(name string) *Breaker {
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(st)}
}

// Do executes fn through the breaker, translating an open-circuit rejection
// into the spec's ExternalTransient error kind (retriable, back off and
// retry the stage per spec.md §7).
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "circuit breaker open")
		}
		return nil, err
	}
	return result, nil
}
