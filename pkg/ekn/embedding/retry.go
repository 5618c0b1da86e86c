// Package embedding wires the Embedding Service into the graph store: vector
// index provisioning, per-entity encode-and-store calls with retry, and the
// embeddings_fallback_used metric (spec.md §4.5).
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryConfig bounds retry attempts and backoff for one Embedding Service
// call. Mirrors the retry shape used elsewhere in this codebase's domain
// (deadline-bounded external calls, spec.md §5: "Deadline expiry is a
// retriable error").
type RetryConfig struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	Jitter            bool
}

// DefaultRetryConfig is the general-purpose retry policy for a single
// Embedding Service call.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// EmbeddingRetryConfig is tuned for the Embedding Service's higher default
// deadline (60s, spec.md §5) with more attempts and a longer cap than the
// general default.
func EmbeddingRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       5,
		InitialDelay:      250 * time.Millisecond,
		MaxDelay:          10 * time.Second,
		BackoffMultiplier: 1.5,
		Jitter:            true,
	}
}

var retryableMessageFragments = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"temporary failure",
	"too many connections",
	"deadlock detected",
	"lock timeout",
	"serialization failure",
	"could not serialize access",
	"connection lost",
	"server closed the connection",
	"broken pipe",
	"i/o timeout",
	"network is unreachable",
	"no route to host",
	"rate limit",
	"503",
	"502",
	"500",
}

// IsRetryableError classifies an error as transient (spec.md §7
// ExternalTransient) by sentinel match, explicit RetryableError wrapping, or
// a known substring in its message. context.Canceled is never retryable: the
// caller asked to stop.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var re *RetryableError
	if errors.As(err, &re) {
		return re.retryable
	}
	msg := strings.ToLower(err.Error())
	for _, frag := range retryableMessageFragments {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

// RetryableError wraps an error with an explicit retryable flag and reason,
// overriding message-based classification when the caller already knows the
// answer (e.g. a breaker's open-state rejection).
type RetryableError struct {
	cause     error
	retryable bool
	reason    string
}

// WrapRetryableError returns nil for a nil cause (nothing to wrap) and
// otherwise an explicit retryable/non-retryable classification.
func WrapRetryableError(cause error, retryable bool, reason string) *RetryableError {
	if cause == nil {
		return nil
	}
	return &RetryableError{cause: cause, retryable: retryable, reason: reason}
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable=%v (%s): %v", e.retryable, e.reason, e.cause)
}

func (e *RetryableError) Unwrap() error { return e.cause }

// Operation is one attempt of an Embedding Service call; attempt is 1-based.
type Operation func(ctx context.Context, attempt int) (any, error)

// Retrier executes an Operation with exponential backoff, stopping early on
// a non-retryable error or context cancellation.
type Retrier struct {
	config RetryConfig
	log    *logrus.Logger
}

// NewRetrier builds a Retrier. A nil logger disables attempt logging.
func NewRetrier(config RetryConfig, log *logrus.Logger) *Retrier {
	return &Retrier{config: config, log: log}
}

// ExecuteWithType runs op, retrying retryable failures up to MaxAttempts
// times with exponential backoff capped at MaxDelay. A non-retryable error
// fails immediately on the first attempt it is seen.
func (r *Retrier) ExecuteWithType(ctx context.Context, op Operation) (any, error) {
	maxAttempts := r.config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := op(ctx, attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryableError(err) {
			return nil, fmt.Errorf("non-retryable error: %w", err)
		}
		if attempt == maxAttempts {
			break
		}

		delay := r.backoff(attempt)
		r.logAttempt(attempt, delay, err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("operation failed after %d attempts: %w", maxAttempts, lastErr)
}

func (r *Retrier) backoff(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffMultiplier, float64(attempt-1))
	if cap := float64(r.config.MaxDelay); delay > cap {
		delay = cap
	}
	if r.config.Jitter {
		delay *= 0.5 + rand.Float64()/2
	}
	return time.Duration(delay)
}

func (r *Retrier) logAttempt(attempt int, delay time.Duration, err error) {
	if r.log == nil {
		return
	}
	r.log.WithFields(logrus.Fields{
		"attempt": attempt,
		"delay":   delay,
		"error":   err,
	}).Warn("retrying embedding operation")
}

// RetryIfNeeded is a simple wrapper for callers whose operation returns only
// an error (no result value).
func RetryIfNeeded(ctx context.Context, config RetryConfig, log *logrus.Logger, op func() error) error {
	retrier := NewRetrier(config, log)
	_, err := retrier.ExecuteWithType(ctx, func(ctx context.Context, attempt int) (any, error) {
		return nil, op()
	})
	return err
}
