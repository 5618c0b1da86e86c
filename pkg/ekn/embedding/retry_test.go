package embedding_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/enliterator/enliterator/pkg/ekn/embedding"
)

var _ = Describe("Retry Mechanism", func() {
	var (
		logger *logrus.Logger
		ctx    context.Context
	)

	BeforeEach(func() {
		logger = logrus.New()
		logger.SetLevel(logrus.FatalLevel)
		ctx = context.Background()
	})

	Describe("RetryConfig", func() {
		It("DefaultRetryConfig provides sensible defaults", func() {
			config := embedding.DefaultRetryConfig()
			Expect(config.MaxAttempts).To(Equal(3))
			Expect(config.InitialDelay).To(Equal(100 * time.Millisecond))
			Expect(config.MaxDelay).To(Equal(5 * time.Second))
			Expect(config.BackoffMultiplier).To(Equal(2.0))
			Expect(config.Jitter).To(BeTrue())
		})

		It("EmbeddingRetryConfig provides embedding-optimized defaults", func() {
			config := embedding.EmbeddingRetryConfig()
			Expect(config.MaxAttempts).To(Equal(5))
			Expect(config.InitialDelay).To(Equal(250 * time.Millisecond))
			Expect(config.MaxDelay).To(Equal(10 * time.Second))
			Expect(config.BackoffMultiplier).To(Equal(1.5))
			Expect(config.Jitter).To(BeTrue())
		})
	})

	Describe("IsRetryableError", func() {
		It("identifies retryable message patterns", func() {
			for _, msg := range []string{
				"connection refused", "Connection Reset by peer", "TIMEOUT: exceeded",
				"temporary failure in name resolution", "too many connections",
				"deadlock detected", "lock timeout exceeded",
			} {
				Expect(embedding.IsRetryableError(errors.New(msg))).To(BeTrue(), msg)
			}
		})

		It("does not retry non-retryable patterns", func() {
			for _, msg := range []string{"syntax error", "permission denied", "authentication failed"} {
				Expect(embedding.IsRetryableError(errors.New(msg))).To(BeFalse(), msg)
			}
		})

		It("returns false for nil", func() {
			Expect(embedding.IsRetryableError(nil)).To(BeFalse())
		})

		It("does not retry context cancellation", func() {
			Expect(embedding.IsRetryableError(context.Canceled)).To(BeFalse())
		})

		It("retries a deadline exceeded error", func() {
			Expect(embedding.IsRetryableError(context.DeadlineExceeded)).To(BeTrue())
		})

		It("respects an explicit RetryableError wrapper", func() {
			base := errors.New("base error")
			Expect(embedding.IsRetryableError(embedding.WrapRetryableError(base, true, "probe"))).To(BeTrue())
			Expect(embedding.IsRetryableError(embedding.WrapRetryableError(base, false, "probe"))).To(BeFalse())
		})

		It("returns nil when wrapping a nil cause", func() {
			Expect(embedding.WrapRetryableError(nil, true, "x")).To(BeNil())
		})
	})

	Describe("Retrier", func() {
		config := embedding.RetryConfig{
			MaxAttempts: 3, InitialDelay: 5 * time.Millisecond, MaxDelay: 50 * time.Millisecond,
			BackoffMultiplier: 2.0, Jitter: false,
		}

		It("executes once on success", func() {
			retrier := embedding.NewRetrier(config, logger)
			calls := 0
			result, err := retrier.ExecuteWithType(ctx, func(ctx context.Context, attempt int) (any, error) {
				calls++
				return "success", nil
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal("success"))
			Expect(calls).To(Equal(1))
		})

		It("retries retryable errors until success", func() {
			retrier := embedding.NewRetrier(config, logger)
			calls := 0
			result, err := retrier.ExecuteWithType(ctx, func(ctx context.Context, attempt int) (any, error) {
				calls++
				if attempt < 3 {
					return nil, errors.New("connection refused")
				}
				return "recovered", nil
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal("recovered"))
			Expect(calls).To(Equal(3))
		})

		It("fails after max attempts for a persistently retryable error", func() {
			retrier := embedding.NewRetrier(config, logger)
			calls := 0
			_, err := retrier.ExecuteWithType(ctx, func(ctx context.Context, attempt int) (any, error) {
				calls++
				return nil, errors.New("connection timeout")
			})
			Expect(err).To(HaveOccurred())
			Expect(calls).To(Equal(3))
			Expect(err.Error()).To(ContainSubstring("operation failed after 3 attempts"))
		})

		It("fails immediately on a non-retryable error", func() {
			retrier := embedding.NewRetrier(config, logger)
			calls := 0
			_, err := retrier.ExecuteWithType(ctx, func(ctx context.Context, attempt int) (any, error) {
				calls++
				return nil, errors.New("syntax error")
			})
			Expect(err).To(HaveOccurred())
			Expect(calls).To(Equal(1))
			Expect(err.Error()).To(ContainSubstring("non-retryable error"))
		})

		It("handles a nil logger without panicking", func() {
			retrier := embedding.NewRetrier(config, nil)
			_, err := retrier.ExecuteWithType(ctx, func(ctx context.Context, attempt int) (any, error) {
				return "ok", nil
			})
			Expect(err).ToNot(HaveOccurred())
		})
	})

	Describe("RetryIfNeeded", func() {
		It("wraps a simple error-only function", func() {
			calls := 0
			op := func() error {
				calls++
				if calls < 2 {
					return errors.New("temporary failure")
				}
				return nil
			}
			err := embedding.RetryIfNeeded(ctx, embedding.RetryConfig{
				MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond,
				BackoffMultiplier: 2.0, Jitter: false,
			}, logger, op)
			Expect(err).ToNot(HaveOccurred())
			Expect(calls).To(Equal(2))
		})
	})

	Describe("RetryableError", func() {
		It("unwraps to the original cause", func() {
			base := errors.New("original error")
			wrapped := embedding.WrapRetryableError(base, true, "reason")
			Expect(wrapped.Error()).To(ContainSubstring("retryable=true"))
			Expect(wrapped.Error()).To(ContainSubstring("reason"))
			Expect(errors.Unwrap(wrapped)).To(Equal(base))
			Expect(errors.Is(wrapped, base)).To(BeTrue())
		})
	})
})
