package services_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/services"
)

var _ = Describe("Breaker", func() {
	It("passes through a successful call's result", func() {
		b := services.NewBreaker("test-ok")
		result, err := b.Do(context.Background(), func(ctx context.Context) (any, error) {
			return "ok", nil
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(Equal("ok"))
	})

	It("propagates the underlying error from a failing call", func() {
		b := services.NewBreaker("test-fail")
		wantErr := errors.New("upstream exploded")
		_, err := b.Do(context.Background(), func(ctx context.Context) (any, error) {
			return nil, wantErr
		})
		Expect(err).To(MatchError(wantErr))
	})

	It("opens after consecutive failures and rejects fast", func() {
		b := services.NewBreaker("test-trip")
		failing := func(ctx context.Context) (any, error) {
			return nil, errors.New("down")
		}
		for i := 0; i < 5; i++ {
			_, _ = b.Do(context.Background(), failing)
		}
		_, err := b.Do(context.Background(), func(ctx context.Context) (any, error) {
			return "should not run", nil
		})
		Expect(err).To(HaveOccurred())
	})
})
