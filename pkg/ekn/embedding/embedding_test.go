package embedding_test

import (
	"context"
	"errors"

	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/embedding"
)

var fastRetryConfig = embedding.RetryConfig{
	MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond,
	BackoffMultiplier: 1.0, Jitter: false,
}

type fakeEmbeddingService struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbeddingService) Encode(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbeddingService) Dimensions() int { return 4 }
func (f *fakeEmbeddingService) ModelID() string { return "fake-model" }

var _ = Describe("Embedder", func() {
	It("returns the service's vector on success", func() {
		svc := &fakeEmbeddingService{vector: []float32{0.1, 0.2, 0.3, 0.4}}
		e := embedding.NewEmbedderWithRetryConfig(svc, fastRetryConfig, logr.Discard())
		result := e.Embed(context.Background(), "some representative text")
		Expect(result.FallbackUsed).To(BeFalse())
		Expect(result.Vector).To(Equal(svc.vector))
	})

	It("falls back to a deterministic vector when the service is persistently unavailable", func() {
		svc := &fakeEmbeddingService{err: errors.New("connection refused")}
		e := embedding.NewEmbedderWithRetryConfig(svc, fastRetryConfig, logr.Discard())
		result := e.Embed(context.Background(), "repeatable text")
		Expect(result.FallbackUsed).To(BeTrue())
		Expect(result.Vector).To(HaveLen(4))

		again := e.Embed(context.Background(), "repeatable text")
		Expect(again.Vector).To(Equal(result.Vector))
	})

	It("produces different fallback vectors for different text", func() {
		svc := &fakeEmbeddingService{err: errors.New("connection refused")}
		e := embedding.NewEmbedderWithRetryConfig(svc, fastRetryConfig, logr.Discard())
		a := e.Embed(context.Background(), "text one")
		b := e.Embed(context.Background(), "text two")
		Expect(a.Vector).ToNot(Equal(b.Vector))
	})
})
