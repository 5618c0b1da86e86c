package runner_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/enliterator/enliterator/pkg/ekn/runner"
)

var _ = Describe("RunCache", func() {
	var (
		mr     *miniredis.Miniredis
		client *redis.Client
		cache  *runner.RunCache
	)

	BeforeEach(func() {
		var err error
		mr, err = miniredis.Run()
		Expect(err).ToNot(HaveOccurred())
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		cache = runner.NewRunCache(client, time.Hour)
	})

	AfterEach(func() {
		client.Close()
		mr.Close()
	})

	It("round-trips a cached value", func() {
		type lexiconDraft struct {
			Terms []string `json:"terms"`
		}
		in := lexiconDraft{Terms: []string{"myth", "ritual"}}
		Expect(cache.Set(context.Background(), 10, "lexicon-draft", in)).To(Succeed())

		var out lexiconDraft
		found, err := cache.Get(context.Background(), 10, "lexicon-draft", &out)
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(out).To(Equal(in))
	})

	It("reports not found for a missing key", func() {
		var out map[string]string
		found, err := cache.Get(context.Background(), 11, "missing", &out)
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("clears every entry scoped to a run without touching other runs", func() {
		Expect(cache.Set(context.Background(), 20, "a", "x")).To(Succeed())
		Expect(cache.Set(context.Background(), 20, "b", "y")).To(Succeed())
		Expect(cache.Set(context.Background(), 21, "a", "z")).To(Succeed())

		Expect(cache.Clear(context.Background(), 20)).To(Succeed())

		var out string
		found, err := cache.Get(context.Background(), 20, "a", &out)
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeFalse())

		found, err = cache.Get(context.Background(), 21, "a", &out)
		Expect(err).ToNot(HaveOccurred())
		Expect(found).To(BeTrue())
		Expect(out).To(Equal("z"))
	})
})
