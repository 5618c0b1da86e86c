package maturity_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/maturity"
)

var _ = Describe("AcceptanceGate", func() {
	It("evaluates true when the jq expression yields true", func() {
		g, err := maturity.CompileGate("always_true", ".count > 0")
		Expect(err).NotTo(HaveOccurred())

		ok, err := g.Evaluate(context.Background(), map[string]any{"count": 5})
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("evaluates false when the jq expression yields false", func() {
		g, err := maturity.CompileGate("always_false", ".count > 0")
		Expect(err).NotTo(HaveOccurred())

		ok, err := g.Evaluate(context.Background(), map[string]any{"count": 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("rejects a malformed jq expression at compile time", func() {
		_, err := maturity.CompileGate("broken", "this is not jq(")
		Expect(err).To(HaveOccurred())
	})

	It("errors when the expression produces a non-boolean result", func() {
		g, err := maturity.CompileGate("non_bool", ".count")
		Expect(err).NotTo(HaveOccurred())

		_, err = g.Evaluate(context.Background(), map[string]any{"count": 5})
		Expect(err).To(HaveOccurred())
	})

	Describe("StandardGates", func() {
		It("tolerates zero entities_created when there were no eligible items", func() {
			g, err := maturity.CompileGate("pool_extraction", maturity.StandardGates["pool_extraction"])
			Expect(err).NotTo(HaveOccurred())

			ok, err := g.Evaluate(context.Background(), map[string]any{"entities_created": 0, "eligible_items": 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("fails when zero entities were created despite eligible items existing", func() {
			g, err := maturity.CompileGate("pool_extraction", maturity.StandardGates["pool_extraction"])
			Expect(err).NotTo(HaveOccurred())

			ok, err := g.Evaluate(context.Background(), map[string]any{"entities_created": 0, "eligible_items": 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("tolerates zero terms_extracted when there were no eligible items", func() {
			g, err := maturity.CompileGate("lexicon_bootstrap", maturity.StandardGates["lexicon_bootstrap"])
			Expect(err).NotTo(HaveOccurred())

			ok, err := g.Evaluate(context.Background(), map[string]any{"terms_extracted": 0, "eligible_items": 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("compiles every built-in gate without panicking", func() {
			Expect(func() { maturity.MustCompileStandardGates() }).NotTo(Panic())
			gates := maturity.MustCompileStandardGates()
			Expect(gates).To(HaveKey("lexicon_bootstrap"))
			Expect(gates).To(HaveKey("pool_extraction"))
		})
	})
})
