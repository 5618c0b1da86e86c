package maturity_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/maturity"
)

var _ = Describe("Gap classification", func() {
	It("classifies a degree-0 node as an orphan at high severity", func() {
		g, ok := maturity.ClassifyDegreeGap("node-1", 0)
		Expect(ok).To(BeTrue())
		Expect(g.Type).To(Equal(maturity.GapOrphan))
		Expect(g.Severity).To(Equal(maturity.SeverityHigh))
		Expect(g.EntityRef).To(Equal("node-1"))
	})

	It("classifies a degree-1 node as sparse at low severity", func() {
		g, ok := maturity.ClassifyDegreeGap("node-2", 1)
		Expect(ok).To(BeTrue())
		Expect(g.Type).To(Equal(maturity.GapSparse))
		Expect(g.Severity).To(Equal(maturity.SeverityLow))
	})

	It("reports no gap for a well-connected node", func() {
		_, ok := maturity.ClassifyDegreeGap("node-3", 4)
		Expect(ok).To(BeFalse())
	})

	It("classifies an unknown license as ambiguous rights at medium severity", func() {
		g, ok := maturity.ClassifyRightsGap("item-1", 0.9, true)
		Expect(ok).To(BeTrue())
		Expect(g.Type).To(Equal(maturity.GapAmbiguousRights))
		Expect(g.Severity).To(Equal(maturity.SeverityMedium))
	})

	It("classifies low confidence as ambiguous rights at high severity", func() {
		g, ok := maturity.ClassifyRightsGap("item-2", 0.3, false)
		Expect(ok).To(BeTrue())
		Expect(g.Severity).To(Equal(maturity.SeverityHigh))
	})

	It("classifies sub-permissive confidence as ambiguous rights at medium severity", func() {
		g, ok := maturity.ClassifyRightsGap("item-3", 0.6, false)
		Expect(ok).To(BeTrue())
		Expect(g.Severity).To(Equal(maturity.SeverityMedium))
	})

	It("reports no rights gap for a confident, known-license record", func() {
		_, ok := maturity.ClassifyRightsGap("item-4", 0.95, false)
		Expect(ok).To(BeFalse())
	})

	It("classifies a missing year as a temporal gap", func() {
		g := maturity.ClassifyTemporalGap(1998)
		Expect(g.Type).To(Equal(maturity.GapTemporal))
		Expect(g.EntityRef).To(Equal("1998"))
	})

	It("classifies a missing canonical term", func() {
		g := maturity.ClassifyMissingCanonical("term-1")
		Expect(g.Type).To(Equal(maturity.GapMissingCanonical))
		Expect(g.Severity).To(Equal(maturity.SeverityMedium))
	})

	It("classifies a missing embedding", func() {
		g := maturity.ClassifyMissingEmbedding("entity-1")
		Expect(g.Type).To(Equal(maturity.GapMissingEmbedding))
	})
})

var _ = Describe("PriorityScore", func() {
	It("sums type weight times severity factor across the five weighted gap types", func() {
		gaps := []maturity.Gap{
			{Type: maturity.GapOrphan, Severity: maturity.SeverityHigh},          // 0.30 * 0.8
			{Type: maturity.GapMissingCanonical, Severity: maturity.SeverityMedium}, // 0.25 * 0.6
		}
		Expect(maturity.PriorityScore(gaps)).To(BeNumerically("~", 0.30*0.8+0.25*0.6, 0.0001))
	})

	It("excludes missing_embedding gaps from the weighted sum regardless of severity", func() {
		withEmbeddingGap := []maturity.Gap{
			{Type: maturity.GapOrphan, Severity: maturity.SeverityHigh},
			{Type: maturity.GapMissingEmbedding, Severity: maturity.SeverityCritical},
		}
		withoutEmbeddingGap := []maturity.Gap{
			{Type: maturity.GapOrphan, Severity: maturity.SeverityHigh},
		}
		Expect(maturity.PriorityScore(withEmbeddingGap)).To(Equal(maturity.PriorityScore(withoutEmbeddingGap)))
	})

	It("returns zero for an empty gap list", func() {
		Expect(maturity.PriorityScore(nil)).To(Equal(0.0))
	})
})
