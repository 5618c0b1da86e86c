package maturity_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/maturity"
)

var _ = Describe("Compute", func() {
	It("computes idea coverage as a percentage", func() {
		m := maturity.Compute(maturity.CoverageInputs{IdeaCount: 10, CoveredIdeaCount: 4})
		Expect(m.IdeaCoverage).To(BeNumerically("~", 40.0, 0.001))
	})

	It("computes average degree and orphan share", func() {
		m := maturity.Compute(maturity.CoverageInputs{NodeDegrees: []int{0, 1, 2, 3}})
		Expect(m.AverageNodeDegree).To(BeNumerically("~", 1.5, 0.001))
		Expect(m.OrphanShare).To(BeNumerically("~", 25.0, 0.001))
	})

	It("computes path completeness within the 3-hop bound", func() {
		m := maturity.Compute(maturity.CoverageInputs{
			IdeaToManifestHopCounts:     []int{1, 2, 3, 4},
			IdeaCountWithManifestTarget: 4,
		})
		Expect(m.PathCompleteness).To(BeNumerically("~", 75.0, 0.001))
	})

	It("computes temporal coverage across a year range", func() {
		m := maturity.Compute(maturity.CoverageInputs{YearsPresent: []int{2000, 2002}, YearMin: 2000, YearMax: 2004})
		Expect(m.TemporalCoverage).To(BeNumerically("~", 40.0, 0.001))
	})

	It("computes spatial coverage as a ratio of total entities", func() {
		m := maturity.Compute(maturity.CoverageInputs{SpatialEntityCount: 3, TotalEntityCount: 12})
		Expect(m.SpatialCoverage).To(BeNumerically("~", 25.0, 0.001))
	})

	It("computes zero coefficient of variation for a perfectly balanced pool distribution", func() {
		m := maturity.Compute(maturity.CoverageInputs{PoolCounts: map[string]int{"Idea": 10, "Manifest": 10, "Experience": 10}})
		Expect(m.PoolDistributionBalance).To(BeNumerically("~", 0.0, 0.001))
	})

	It("computes a positive coefficient of variation for an imbalanced distribution", func() {
		m := maturity.Compute(maturity.CoverageInputs{PoolCounts: map[string]int{"Idea": 1, "Manifest": 100}})
		Expect(m.PoolDistributionBalance).To(BeNumerically(">", 0))
	})

	It("handles empty inputs without dividing by zero", func() {
		m := maturity.Compute(maturity.CoverageInputs{})
		Expect(m.IdeaCoverage).To(Equal(0.0))
		Expect(m.AverageNodeDegree).To(Equal(0.0))
		Expect(m.OrphanShare).To(Equal(0.0))
		Expect(m.PathCompleteness).To(Equal(0.0))
		Expect(m.TemporalCoverage).To(Equal(0.0))
		Expect(m.SpatialCoverage).To(Equal(0.0))
		Expect(m.PoolDistributionBalance).To(Equal(0.0))
	})
})
