package maturity_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/maturity"
)

var _ = Describe("Assess", func() {
	It("reports M0 for a batch that does not exist", func() {
		Expect(maturity.Assess(maturity.Snapshot{})).To(Equal(maturity.M0RawIntake))
	})

	It("reports M0 when the batch exists but no items have completed triage (scenario 6 boundary)", func() {
		s := maturity.Snapshot{BatchExists: true}
		Expect(maturity.Assess(s)).To(Equal(maturity.M0RawIntake))
	})

	It("reports M1 after rights are assigned and triage completed (spec scenario: after Stage 2)", func() {
		s := maturity.Snapshot{BatchExists: true, RightsRecordCount: 10, ItemsTriageCompleted: 10}
		Expect(maturity.Assess(s)).To(Equal(maturity.M1RightsAssigned))
	})

	It("reports M2 once canonical terms exist but no pool entities", func() {
		s := maturity.Snapshot{BatchExists: true, RightsRecordCount: 10, ItemsTriageCompleted: 10, CanonicalTermCount: 5}
		Expect(maturity.Assess(s)).To(Equal(maturity.M2LexiconExtracted))
	})

	It("reports M3 after pool extraction (spec scenario: after Stage 4)", func() {
		s := maturity.Snapshot{
			BatchExists: true, RightsRecordCount: 10, ItemsTriageCompleted: 10,
			CanonicalTermCount: 5, PoolEntityCount: 20,
		}
		Expect(maturity.Assess(s)).To(Equal(maturity.M3EntitiesIdentified))
	})

	It("reports M4 after graph assembly (spec scenario: after Stage 5)", func() {
		s := maturity.Snapshot{
			BatchExists: true, RightsRecordCount: 10, ItemsTriageCompleted: 10,
			CanonicalTermCount: 5, PoolEntityCount: 20, GraphNodeCount: 20,
		}
		Expect(maturity.Assess(s)).To(Equal(maturity.M4GraphAssembled))
	})

	It("reports M5 when embeddings exist but literacy score is below threshold", func() {
		s := maturity.Snapshot{
			BatchExists: true, RightsRecordCount: 10, ItemsTriageCompleted: 10,
			CanonicalTermCount: 5, PoolEntityCount: 20, GraphNodeCount: 20,
			EmbeddingCount: 20, LiteracyScore: 40,
		}
		Expect(maturity.Assess(s)).To(Equal(maturity.M5EmbeddingsComplete))
	})

	It("reports M6 with a literacy score of 82 (spec scenario: after Stage 6)", func() {
		s := maturity.Snapshot{
			BatchExists: true, RightsRecordCount: 10, ItemsTriageCompleted: 10,
			CanonicalTermCount: 5, PoolEntityCount: 20, GraphNodeCount: 20,
			EmbeddingCount: 20, LiteracyScore: 82,
		}
		Expect(maturity.Assess(s)).To(Equal(maturity.M6FullyLiterate))
	})
})
