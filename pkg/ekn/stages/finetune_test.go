package stages_test

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/rights"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
	"github.com/enliterator/enliterator/pkg/ekn/stages"
)

type fakeFineTuneBuilder struct {
	gotBatchID   int64
	gotTrainable []model.Ref
}

func (f *fakeFineTuneBuilder) Build(ctx context.Context, batchID int64, trainingEligible []model.Ref) (stages.FineTuneDatasetSummary, error) {
	f.gotBatchID = batchID
	f.gotTrainable = trainingEligible
	return stages.FineTuneDatasetSummary{"count": len(trainingEligible)}, nil
}

var _ = Describe("FineTuneJob", func() {
	var policy *rights.Policy

	BeforeEach(func() {
		p, err := rights.Compile(context.Background())
		Expect(err).NotTo(HaveOccurred())
		policy = p
	})

	It("reports its stage as Fine-tune Dataset Build and always accepts", func() {
		job := stages.NewFineTuneJob(&fakeDeliverablesStore{}, policy, &fakeFineTuneBuilder{}, logr.Discard())
		Expect(job.Stage()).To(Equal(runner.StageFineTuneDatasetBuild))
		Expect(job.Accepts(nil)).To(BeTrue())
	})

	It("hands the builder only the entities whose rights record allows training", func() {
		store := &fakeDeliverablesStore{
			entitiesByPool: map[model.PoolLabel][]*model.PoolEntity{
				model.PoolManifest: {
					{ID: 1, Pool: model.PoolManifest, ReprText: "trainable", RightsID: 30},
					{ID: 2, Pool: model.PoolManifest, ReprText: "low confidence", RightsID: 40},
				},
			},
			rightsRecords: map[int64]*model.ProvenanceAndRights{
				30: {ID: 30, Publishable: true, TrainingEligible: true, Consent: model.ConsentGranted, Confidence: 0.95, ValidTimeStart: time.Now()},
				40: {ID: 40, Publishable: true, TrainingEligible: true, Consent: model.ConsentGranted, Confidence: 0.3, ValidTimeStart: time.Now()},
			},
		}
		builder := &fakeFineTuneBuilder{}
		job := stages.NewFineTuneJob(store, policy, builder, logr.Discard())

		result, err := job.Run(context.Background(), runner.NewPipelineRun(6))
		Expect(err).NotTo(HaveOccurred())
		Expect(builder.gotBatchID).To(Equal(int64(6)))
		Expect(builder.gotTrainable).To(ConsistOf(model.Ref{Label: string(model.PoolManifest), ID: 1}))
		Expect(result.StageMetrics["entities_trainable"]).To(Equal(float64(1)))
		Expect(result.AcceptancePassed).To(BeTrue())
	})
})
