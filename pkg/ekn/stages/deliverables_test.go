package stages_test

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/rights"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
	"github.com/enliterator/enliterator/pkg/ekn/stages"
)

type fakeDeliverablesStore struct {
	entitiesByPool map[model.PoolLabel][]*model.PoolEntity
	rightsRecords  map[int64]*model.ProvenanceAndRights
}

func (f *fakeDeliverablesStore) ListPoolEntities(ctx context.Context, batchID int64, pool model.PoolLabel) ([]*model.PoolEntity, error) {
	return f.entitiesByPool[pool], nil
}

func (f *fakeDeliverablesStore) GetRightsRecord(ctx context.Context, id int64) (*model.ProvenanceAndRights, error) {
	rec, ok := f.rightsRecords[id]
	if !ok {
		return nil, errors.New("rights record not found")
	}
	return rec, nil
}

type fakeDeliverableBuilder struct {
	gotBatchID     int64
	gotPublishable []model.Ref
	err            error
}

func (f *fakeDeliverableBuilder) Build(ctx context.Context, batchID int64, publishable []model.Ref) (stages.DeliverableSummary, error) {
	f.gotBatchID = batchID
	f.gotPublishable = publishable
	return stages.DeliverableSummary{"note": "ok"}, f.err
}

var _ = Describe("DeliverablesJob", func() {
	var policy *rights.Policy

	BeforeEach(func() {
		p, err := rights.Compile(context.Background())
		Expect(err).NotTo(HaveOccurred())
		policy = p
	})

	It("reports its stage as Deliverables and always accepts", func() {
		job := stages.NewDeliverablesJob(&fakeDeliverablesStore{}, policy, &fakeDeliverableBuilder{}, logr.Discard())
		Expect(job.Stage()).To(Equal(runner.StageDeliverables))
		Expect(job.Accepts(nil)).To(BeTrue())
	})

	It("hands the builder only the entities whose rights record allows publishing", func() {
		store := &fakeDeliverablesStore{
			entitiesByPool: map[model.PoolLabel][]*model.PoolEntity{
				model.PoolIdea: {
					{ID: 1, Pool: model.PoolIdea, ReprText: "public idea", RightsID: 10},
					{ID: 2, Pool: model.PoolIdea, ReprText: "private idea", RightsID: 20},
				},
			},
			rightsRecords: map[int64]*model.ProvenanceAndRights{
				10: {ID: 10, Publishable: true, TrainingEligible: true, Consent: model.ConsentGranted, Confidence: 0.9, ValidTimeStart: time.Now()},
				20: {ID: 20, Publishable: false, TrainingEligible: false, Consent: model.ConsentDenied, Confidence: 0.2, ValidTimeStart: time.Now()},
			},
		}
		builder := &fakeDeliverableBuilder{}
		job := stages.NewDeliverablesJob(store, policy, builder, logr.Discard())

		result, err := job.Run(context.Background(), runner.NewPipelineRun(5))
		Expect(err).NotTo(HaveOccurred())
		Expect(builder.gotBatchID).To(Equal(int64(5)))
		Expect(builder.gotPublishable).To(ConsistOf(model.Ref{Label: string(model.PoolIdea), ID: 1}))
		Expect(result.AcceptancePassed).To(BeTrue())
		Expect(result.StageMetrics["entities_total"]).To(Equal(float64(2)))
		Expect(result.StageMetrics["entities_publishable"]).To(Equal(float64(1)))
		Expect(result.AcceptanceNote).To(Equal("ok"))
	})

	It("propagates a builder failure", func() {
		store := &fakeDeliverablesStore{}
		job := stages.NewDeliverablesJob(store, policy, &fakeDeliverableBuilder{err: errors.New("render failed")}, logr.Discard())

		_, err := job.Run(context.Background(), runner.NewPipelineRun(1))
		Expect(err).To(HaveOccurred())
	})
})
