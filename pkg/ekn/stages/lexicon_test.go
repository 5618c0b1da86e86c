package stages_test

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
	"github.com/enliterator/enliterator/pkg/ekn/services"
	"github.com/enliterator/enliterator/pkg/ekn/stages"
)

type fakeExtractionService struct {
	terms      []services.ExtractedTerm
	termsErr   error
	poolResult services.PoolExtractionResult
	poolErr    error
}

func (f *fakeExtractionService) ExtractTerms(ctx context.Context, itemText string) ([]services.ExtractedTerm, error) {
	return f.terms, f.termsErr
}

func (f *fakeExtractionService) ExtractPool(ctx context.Context, itemText string, lexicon []model.LexiconEntry) (services.PoolExtractionResult, error) {
	return f.poolResult, f.poolErr
}

type fakeLexiconStore struct {
	items       []*model.IngestItem
	upserted    []*model.LexiconEntry
	updated     map[int64]model.StageStatus
	upsertErrAt int
}

func newFakeLexiconStore(items ...*model.IngestItem) *fakeLexiconStore {
	return &fakeLexiconStore{items: items, updated: map[int64]model.StageStatus{}, upsertErrAt: -1}
}

func (f *fakeLexiconStore) ListItemsByBatch(ctx context.Context, batchID int64) ([]*model.IngestItem, error) {
	return f.items, nil
}

func (f *fakeLexiconStore) UpsertLexiconEntry(ctx context.Context, e *model.LexiconEntry) (int64, error) {
	if f.upsertErrAt == len(f.upserted) {
		return 0, errors.New("upsert failed")
	}
	f.upserted = append(f.upserted, e)
	return int64(len(f.upserted)), nil
}

func (f *fakeLexiconStore) UpdateLexicon(ctx context.Context, itemID int64, status model.StageStatus, errMsg string) error {
	f.updated[itemID] = status
	return nil
}

var _ = Describe("LexiconJob", func() {
	It("extracts and upserts every proposed term for an eligible item", func() {
		item := &model.IngestItem{ID: 1, ItemStageStatuses: model.ItemStageStatuses{Triage: model.StatusCompleted}}
		store := newFakeLexiconStore(item)
		service := &fakeExtractionService{terms: []services.ExtractedTerm{
			{SurfaceForm: "ekn", CanonicalTerm: "enliterator", TermType: string(model.PoolIdea)},
			{SurfaceForm: "kg", CanonicalTerm: "knowledge graph", TermType: string(model.PoolIdea)},
		}}
		job := stages.NewLexiconJob(service, store, logr.Discard())

		result, err := job.Run(context.Background(), runner.NewPipelineRun(7))
		Expect(err).NotTo(HaveOccurred())
		Expect(store.upserted).To(HaveLen(2))
		Expect(store.upserted[0].SourceItemID).To(Equal(int64(1)))
		Expect(store.updated[1]).To(Equal(model.StatusCompleted))
		Expect(result.StageMetrics["terms_extracted"]).To(Equal(float64(2)))
	})

	It("skips items that have not completed triage", func() {
		item := &model.IngestItem{ID: 2, ItemStageStatuses: model.ItemStageStatuses{Triage: model.StatusPending}}
		store := newFakeLexiconStore(item)
		job := stages.NewLexiconJob(&fakeExtractionService{}, store, logr.Discard())

		result, _ := job.Run(context.Background(), runner.NewPipelineRun(1))
		Expect(result.Items[0].Skipped).To(BeTrue())
	})

	It("skips items whose lexicon pass already completed", func() {
		item := &model.IngestItem{ID: 3, ItemStageStatuses: model.ItemStageStatuses{Triage: model.StatusCompleted, Lexicon: model.StatusCompleted}}
		store := newFakeLexiconStore(item)
		job := stages.NewLexiconJob(&fakeExtractionService{}, store, logr.Discard())

		result, _ := job.Run(context.Background(), runner.NewPipelineRun(1))
		Expect(result.Items[0].Skipped).To(BeTrue())
	})

	It("fails the item when a canonical term cannot be persisted", func() {
		item := &model.IngestItem{ID: 4, ItemStageStatuses: model.ItemStageStatuses{Triage: model.StatusCompleted}}
		store := newFakeLexiconStore(item)
		store.upsertErrAt = 0
		service := &fakeExtractionService{terms: []services.ExtractedTerm{{CanonicalTerm: "x"}}}
		job := stages.NewLexiconJob(service, store, logr.Discard())

		result, err := job.Run(context.Background(), runner.NewPipelineRun(1))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.FailedItems()).To(HaveLen(1))
		Expect(store.updated[4]).To(Equal(model.StatusFailed))
	})
})
