package stages_test

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
	"github.com/enliterator/enliterator/pkg/ekn/stages"
)

type fakeSource struct {
	items []stages.DiscoveredItem
	err   error
}

func (f *fakeSource) Discover(ctx context.Context, batchID int64) ([]stages.DiscoveredItem, error) {
	return f.items, f.err
}

type fakeItemCreator struct {
	created []*model.IngestItem
	failAt  int
}

func (f *fakeItemCreator) CreateItem(ctx context.Context, item *model.IngestItem) (int64, error) {
	if f.failAt == len(f.created) {
		return 0, errors.New("insert failed")
	}
	f.created = append(f.created, item)
	return int64(len(f.created)), nil
}

var _ = Describe("IntakeJob", func() {
	It("hashes, samples, and persists every discovered document", func() {
		source := &fakeSource{items: []stages.DiscoveredItem{
			{MIMEType: "text/plain", Content: "hello world"},
			{MIMEType: "text/plain", Content: "goodbye"},
		}}
		creator := &fakeItemCreator{failAt: -1}
		job := stages.NewIntakeJob(source, creator, logr.Discard())

		run := runner.NewPipelineRun(42)
		result, err := job.Run(context.Background(), run)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.AcceptancePassed).To(BeTrue())
		Expect(creator.created).To(HaveLen(2))
		Expect(creator.created[0].ContentHash).To(HaveLen(64))
		Expect(creator.created[0].BatchID).To(Equal(int64(42)))
		Expect(result.StageMetrics["items_discovered"]).To(Equal(float64(2)))
		Expect(result.StageMetrics["items_created"]).To(Equal(float64(2)))
	})

	It("truncates the content sample to the bounded sample size", func() {
		big := make([]byte, model.ContentSampleBytes+100)
		for i := range big {
			big[i] = 'a'
		}
		source := &fakeSource{items: []stages.DiscoveredItem{{MIMEType: "text/plain", Content: string(big)}}}
		creator := &fakeItemCreator{failAt: -1}
		job := stages.NewIntakeJob(source, creator, logr.Discard())

		_, err := job.Run(context.Background(), runner.NewPipelineRun(1))
		Expect(err).NotTo(HaveOccurred())
		Expect(creator.created[0].ContentSample).To(HaveLen(model.ContentSampleBytes))
	})

	It("fails the acceptance gate when nothing discovered could be created", func() {
		source := &fakeSource{items: []stages.DiscoveredItem{{MIMEType: "text/plain", Content: "x"}}}
		creator := &fakeItemCreator{failAt: 0}
		job := stages.NewIntakeJob(source, creator, logr.Discard())

		result, err := job.Run(context.Background(), runner.NewPipelineRun(1))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.AcceptancePassed).To(BeFalse())
		Expect(result.FailedItems()).To(HaveLen(1))
	})

	It("propagates a discovery error", func() {
		source := &fakeSource{err: errors.New("source unreachable")}
		job := stages.NewIntakeJob(source, &fakeItemCreator{failAt: -1}, logr.Discard())

		_, err := job.Run(context.Background(), runner.NewPipelineRun(1))
		Expect(err).To(HaveOccurred())
	})
})
