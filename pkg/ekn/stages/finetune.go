package stages

import (
	"context"

	"github.com/go-logr/logr"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/rights"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
)

// FineTuneDatasetSummary is whatever the external dataset builder reports
// back; this module does not interpret its fields (spec.md §1 Non-goals:
// fine-tune dataset construction is an external collaborator).
type FineTuneDatasetSummary map[string]any

// FineTuneDatasetBuilder is the call contract for the external component
// that turns a batch's training-eligible entities into a fine-tune dataset.
type FineTuneDatasetBuilder interface {
	Build(ctx context.Context, batchID int64, trainingEligible []model.Ref) (FineTuneDatasetSummary, error)
}

// FineTuneJob implements Stage 9 (spec.md §1, §4.1): filters the batch's
// content entities down to those the rights policy allows to train on and
// hands that set to the external dataset builder. Like DeliverablesJob, the
// orchestration core's responsibility ends at enforcing the rights
// boundary.
type FineTuneJob struct {
	store      deliverablesStore
	policy     *rights.Policy
	propagator *rights.Propagator
	builder    FineTuneDatasetBuilder
	log        logr.Logger
}

// NewFineTuneJob constructs the Fine-tune Dataset Build stage job.
func NewFineTuneJob(store deliverablesStore, policy *rights.Policy, builder FineTuneDatasetBuilder, log logr.Logger) *FineTuneJob {
	return &FineTuneJob{store: store, policy: policy, propagator: rights.NewPropagator(policy), builder: builder, log: log}
}

func (j *FineTuneJob) Stage() runner.Stage { return runner.StageFineTuneDatasetBuild }

// Accepts is trivially true for the same reason as DeliverablesJob:
// Fine-tune Dataset Build has no item-level status field.
func (j *FineTuneJob) Accepts(statuses map[string]string) bool {
	return true
}

func (j *FineTuneJob) Run(ctx context.Context, run *runner.PipelineRun) (runner.JobResult, error) {
	trainable, total, err := eligibleRefs(ctx, j.store, j.policy, j.propagator.EligibleForTraining, run.BatchID)
	if err != nil {
		return runner.JobResult{}, err
	}

	summary, err := j.builder.Build(ctx, run.BatchID, trainable)
	if err != nil {
		return runner.JobResult{}, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "building fine-tune dataset")
	}

	return runner.JobResult{
		StageMetrics: map[string]float64{
			"entities_total":     float64(total),
			"entities_trainable": float64(len(trainable)),
		},
		AcceptancePassed: true,
		AcceptanceNote:   summaryNote(summary),
	}, nil
}
