package stages

import (
	"context"

	"github.com/go-logr/logr"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/rights"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
)

// DeliverableSummary is whatever the external deliverable builder reports
// back about what it produced; this module does not interpret its fields
// (spec.md §1 Non-goals: the deliverable builder is an external
// collaborator, not part of the orchestration core).
type DeliverableSummary map[string]any

// DeliverableBuilder is the call contract for the external component that
// turns a batch's publish-eligible entities into delivered artifacts.
type DeliverableBuilder interface {
	Build(ctx context.Context, batchID int64, publishable []model.Ref) (DeliverableSummary, error)
}

// deliverablesStore is the narrow slice of the relational store the
// Deliverables job needs.
type deliverablesStore interface {
	ListPoolEntities(ctx context.Context, batchID int64, pool model.PoolLabel) ([]*model.PoolEntity, error)
	GetRightsRecord(ctx context.Context, id int64) (*model.ProvenanceAndRights, error)
}

// DeliverablesJob implements Stage 8 (spec.md §1, §4.1): filters the
// batch's content entities down to those the rights policy allows to
// publish and hands that set to the external deliverable builder. The
// orchestration core's responsibility ends at enforcing the rights
// boundary; it never inspects what the builder produces.
type DeliverablesJob struct {
	store      deliverablesStore
	policy     *rights.Policy
	propagator *rights.Propagator
	builder    DeliverableBuilder
	log        logr.Logger
}

// NewDeliverablesJob constructs the Deliverables stage job.
func NewDeliverablesJob(store deliverablesStore, policy *rights.Policy, builder DeliverableBuilder, log logr.Logger) *DeliverablesJob {
	return &DeliverablesJob{store: store, policy: policy, propagator: rights.NewPropagator(policy), builder: builder, log: log}
}

func (j *DeliverablesJob) Stage() runner.Stage { return runner.StageDeliverables }

// Accepts is trivially true: Deliverables has no item-level status field
// (ItemStageStatuses tracks only Triage..Embedding); eligibility is decided
// per entity, inside Run, against the rights policy.
func (j *DeliverablesJob) Accepts(statuses map[string]string) bool {
	return true
}

func (j *DeliverablesJob) Run(ctx context.Context, run *runner.PipelineRun) (runner.JobResult, error) {
	publishable, total, err := eligibleRefs(ctx, j.store, j.policy, j.propagator.EligibleForPublish, run.BatchID)
	if err != nil {
		return runner.JobResult{}, err
	}

	summary, err := j.builder.Build(ctx, run.BatchID, publishable)
	if err != nil {
		return runner.JobResult{}, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "building deliverables")
	}

	return runner.JobResult{
		StageMetrics: map[string]float64{
			"entities_total":       float64(total),
			"entities_publishable": float64(len(publishable)),
		},
		AcceptancePassed: true,
		AcceptanceNote:   summaryNote(summary),
	}, nil
}

func summaryNote(s DeliverableSummary) string {
	if v, ok := s["note"].(string); ok {
		return v
	}
	return ""
}

// eligibleRefs gathers every content-pool entity's Ref, partitioned by
// whether its rights decision satisfies pred (EligibleForPublish or
// EligibleForTraining).
func eligibleRefs(ctx context.Context, store deliverablesStore, policy *rights.Policy, pred func(rights.Decision) bool, batchID int64) ([]model.Ref, int, error) {
	decisions := map[int64]rights.Decision{}
	var eligible []model.Ref
	var total int

	for _, label := range model.ContentPools {
		entities, err := store.ListPoolEntities(ctx, batchID, label)
		if err != nil {
			return nil, 0, apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "listing %s pool entities", label)
		}
		for _, e := range entities {
			total++
			decision, ok := decisions[e.RightsID]
			if !ok {
				rec, err := store.GetRightsRecord(ctx, e.RightsID)
				if err != nil {
					return nil, 0, apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "loading rights record %d", e.RightsID)
				}
				decision, err = policy.Evaluate(ctx, rec)
				if err != nil {
					return nil, 0, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "evaluating rights policy")
				}
				decisions[e.RightsID] = decision
			}
			if pred(decision) {
				eligible = append(eligible, model.Ref{Label: string(label), ID: e.ID})
			}
		}
	}
	return eligible, total, nil
}
