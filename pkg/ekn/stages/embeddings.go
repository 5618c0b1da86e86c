package stages

import (
	"context"

	"github.com/go-logr/logr"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/embedding"
	"github.com/enliterator/enliterator/pkg/ekn/graph"
	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/rights"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
)

// embeddingsStore is the narrow slice of the relational store the
// Embeddings job needs.
type embeddingsStore interface {
	ListItemsByBatch(ctx context.Context, batchID int64) ([]*model.IngestItem, error)
	ListPoolEntities(ctx context.Context, batchID int64, pool model.PoolLabel) ([]*model.PoolEntity, error)
	GetRightsRecord(ctx context.Context, id int64) (*model.ProvenanceAndRights, error)
	UpdateEmbedding(ctx context.Context, itemID int64, status model.StageStatus, errMsg string) error
}

// EmbeddingsJob implements Stage 6 (spec.md §4.5): encode every
// training-eligible content entity's representative text into a vector and
// store it on its graph node. An entity whose rights policy denies
// training is skipped, not failed (spec.md §8 "Rights propagation").
type EmbeddingsJob struct {
	store      embeddingsStore
	graphStore *graph.Store
	embedder   *embedding.Embedder
	policy     *rights.Policy
	propagator *rights.Propagator
	dimensions int
	log        logr.Logger
}

// NewEmbeddingsJob constructs the Embeddings stage job.
func NewEmbeddingsJob(store embeddingsStore, graphStore *graph.Store, embedder *embedding.Embedder, policy *rights.Policy, dimensions int, log logr.Logger) *EmbeddingsJob {
	return &EmbeddingsJob{
		store: store, graphStore: graphStore, embedder: embedder,
		policy: policy, propagator: rights.NewPropagator(policy),
		dimensions: dimensions, log: log,
	}
}

func (j *EmbeddingsJob) Stage() runner.Stage { return runner.StageEmbeddings }

func (j *EmbeddingsJob) Accepts(statuses map[string]string) bool {
	return statuses["graph"] == string(model.StatusCompleted) &&
		statuses["embedding"] != string(model.StatusCompleted)
}

func (j *EmbeddingsJob) Run(ctx context.Context, run *runner.PipelineRun) (runner.JobResult, error) {
	items, err := j.store.ListItemsByBatch(ctx, run.BatchID)
	if err != nil {
		return runner.JobResult{}, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "listing batch items")
	}

	var eligible []*model.IngestItem
	result := runner.JobResult{StageMetrics: map[string]float64{}}
	for _, item := range items {
		if !j.Accepts(map[string]string{"graph": string(item.Graph), "embedding": string(item.Embedding)}) {
			result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Skipped: true})
			continue
		}
		eligible = append(eligible, item)
	}
	result.StageMetrics["eligible_items"] = float64(len(eligible))
	if len(eligible) == 0 {
		result.StageMetrics["eligible_entities"] = 0
		result.AcceptancePassed = true
		return result, nil
	}

	databaseName, _ := j.graphStore.DatabaseFor(model.GraphDatabaseNameFor(run.BatchID))
	if err := embedding.EnsureVectorIndexes(ctx, j.graphStore, databaseName, model.ContentPools, j.dimensions); err != nil {
		return result, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "ensuring vector indexes")
	}

	decisions := map[int64]rights.Decision{}
	var eligibleEntities, embedded, fallback float64
	for _, label := range model.ContentPools {
		entities, err := j.store.ListPoolEntities(ctx, run.BatchID, label)
		if err != nil {
			return result, apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "listing %s pool entities", label)
		}
		for _, e := range entities {
			eligibleEntities++

			decision, ok := decisions[e.RightsID]
			if !ok {
				rec, err := j.store.GetRightsRecord(ctx, e.RightsID)
				if err != nil {
					return result, apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "loading rights record %d", e.RightsID)
				}
				decision, err = j.policy.Evaluate(ctx, rec)
				if err != nil {
					return result, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "evaluating rights policy")
				}
				decisions[e.RightsID] = decision
			}
			if !j.propagator.EligibleForTraining(decision) {
				continue
			}

			r := j.embedder.Embed(ctx, e.ReprText)
			if r.FallbackUsed {
				fallback++
			}
			if err := embedding.StoreEmbedding(ctx, j.graphStore, databaseName, model.Ref{Label: string(label), ID: e.ID}, r.Vector); err != nil {
				return result, apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "storing embedding for %s %d", label, e.ID)
			}
			embedded++
		}
	}

	result.StageMetrics["eligible_entities"] = eligibleEntities
	result.StageMetrics["embeddings_created"] = embedded
	result.StageMetrics["embeddings_fallback_used"] = fallback

	for _, item := range eligible {
		if err := j.store.UpdateEmbedding(ctx, item.ID, model.StatusCompleted, ""); err != nil {
			werr := apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "updating embedding status for item %d", item.ID)
			result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Err: werr})
			continue
		}
		result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID})
	}

	passed, note, err := evaluateGate(ctx, "embeddings", result.StageMetrics)
	if err != nil {
		return result, err
	}
	result.AcceptancePassed = passed
	result.AcceptanceNote = note
	return result, nil
}
