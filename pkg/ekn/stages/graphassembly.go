package stages

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/graph"
	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
)

// graphAssemblyStore is the narrow slice of the relational store the Graph
// Assembly job needs to gather every record destined for the per-batch
// graph database.
type graphAssemblyStore interface {
	ListItemsByBatch(ctx context.Context, batchID int64) ([]*model.IngestItem, error)
	ListLexiconEntries(ctx context.Context, batchID int64) ([]*model.LexiconEntry, error)
	ListPoolEntities(ctx context.Context, batchID int64, pool model.PoolLabel) ([]*model.PoolEntity, error)
	ListRelations(ctx context.Context, batchID int64) ([]*model.Relation, error)
	GetRightsRecord(ctx context.Context, id int64) (*model.ProvenanceAndRights, error)
	UpdateGraph(ctx context.Context, itemID int64, status model.StageStatus, errMsg string) error
}

// allPoolLabels is the full set of labels GraphAssemblyJob loads entities
// for, required and optional alike (spec.md §4.4.3).
var allPoolLabels = append(append([]model.PoolLabel{}, model.RequiredPools...), model.OptionalPools...)

// GraphAssemblyJob implements Stage 5 (spec.md §4.4): the seven-phase
// sequence that turns a batch's relational records into its per-EKN graph
// database, run in this order — Database Provisioning, Node Loading, Schema
// Provisioning (after the Lexicon description backfill), Edge Loading,
// Deduplication, Orphan Removal, and Integrity Verification.
// Unlike the item-by-item stages, this job operates once per run over the
// whole batch; its JobResult still reports one ItemOutcome per eligible
// item so the Runner's per-item bookkeeping stays uniform across stages.
type GraphAssemblyJob struct {
	store          graphAssemblyStore
	graphStore     *graph.Store
	pollTimeout    time.Duration
	preserveWindow time.Duration
	log            logr.Logger
}

// NewGraphAssemblyJob constructs the Graph Assembly stage job.
func NewGraphAssemblyJob(store graphAssemblyStore, graphStore *graph.Store, pollTimeout, preserveWindow time.Duration, log logr.Logger) *GraphAssemblyJob {
	return &GraphAssemblyJob{store: store, graphStore: graphStore, pollTimeout: pollTimeout, preserveWindow: preserveWindow, log: log}
}

func (j *GraphAssemblyJob) Stage() runner.Stage { return runner.StageGraphAssembly }

func (j *GraphAssemblyJob) Accepts(statuses map[string]string) bool {
	return statuses["pool"] == string(model.StatusCompleted) &&
		statuses["graph"] != string(model.StatusCompleted)
}

func (j *GraphAssemblyJob) Run(ctx context.Context, run *runner.PipelineRun) (runner.JobResult, error) {
	items, err := j.store.ListItemsByBatch(ctx, run.BatchID)
	if err != nil {
		return runner.JobResult{}, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "listing batch items")
	}

	var eligible []*model.IngestItem
	result := runner.JobResult{StageMetrics: map[string]float64{}}
	for _, item := range items {
		if !j.Accepts(map[string]string{"pool": string(item.Pool), "graph": string(item.Graph)}) {
			result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Skipped: true})
			continue
		}
		eligible = append(eligible, item)
	}
	result.StageMetrics["eligible_items"] = float64(len(eligible))
	if len(eligible) == 0 {
		result.AcceptancePassed = true
		return result, nil
	}

	databaseName := model.GraphDatabaseNameFor(run.BatchID)
	if err := graph.ValidateDatabaseName(databaseName); err != nil {
		return result, apperrors.Wrap(err, apperrors.ErrorTypeValidation, "validating graph database name")
	}
	databaseName, _ = j.graphStore.DatabaseFor(databaseName)

	if err := j.graphStore.EnsureDatabase(ctx, databaseName, j.pollTimeout); err != nil {
		return result, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "provisioning per-batch graph database")
	}

	nodes, rightsEdges, err := j.collectNodes(ctx, run.BatchID)
	if err != nil {
		return result, err
	}

	if len(nodes) > 0 {
		if err := graph.LoadNodes(ctx, j.graphStore, databaseName, run.BatchID, nodes); err != nil {
			return result, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "loading graph nodes")
		}
	}

	if err := graph.BackfillLexiconDescriptions(ctx, j.graphStore, databaseName); err != nil {
		return result, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "backfilling lexicon descriptions")
	}
	if err := graph.ProvisionSchema(ctx, j.graphStore, databaseName); err != nil {
		return result, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "provisioning graph schema")
	}

	relationPtrs, err := j.store.ListRelations(ctx, run.BatchID)
	if err != nil {
		return result, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "listing relations")
	}
	relations := make([]model.Relation, len(relationPtrs))
	for i, r := range relationPtrs {
		relations[i] = *r
	}

	edgeResult, err := graph.LoadEdges(ctx, j.graphStore, databaseName, relations, rightsEdges)
	if err != nil {
		return result, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "loading graph edges")
	}
	result.StageMetrics["edges_created"] = float64(edgeResult.EdgesCreated)
	result.StageMetrics["edges_skipped"] = float64(len(edgeResult.Warnings))
	for _, w := range edgeResult.Warnings {
		j.log.Info("skipping relation with unrecognized verb", "relationID", w.RelationID, "verb", w.Verb, "reason", w.Reason)
	}

	dedup, err := graph.RunDeduplication(ctx, j.graphStore, databaseName)
	if err != nil {
		return result, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "running graph deduplication")
	}
	var merged float64
	for _, n := range dedup.MergedByLabel {
		merged += float64(n)
	}
	result.StageMetrics["entities_merged"] = merged

	orphans, err := graph.RemoveOrphans(ctx, j.graphStore, databaseName, j.preserveWindow, graphTimeNow())
	if err != nil {
		return result, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "removing orphaned nodes")
	}
	var removed float64
	for _, n := range orphans.RemovedByLabel {
		removed += float64(n)
	}
	result.StageMetrics["orphans_removed"] = removed

	report, err := graph.VerifyIntegrity(ctx, j.graphStore, databaseName)
	if err != nil {
		return result, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "verifying graph integrity")
	}
	if !report.Valid {
		// KindIntegrityFailure has no ErrorType mapping in runner.Classify;
		// Validation classifies as KindInvalidInput, which shares the same
		// non-retryable handling the spec requires for an integrity
		// violation (spec.md §4.4.7: "fail the run, never silently
		// auto-retry past it").
		werr := apperrors.Newf(apperrors.ErrorTypeValidation, "graph integrity verification failed: %v", report.Errors)
		for _, item := range eligible {
			_ = j.store.UpdateGraph(ctx, item.ID, model.StatusFailed, werr.Error())
			result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Err: werr})
		}
		return result, werr
	}

	for _, item := range eligible {
		if err := j.store.UpdateGraph(ctx, item.ID, model.StatusCompleted, ""); err != nil {
			werr := apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "updating graph status for item %d", item.ID)
			result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Err: werr})
			continue
		}
		result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID})
	}

	result.AcceptancePassed = true
	return result, nil
}

// collectNodes gathers every Lexicon, rights, and pool-entity record for
// the batch into NodeRecords, plus the HAS_RIGHTS edges those entities
// need once loaded.
func (j *GraphAssemblyJob) collectNodes(ctx context.Context, batchID int64) ([]graph.NodeRecord, []graph.RightsEdge, error) {
	var nodes []graph.NodeRecord
	var rightsEdges []graph.RightsEdge
	seenRights := map[int64]bool{}

	lexiconEntries, err := j.store.ListLexiconEntries(ctx, batchID)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "listing lexicon entries")
	}
	for _, e := range lexiconEntries {
		nodes = append(nodes, graph.NodeRecord{
			Label: model.PoolLabel("Lexicon"),
			ID:    e.ID,
			Props: map[string]any{
				"canonical_term":         e.CanonicalTerm,
				"surface_forms":          e.SurfaceForms,
				"negative_surface_forms": e.NegativeSurfaceForms,
				"pool":                   e.Pool,
				"description":            e.Description,
				"canonical_description":  e.ResolveCanonicalDescription(),
			},
		})
	}

	for _, label := range allPoolLabels {
		entities, err := j.store.ListPoolEntities(ctx, batchID, label)
		if err != nil {
			return nil, nil, apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "listing %s pool entities", label)
		}
		for _, e := range entities {
			props := make(map[string]any, len(e.Fields)+1)
			for k, v := range e.Fields {
				props[k] = v
			}
			props["repr_text"] = e.ReprText
			if e.RightsID != 0 {
				props["rights_id"] = e.RightsID
			}
			if label == model.PoolExperience {
				if text, ok := e.Fields["narrative_text"].(string); ok {
					props["first_100"] = (&model.Experience{NarrativeText: text}).First100()
				}
			}
			nodes = append(nodes, graph.NodeRecord{Label: label, ID: e.ID, Props: props})

			if e.RightsID != 0 {
				rightsEdges = append(rightsEdges, graph.RightsEdge{EntityLabel: label, EntityID: e.ID, RightsID: e.RightsID})
				if !seenRights[e.RightsID] {
					seenRights[e.RightsID] = true
					rec, err := j.store.GetRightsRecord(ctx, e.RightsID)
					if err != nil {
						return nil, nil, apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "loading rights record %d", e.RightsID)
					}
					nodes = append(nodes, graph.NodeRecord{
						Label: model.PoolLabel("ProvenanceAndRights"),
						ID:    rec.ID,
						Props: map[string]any{
							"license":              string(rec.License),
							"consent":              string(rec.Consent),
							"publishability":       rec.Publishable,
							"training_eligibility": rec.TrainingEligible,
							"confidence":           rec.Confidence,
						},
					})
				}
			}
		}
	}

	return nodes, rightsEdges, nil
}

var graphTimeNow = time.Now
