package stages

import (
	"context"

	"github.com/go-logr/logr"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
	"github.com/enliterator/enliterator/pkg/ekn/services"
)

// poolStore is the narrow slice of the relational store the Pool
// Extraction job needs.
type poolStore interface {
	ListItemsByBatch(ctx context.Context, batchID int64) ([]*model.IngestItem, error)
	ListLexiconEntries(ctx context.Context, batchID int64) ([]*model.LexiconEntry, error)
	CreatePoolEntity(ctx context.Context, e *model.PoolEntity) (int64, error)
	CreateRelation(ctx context.Context, rel *model.Relation) (int64, error)
	UpdatePool(ctx context.Context, itemID int64, status model.StageStatus, errMsg string) error
}

const reprTextField = "repr_text"

// PoolJob implements Stage 4 (spec.md §4.3 "Pool Extraction"): propose
// typed pool entities and the relations between them for every item whose
// lexicon pass completed, against the batch's current canonical terms.
//
// The extraction service cannot know an entity's eventual relational id
// before it is persisted, so relation endpoints are carried as the
// proposed entity's position within its pool-label slice (spec.md §6 names
// no wire format for this; DESIGN.md records the resolution). PoolJob
// resolves those local indices to real ids immediately after persisting
// the entities they reference.
type PoolJob struct {
	service services.ExtractionService
	store   poolStore
	log     logr.Logger
}

// NewPoolJob constructs the Pool Extraction stage job.
func NewPoolJob(service services.ExtractionService, store poolStore, log logr.Logger) *PoolJob {
	return &PoolJob{service: service, store: store, log: log}
}

func (j *PoolJob) Stage() runner.Stage { return runner.StagePoolExtraction }

func (j *PoolJob) Accepts(statuses map[string]string) bool {
	return statuses["lexicon"] == string(model.StatusCompleted) &&
		statuses["pool"] != string(model.StatusCompleted)
}

func (j *PoolJob) Run(ctx context.Context, run *runner.PipelineRun) (runner.JobResult, error) {
	items, err := j.store.ListItemsByBatch(ctx, run.BatchID)
	if err != nil {
		return runner.JobResult{}, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "listing batch items")
	}
	lexiconPtrs, err := j.store.ListLexiconEntries(ctx, run.BatchID)
	if err != nil {
		return runner.JobResult{}, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "listing lexicon entries")
	}
	lexicon := make([]model.LexiconEntry, len(lexiconPtrs))
	for i, e := range lexiconPtrs {
		lexicon[i] = *e
	}

	result := runner.JobResult{StageMetrics: map[string]float64{}}
	var eligible, entitiesCreated, relationsCreated float64
	for _, item := range items {
		if !j.Accepts(map[string]string{"lexicon": string(item.Lexicon), "pool": string(item.Pool)}) {
			result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Skipped: true})
			continue
		}
		eligible++

		if item.RightsID == nil {
			werr := apperrors.Newf(apperrors.ErrorTypeValidation, "item %d has completed triage with no rights id", item.ID)
			_ = j.store.UpdatePool(ctx, item.ID, model.StatusFailed, werr.Error())
			result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Err: werr})
			continue
		}

		extracted, err := j.service.ExtractPool(ctx, item.Content, lexicon)
		if err != nil {
			werr := apperrors.Wrapf(err, apperrors.ErrorTypeNetwork, "extracting pool entities for item %d", item.ID)
			_ = j.store.UpdatePool(ctx, item.ID, model.StatusFailed, werr.Error())
			result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Err: werr})
			continue
		}

		nCreated, nRelations, itemErr := j.persist(ctx, run.BatchID, *item.RightsID, extracted)
		entitiesCreated += nCreated
		relationsCreated += nRelations
		if itemErr != nil {
			_ = j.store.UpdatePool(ctx, item.ID, model.StatusFailed, itemErr.Error())
			result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Err: itemErr})
			continue
		}

		if err := j.store.UpdatePool(ctx, item.ID, model.StatusCompleted, ""); err != nil {
			werr := apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "updating pool status for item %d", item.ID)
			result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Err: werr})
			continue
		}
		result.Items = append(result.Items, runner.ItemOutcome{
			ItemID:  item.ID,
			Metrics: map[string]float64{"entities": nCreated, "relations": nRelations},
		})
	}

	result.StageMetrics["eligible_items"] = eligible
	result.StageMetrics["entities_created"] = entitiesCreated
	result.StageMetrics["relations_created"] = relationsCreated

	passed, note, err := evaluateGate(ctx, "pool_extraction", result.StageMetrics)
	if err != nil {
		return result, err
	}
	result.AcceptancePassed = passed
	result.AcceptanceNote = note
	return result, nil
}

func (j *PoolJob) persist(ctx context.Context, batchID, rightsID int64, extracted services.PoolExtractionResult) (created, relations float64, err error) {
	idsByLabel := make(map[model.PoolLabel][]int64, len(extracted.Entities))

	for label, entities := range extracted.Entities {
		ids := make([]int64, 0, len(entities))
		for _, fields := range entities {
			if !closedEnumValid(label, fields) {
				return created, relations, apperrors.Newf(apperrors.ErrorTypeValidation,
					"entity for pool %q has an invalid closed-enum field", label)
			}

			reprText, _ := fields[reprTextField].(string)
			rest := make(map[string]interface{}, len(fields))
			for k, v := range fields {
				if k == reprTextField {
					continue
				}
				rest[k] = v
			}

			id, err := j.store.CreatePoolEntity(ctx, &model.PoolEntity{
				BatchID:  batchID,
				Pool:     label,
				ReprText: reprText,
				RightsID: rightsID,
				Fields:   rest,
			})
			if err != nil {
				return created, relations, apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "persisting pool entity (%s)", label)
			}
			created++
			ids = append(ids, id)
		}
		idsByLabel[label] = ids
	}

	for _, rel := range extracted.Relations {
		sourceID, ok := resolveLocalRef(idsByLabel, rel.Source)
		if !ok {
			return created, relations, apperrors.Newf(apperrors.ErrorTypeValidation,
				"relation %q references an out-of-range source entity", rel.Verb)
		}
		targetID, ok := resolveLocalRef(idsByLabel, rel.Target)
		if !ok {
			return created, relations, apperrors.Newf(apperrors.ErrorTypeValidation,
				"relation %q references an out-of-range target entity", rel.Verb)
		}

		_, err := j.store.CreateRelation(ctx, &model.Relation{
			BatchID:  batchID,
			Source:   model.Ref{Label: rel.Source.Label, ID: sourceID},
			Target:   model.Ref{Label: rel.Target.Label, ID: targetID},
			Verb:     rel.Verb,
			Strength: rel.Strength,
			RightsID: rightsID,
		})
		if err != nil {
			return created, relations, apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "persisting relation %q", rel.Verb)
		}
		relations++
	}

	return created, relations, nil
}

// resolveLocalRef maps a proposed relation endpoint's local index (carried
// in Ref.ID) to the real relational id assigned when that entity was
// persisted.
func resolveLocalRef(idsByLabel map[model.PoolLabel][]int64, ref model.Ref) (int64, bool) {
	ids, ok := idsByLabel[model.PoolLabel(ref.Label)]
	if !ok || ref.ID < 0 || int(ref.ID) >= len(ids) {
		return 0, false
	}
	return ids[ref.ID], true
}

// closedEnumValid checks the three pools whose single distinguishing field
// is a closed enum (spec.md §3 Open Questions, resolved in model.Allowed*).
func closedEnumValid(label model.PoolLabel, fields map[string]any) bool {
	switch label {
	case model.PoolEmanation:
		return oneOf(fields["influence_type"], model.AllowedInfluenceTypes)
	case model.PoolRelational:
		return oneOf(fields["relation_type"], model.AllowedRelationTypes)
	case model.PoolPractical:
		steps, ok := fields["steps"].([]any)
		if !ok {
			if ss, ok := fields["steps"].([]string); ok {
				for _, s := range ss {
					if !oneOf(s, model.AllowedPracticalSteps) {
						return false
					}
				}
				return len(ss) > 0
			}
			return false
		}
		if len(steps) == 0 {
			return false
		}
		for _, s := range steps {
			if !oneOf(s, model.AllowedPracticalSteps) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func oneOf(v any, allowed []string) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
