package stages

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
	"github.com/enliterator/enliterator/pkg/ekn/services"
)

// lexiconStore is the narrow slice of the relational store the Lexicon
// Bootstrap job needs.
type lexiconStore interface {
	ListItemsByBatch(ctx context.Context, batchID int64) ([]*model.IngestItem, error)
	UpsertLexiconEntry(ctx context.Context, e *model.LexiconEntry) (int64, error)
	UpdateLexicon(ctx context.Context, itemID int64, status model.StageStatus, errMsg string) error
}

var lexiconTimeNow = time.Now

// LexiconJob implements Stage 3 (spec.md §4.3 "Lexicon Bootstrap"): propose
// canonical terms and surface forms for every item whose rights have
// cleared triage, merging proposals into the batch's shared canonical-term
// table (spec.md §3: "unique per batch by canonical term").
type LexiconJob struct {
	service services.ExtractionService
	store   lexiconStore
	log     logr.Logger
}

// NewLexiconJob constructs the Lexicon Bootstrap stage job.
func NewLexiconJob(service services.ExtractionService, store lexiconStore, log logr.Logger) *LexiconJob {
	return &LexiconJob{service: service, store: store, log: log}
}

func (j *LexiconJob) Stage() runner.Stage { return runner.StageLexiconBootstrap }

func (j *LexiconJob) Accepts(statuses map[string]string) bool {
	return statuses["triage"] == string(model.StatusCompleted) &&
		statuses["lexicon"] != string(model.StatusCompleted)
}

func (j *LexiconJob) Run(ctx context.Context, run *runner.PipelineRun) (runner.JobResult, error) {
	items, err := j.store.ListItemsByBatch(ctx, run.BatchID)
	if err != nil {
		return runner.JobResult{}, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "listing batch items")
	}

	result := runner.JobResult{StageMetrics: map[string]float64{}}
	var eligible, termsExtracted float64
	for _, item := range items {
		if !j.Accepts(map[string]string{"triage": string(item.Triage), "lexicon": string(item.Lexicon)}) {
			result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Skipped: true})
			continue
		}
		eligible++

		terms, err := j.service.ExtractTerms(ctx, item.Content)
		if err != nil {
			werr := apperrors.Wrapf(err, apperrors.ErrorTypeNetwork, "extracting terms for item %d", item.ID)
			_ = j.store.UpdateLexicon(ctx, item.ID, model.StatusFailed, werr.Error())
			result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Err: werr})
			continue
		}

		var itemErr error
		for _, t := range terms {
			_, err := j.store.UpsertLexiconEntry(ctx, &model.LexiconEntry{
				BatchID:              run.BatchID,
				CanonicalTerm:        t.CanonicalTerm,
				SurfaceForms:         []string{t.SurfaceForm},
				NegativeSurfaceForms: t.NegativeSurfaceForms,
				Pool:                 t.TermType,
				Description:          t.Description,
				SourceItemID:         item.ID,
				ValidTimeStart:       lexiconTimeNow(),
			})
			if err != nil {
				itemErr = apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "upserting canonical term %q for item %d", t.CanonicalTerm, item.ID)
				break
			}
			termsExtracted++
		}
		if itemErr != nil {
			_ = j.store.UpdateLexicon(ctx, item.ID, model.StatusFailed, itemErr.Error())
			result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Err: itemErr})
			continue
		}

		if err := j.store.UpdateLexicon(ctx, item.ID, model.StatusCompleted, ""); err != nil {
			werr := apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "updating lexicon status for item %d", item.ID)
			result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Err: werr})
			continue
		}
		result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Metrics: map[string]float64{"terms": float64(len(terms))}})
	}

	result.StageMetrics["eligible_items"] = eligible
	result.StageMetrics["terms_extracted"] = termsExtracted

	passed, note, err := evaluateGate(ctx, "lexicon_bootstrap", result.StageMetrics)
	if err != nil {
		return result, err
	}
	result.AcceptancePassed = passed
	result.AcceptanceNote = note
	return result, nil
}
