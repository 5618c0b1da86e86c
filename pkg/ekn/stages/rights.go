package stages

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/rights"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
	"github.com/enliterator/enliterator/pkg/ekn/services"
)

// rightsStore is the narrow slice of the relational store the Rights &
// Provenance job needs.
type rightsStore interface {
	ListItemsByBatch(ctx context.Context, batchID int64) ([]*model.IngestItem, error)
	CreateRightsRecord(ctx context.Context, rec *model.ProvenanceAndRights) (int64, error)
	UpdateTriage(ctx context.Context, itemID int64, status model.StageStatus, rightsID *int64, quarantined bool, errMsg string) error
}

// rightsTimeNow is test-overridable, mirroring runner.timeNow.
var rightsTimeNow = time.Now

// RightsJob implements Stage 2 (spec.md §4.3 "Rights & Provenance"): infer
// license/consent/publishability for every item still awaiting triage and
// resolve it into a persisted ProvenanceAndRights record, quarantining
// items whose inference confidence falls below the permissive threshold
// rather than discarding them (spec.md §3 Invariants: every item, even a
// quarantined one, still gets a rights record).
type RightsJob struct {
	service  services.RightsService
	store    rightsStore
	override bool
	log      logr.Logger
}

// NewRightsJob constructs the Rights & Provenance stage job. override wires
// config.Config.TestRightsOverride (spec.md §4.3, §6).
func NewRightsJob(service services.RightsService, store rightsStore, override bool, log logr.Logger) *RightsJob {
	return &RightsJob{service: service, store: store, override: override, log: log}
}

func (j *RightsJob) Stage() runner.Stage { return runner.StageRightsProvenance }

func (j *RightsJob) Accepts(statuses map[string]string) bool {
	return statuses["triage"] != string(model.StatusCompleted) &&
		statuses["triage"] != string(model.StatusQuarantined)
}

func (j *RightsJob) Run(ctx context.Context, run *runner.PipelineRun) (runner.JobResult, error) {
	items, err := j.store.ListItemsByBatch(ctx, run.BatchID)
	if err != nil {
		return runner.JobResult{}, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "listing batch items")
	}

	result := runner.JobResult{StageMetrics: map[string]float64{}}
	var eligible, completed, quarantinedCount float64
	for _, item := range items {
		if !j.Accepts(map[string]string{"triage": string(item.Triage)}) {
			result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID, Skipped: true})
			continue
		}
		eligible++

		outcome := j.processItem(ctx, item)
		result.Items = append(result.Items, outcome)
		if outcome.Err != nil {
			continue
		}
		if outcome.Metrics["quarantined"] == 1 {
			quarantinedCount++
		} else {
			completed++
		}
	}

	result.StageMetrics["eligible_items"] = eligible
	result.StageMetrics["items_completed"] = completed
	result.StageMetrics["items_quarantined"] = quarantinedCount

	passed, note, err := evaluateGate(ctx, "rights_and_provenance", result.StageMetrics)
	if err != nil {
		return result, err
	}
	result.AcceptancePassed = passed
	result.AcceptanceNote = note
	return result, nil
}

func (j *RightsJob) processItem(ctx context.Context, item *model.IngestItem) runner.ItemOutcome {
	inf, err := j.service.Infer(ctx, item)
	if err != nil {
		werr := apperrors.Wrapf(err, apperrors.ErrorTypeNetwork, "inferring rights for item %d", item.ID)
		_ = j.store.UpdateTriage(ctx, item.ID, model.StatusFailed, nil, false, werr.Error())
		return runner.ItemOutcome{ItemID: item.ID, Err: werr}
	}

	rec, quarantined := rights.Resolve(rights.Inference{
		Confidence:  inf.Confidence,
		License:     inf.License,
		Consent:     inf.Consent,
		Publishable: inf.Publishable,
		Trainable:   inf.Trainable,
		SourceType:  inf.SourceType,
		Method:      inf.Method,
	}, j.override, rightsTimeNow())

	rightsID, err := j.store.CreateRightsRecord(ctx, &rec)
	if err != nil {
		werr := apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "persisting rights record for item %d", item.ID)
		_ = j.store.UpdateTriage(ctx, item.ID, model.StatusFailed, nil, false, werr.Error())
		return runner.ItemOutcome{ItemID: item.ID, Err: werr}
	}

	status := model.StatusCompleted
	if quarantined {
		status = model.StatusQuarantined
	}
	if err := j.store.UpdateTriage(ctx, item.ID, status, &rightsID, quarantined, ""); err != nil {
		werr := apperrors.Wrapf(err, apperrors.ErrorTypeDatabase, "updating triage status for item %d", item.ID)
		return runner.ItemOutcome{ItemID: item.ID, Err: werr}
	}

	m := map[string]float64{}
	if quarantined {
		m["quarantined"] = 1
	}
	return runner.ItemOutcome{ItemID: item.ID, Metrics: m}
}
