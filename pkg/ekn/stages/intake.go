package stages

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-logr/logr"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
)

// DiscoveredItem is one file handed to Intake by the Source. MIME detection
// and archive expansion are out of scope for this module (spec.md §1
// Non-goals); the Source is expected to have already resolved both.
type DiscoveredItem struct {
	MIMEType string
	Content  string
}

// Source discovers the raw documents belonging to a batch. The concrete
// implementation (filesystem walk, object-store listing, upload bundle) is
// an external collaborator the orchestration core never names (spec.md §1).
type Source interface {
	Discover(ctx context.Context, batchID int64) ([]DiscoveredItem, error)
}

// itemCreator is the narrow slice of the relational store Intake needs.
type itemCreator interface {
	CreateItem(ctx context.Context, item *model.IngestItem) (int64, error)
}

// IntakeJob implements Stage 1 (spec.md §4.3 "Intake"): discover a batch's
// documents, hash and size each, record a bounded content sample, and
// persist one IngestItem per content hash — idempotently, so re-running
// Intake after a crash does not duplicate items already recorded.
type IntakeJob struct {
	source Source
	items  itemCreator
	log    logr.Logger
}

// NewIntakeJob constructs the Intake stage job.
func NewIntakeJob(source Source, items itemCreator, log logr.Logger) *IntakeJob {
	return &IntakeJob{source: source, items: items, log: log}
}

func (j *IntakeJob) Stage() runner.Stage { return runner.StageIntake }

// Accepts is trivially true: Intake's eligibility predicate operates at the
// batch level (has this batch been discovered yet), not per already-created
// item, since items do not exist before Intake creates them.
func (j *IntakeJob) Accepts(statuses map[string]string) bool {
	return true
}

func (j *IntakeJob) Run(ctx context.Context, run *runner.PipelineRun) (runner.JobResult, error) {
	discovered, err := j.source.Discover(ctx, run.BatchID)
	if err != nil {
		return runner.JobResult{}, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "discovering batch documents")
	}

	result := runner.JobResult{StageMetrics: map[string]float64{
		"items_discovered": float64(len(discovered)),
	}}

	var created float64
	for _, d := range discovered {
		sum := sha256.Sum256([]byte(d.Content))
		hash := hex.EncodeToString(sum[:])

		sample := d.Content
		if len(sample) > model.ContentSampleBytes {
			sample = sample[:model.ContentSampleBytes]
		}

		id, err := j.items.CreateItem(ctx, &model.IngestItem{
			ContentHash:   hash,
			Size:          int64(len(d.Content)),
			MIMEType:      d.MIMEType,
			Content:       d.Content,
			ContentSample: sample,
			BatchID:       run.BatchID,
		})
		if err != nil {
			result.Items = append(result.Items, runner.ItemOutcome{Err: err})
			continue
		}
		created++
		result.Items = append(result.Items, runner.ItemOutcome{ItemID: id})
	}
	result.StageMetrics["items_created"] = created

	passed, note, err := evaluateGate(ctx, "intake", result.StageMetrics)
	if err != nil {
		return result, err
	}
	result.AcceptancePassed = passed
	result.AcceptanceNote = note
	return result, nil
}
