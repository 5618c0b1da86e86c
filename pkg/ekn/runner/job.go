package runner

import "context"

// ItemOutcome is one item's result from a stage job (spec.md §4.2
// "per-item failure isolation": one item's failure never aborts the
// others' processing within the same job invocation).
type ItemOutcome struct {
	ItemID  int64
	Skipped bool   // true if the item was already past this stage (idempotent re-entry)
	Err     error  // classified via Classify when non-nil
	Metrics map[string]float64
}

// JobResult is what a stage job returns to the Runner after processing its
// input set: per-item outcomes, stage-level metrics, and whether the
// stage's acceptance gate passed (spec.md §4.2 "Validation/acceptance
// gate").
type JobResult struct {
	Items          []ItemOutcome
	StageMetrics   map[string]float64
	AcceptancePassed bool
	AcceptanceNote   string
}

// FailedItems returns the outcomes carrying a non-nil error.
func (r JobResult) FailedItems() []ItemOutcome {
	var failed []ItemOutcome
	for _, o := range r.Items {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Job is the contract every stage (1..9) implements (spec.md §4.2). Stage 0
// (Frame) has no Job; the Runner special-cases it via Stage.HasJob.
type Job interface {
	// Stage identifies which of the nine ordinals this job serves.
	Stage() Stage

	// Accepts reports whether an item's current ItemStageStatuses make it
	// eligible for this stage (the "input-state predicate", spec.md §4.2):
	// e.g. the Lexicon Bootstrap job accepts only items with
	// TriageStatus == completed and LexiconStatus != completed.
	Accepts(statuses map[string]string) bool

	// Run processes the given batch's eligible items for this run and
	// returns their outcomes plus the stage's acceptance verdict. Run must
	// be safe to call again for items already marked completed (idempotent
	// re-entry after a crash, spec.md §3 Invariants).
	Run(ctx context.Context, run *PipelineRun) (JobResult, error)
}
