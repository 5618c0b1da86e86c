package runner

import (
	"context"

	apperrors "github.com/enliterator/enliterator/internal/errors"
)

// SkipStage marks the run's current stage skipped and advances to the
// next one without running its job (spec.md §4.1 operator override
// surface). Only legal while the run is paused or failed — an operator
// explicitly intervening, not an automatic path.
func (r *Runner) SkipStage(ctx context.Context, runID int64, reason string) error {
	run, err := r.store.GetRun(ctx, runID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "loading pipeline run")
	}
	if run.State != StatePaused && run.State != StateFailed {
		return apperrors.New(apperrors.ErrorTypeConflict, "skip_stage requires a paused or failed run").
			WithDetailsf("current_state=%s", run.State)
	}
	run.StageStatuses[run.CurrentStage] = StageRunSkipped
	run.ErrorMessage = reason
	run.RetryCount = 0
	run.NextRetryAt = nil
	run.State = StateRunning
	return r.advanceStage(ctx, run)
}

// ResetToStage rewinds a run to the given stage, marking every stage from
// there forward pending again (spec.md §3 Invariants: "earlier stages never
// regress once completed, except under an explicit reset_to_stage"). It
// does not undo any data the earlier run of those stages already wrote;
// stage jobs re-entering a previously-completed item must treat it
// idempotently.
func (r *Runner) ResetToStage(ctx context.Context, runID int64, target Stage) error {
	if err := target.Validate(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeValidation, "invalid reset target stage")
	}
	run, err := r.store.GetRun(ctx, runID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "loading pipeline run")
	}
	if run.State != StatePaused && run.State != StateFailed && run.State != StateCompleted {
		return apperrors.New(apperrors.ErrorTypeConflict, "reset_to_stage requires a paused, failed, or completed run").
			WithDetailsf("current_state=%s", run.State)
	}
	for s := target; s <= LastStage; s++ {
		run.StageStatuses[s] = StageRunPending
	}
	run.CurrentStage = target
	run.RetryCount = 0
	run.NextRetryAt = nil
	run.ErrorMessage = ""
	run.FinishedAt = nil
	run.State = StateRunning
	return r.persist(ctx, run)
}

// ForceRights marks a batch's rights as the permissive override the spec
// reserves for synthetic/test batches (spec.md §4.3, §6
// test_rights_override). This bypasses the Rights service entirely; the
// caller is responsible for restricting it to non-production batches —
// the runner does not itself know which batches are synthetic.
type ForceRightsOverride struct {
	BatchID    int64
	Reason     string
	Authorized bool
}

// Validate reports whether the override is usable: an unauthorized or
// reasonless override is rejected rather than silently ignored, so a
// misconfigured caller fails loudly instead of bypassing rights checks by
// accident.
func (o ForceRightsOverride) Validate() error {
	if !o.Authorized {
		return apperrors.New(apperrors.ErrorTypeAuth, "force_rights override requires explicit authorization")
	}
	if o.Reason == "" {
		return apperrors.New(apperrors.ErrorTypeValidation, "force_rights override requires a reason")
	}
	return nil
}
