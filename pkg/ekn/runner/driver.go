package runner

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-logr/logr"

	apperrors "github.com/enliterator/enliterator/internal/errors"
)

// LockTTL bounds how long a single Advance call may hold the per-run lock
// before another controller is allowed to assume the holder crashed.
const LockTTL = 5 * time.Minute

// Runner drives PipelineRun instances through their nine stages. It is the
// only component permitted to mutate a PipelineRun (spec.md §4.1
// Ownership); every other package reads runs through Store directly.
type Runner struct {
	store   Store
	lock    Locker
	cache   *RunCache
	jobs    map[Stage]Job
	log     logr.Logger
	notify  func(run *PipelineRun, err error)
	metrics func(stage Stage, outcome string, duration time.Duration)

	maxRetries     int
	backoffInitial time.Duration
	backoffCap     time.Duration
}

// Option configures a Runner at construction time.
type Option func(*Runner)

// WithRetryPolicy overrides the default retry cap and backoff bounds.
func WithRetryPolicy(maxRetries int, initial, cap time.Duration) Option {
	return func(r *Runner) {
		r.maxRetries = maxRetries
		r.backoffInitial = initial
		r.backoffCap = cap
	}
}

// WithNotifier registers a callback invoked whenever a run transitions to
// Failed with no retry scheduled: either the error is not retryable or
// retries are exhausted (wired to Slack in pkg/ekn/notify).
func WithNotifier(fn func(run *PipelineRun, err error)) Option {
	return func(r *Runner) { r.notify = fn }
}

// WithMetricsRecorder registers a callback invoked after every stage job
// execution with the wall-clock duration of that single job.Run call and an
// outcome of "completed", "failed", or "rejected" (acceptance gate failed).
// Wired to pkg/ekn/observability's stage histograms/counters in
// cmd/enliterator; left nil the Runner records nothing.
func WithMetricsRecorder(fn func(stage Stage, outcome string, duration time.Duration)) Option {
	return func(r *Runner) { r.metrics = fn }
}

// NewRunner builds a Runner over the given persistence, locking, and job
// set. jobs must contain exactly one entry per stage that HasJob().
func NewRunner(store Store, lock Locker, cache *RunCache, jobs map[Stage]Job, log logr.Logger, opts ...Option) *Runner {
	r := &Runner{
		store:          store,
		lock:           lock,
		cache:          cache,
		jobs:           jobs,
		log:            log,
		maxRetries:     MaxRetries,
		backoffInitial: time.Second,
		backoffCap:     MaxBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start creates a new run for batchID and immediately completes stage 0
// (Frame has no job: "marked complete on first start"). The run stays on
// stage 0 until the first Advance moves it onto stage 1 without running a
// job.
func (r *Runner) Start(ctx context.Context, batchID int64) (*PipelineRun, error) {
	run := NewPipelineRun(batchID)
	id, err := r.store.CreateRun(ctx, run)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "creating pipeline run")
	}
	run.ID = id
	run.StageStatuses[StageFrame] = StageRunCompleted
	run.State = StateRunning
	now := timeNow()
	run.StartedAt = &now
	if err := r.store.SaveRun(ctx, run); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "saving initial pipeline run")
	}
	return run, nil
}

// Advance executes exactly one stage job for runID under the per-run lock
// and persists the result. It is the unit of work a controller loop calls
// repeatedly until the run reaches a terminal state (spec.md §4.1).
func (r *Runner) Advance(ctx context.Context, runID int64) error {
	token, ok, err := r.lock.Acquire(ctx, runID, LockTTL)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "acquiring run lock")
	}
	if !ok {
		return apperrors.New(apperrors.ErrorTypeConflict, "run is held by another controller").
			WithDetailsf("run_id=%d", runID)
	}
	defer r.lock.Release(ctx, runID, token)

	run, err := r.store.GetRun(ctx, runID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "loading pipeline run")
	}
	if run.State.IsTerminal() {
		return nil
	}
	if run.State == StatePaused {
		return nil
	}

	stage := run.CurrentStage
	if !stage.HasJob() {
		return r.advanceStage(ctx, run)
	}

	job, ok := r.jobs[stage]
	if !ok {
		return fmt.Errorf("runner: no job registered for stage %s", stage)
	}

	if run.State == StateFailed {
		if run.RetriesExhausted(r.maxRetries) {
			return nil
		}
		if run.NextRetryAt != nil && timeNow().Before(*run.NextRetryAt) {
			return nil
		}
		run.State = StateRunning
	}

	run.StageStatuses[stage] = StageRunRunning
	start := timeNow()
	result, jobErr := job.Run(ctx, run)
	elapsed := timeNow().Sub(start)
	run.RecordMetrics(stage, result.StageMetrics)

	if jobErr != nil {
		r.recordOutcome(stage, "failed", elapsed)
		return r.handleFailure(ctx, run, stage, jobErr)
	}
	if !result.AcceptancePassed {
		r.recordOutcome(stage, "rejected", elapsed)
		acceptErr := apperrors.New(apperrors.ErrorTypeValidation, "stage acceptance gate failed").
			WithDetails(result.AcceptanceNote)
		return r.handleFailure(ctx, run, stage, acceptErr)
	}
	r.recordOutcome(stage, "completed", elapsed)
	if failed := result.FailedItems(); len(failed) > 0 {
		r.log.Info("stage completed with per-item failures", "stage", stage.String(), "failed_items", len(failed))
	}

	run.StageStatuses[stage] = StageRunCompleted
	run.RetryCount = 0
	run.NextRetryAt = nil
	run.ErrorMessage = ""
	return r.advanceStage(ctx, run)
}

// advanceStage moves run onto the next stage (or Completed if it just
// finished the last one) and persists it.
func (r *Runner) advanceStage(ctx context.Context, run *PipelineRun) error {
	next, more := NextStage(run.CurrentStage)
	if !more {
		run.State = StateCompleted
		now := timeNow()
		run.FinishedAt = &now
		if r.cache != nil {
			r.cache.Clear(ctx, run.ID)
		}
		return r.persist(ctx, run)
	}
	run.CurrentStage = next
	run.State = StateRunning
	return r.persist(ctx, run)
}

func (r *Runner) handleFailure(ctx context.Context, run *PipelineRun, stage Stage, jobErr error) error {
	kind := Classify(jobErr)
	run.StageStatuses[stage] = StageRunFailed
	run.ErrorMessage = jobErr.Error()
	run.State = StateFailed

	if !kind.Retryable() {
		run.NextRetryAt = nil
		if err := r.persist(ctx, run); err != nil {
			return err
		}
		if r.notify != nil {
			r.notify(run, jobErr)
		}
		return nil
	}

	run.RetryCount++
	if run.RetriesExhausted(r.maxRetries) {
		run.NextRetryAt = nil
		if err := r.persist(ctx, run); err != nil {
			return err
		}
		if r.notify != nil {
			r.notify(run, jobErr)
		}
		return nil
	}
	next := r.backoff(run.RetryCount)
	at := timeNow().Add(next)
	run.NextRetryAt = &at
	return r.persist(ctx, run)
}

// backoff computes exponential delay capped at backoffCap (spec.md §4.1:
// "exponential back-off capped at 15 minutes").
func (r *Runner) backoff(attempt int) time.Duration {
	d := time.Duration(float64(r.backoffInitial) * math.Pow(2, float64(attempt-1)))
	if d > r.backoffCap {
		return r.backoffCap
	}
	return d
}

func (r *Runner) recordOutcome(stage Stage, outcome string, duration time.Duration) {
	if r.metrics != nil {
		r.metrics(stage, outcome, duration)
	}
}

func (r *Runner) persist(ctx context.Context, run *PipelineRun) error {
	run.UpdatedAt = timeNow()
	if err := r.store.SaveRun(ctx, run); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "saving pipeline run")
	}
	return nil
}

// Pause transitions a running run to paused, refusing if no such
// transition is legal from its current state.
func (r *Runner) Pause(ctx context.Context, runID int64) error {
	return r.transition(ctx, runID, StatePaused)
}

// Resume transitions a paused (or, for a manually-fixed failure, failed)
// run back to running.
func (r *Runner) Resume(ctx context.Context, runID int64) error {
	return r.transition(ctx, runID, StateRunning)
}

func (r *Runner) transition(ctx context.Context, runID int64, to State) error {
	run, err := r.store.GetRun(ctx, runID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "loading pipeline run")
	}
	if !CanTransition(run.State, to) {
		transErr := &TransitionError{RunID: runID, From: run.State, To: to}
		run.ErrorMessage = transErr.Error()
		if err := r.persist(ctx, run); err != nil {
			return err
		}
		return transErr
	}
	run.State = to
	if to == StateRunning {
		run.NextRetryAt = nil
	}
	return r.persist(ctx, run)
}

var timeNow = time.Now
