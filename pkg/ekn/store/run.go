package store

import (
	"context"
	"strconv"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
)

// Repository implements runner.Store (GetRun/SaveRun/CreateRun) so the
// runner package never imports this one (spec.md §6, runner/store.go's
// documented cycle-avoidance). Stage-keyed maps are JSON-encoded with
// string keys (runner.Stage has no MarshalJSON of its own — it is a plain
// int ordinal — so this file is the one place that knows the ordinal
// <-> string mapping for persistence).
type stageStatusRow map[string]runner.StageRunStatus
type stageMetricsRow map[string]map[string]float64

func toStageStatusRow(m map[runner.Stage]runner.StageRunStatus) stageStatusRow {
	out := make(stageStatusRow, len(m))
	for stage, status := range m {
		out[strconv.Itoa(int(stage))] = status
	}
	return out
}

func fromStageStatusRow(row stageStatusRow) map[runner.Stage]runner.StageRunStatus {
	out := make(map[runner.Stage]runner.StageRunStatus, len(row))
	for key, status := range row {
		n, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out[runner.Stage(n)] = status
	}
	return out
}

func toStageMetricsRow(m map[runner.Stage]map[string]float64) stageMetricsRow {
	out := make(stageMetricsRow, len(m))
	for stage, metrics := range m {
		out[strconv.Itoa(int(stage))] = metrics
	}
	return out
}

func fromStageMetricsRow(row stageMetricsRow) map[runner.Stage]map[string]float64 {
	out := make(map[runner.Stage]map[string]float64, len(row))
	for key, metrics := range row {
		n, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out[runner.Stage(n)] = metrics
	}
	return out
}

// CreateRun inserts a new PipelineRun row and returns its assigned id.
func (r *Repository) CreateRun(ctx context.Context, run *runner.PipelineRun) (int64, error) {
	var id int64
	statuses := toStageStatusRow(run.StageStatuses)
	metrics := toStageMetricsRow(run.StageMetrics)
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO pipeline_runs (batch_id, current_stage, state, retry_count, stage_statuses, stage_metrics,
			error_message, next_retry_at, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		run.BatchID, int(run.CurrentStage), run.State, run.RetryCount,
		jsonColumn{&statuses}, jsonColumn{&metrics}, run.ErrorMessage,
		run.NextRetryAt, run.StartedAt, run.FinishedAt,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.NewDatabaseError("create pipeline run", err)
	}
	return id, nil
}

// GetRun loads a PipelineRun by id.
func (r *Repository) GetRun(ctx context.Context, runID int64) (*runner.PipelineRun, error) {
	var run runner.PipelineRun
	var stage int
	var statuses stageStatusRow
	var metrics stageMetricsRow
	err := r.db.QueryRowContext(ctx,
		`SELECT id, batch_id, current_stage, state, retry_count, stage_statuses, stage_metrics,
			error_message, next_retry_at, started_at, finished_at, created_at, updated_at
		 FROM pipeline_runs WHERE id = $1`, runID).
		Scan(&run.ID, &run.BatchID, &stage, &run.State, &run.RetryCount,
			jsonColumn{&statuses}, jsonColumn{&metrics}, &run.ErrorMessage,
			&run.NextRetryAt, &run.StartedAt, &run.FinishedAt, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get pipeline run", err)
	}
	run.CurrentStage = runner.Stage(stage)
	run.StageStatuses = fromStageStatusRow(statuses)
	run.StageMetrics = fromStageMetricsRow(metrics)
	return &run, nil
}

// ListDrivableRuns returns the ids of every run a controller process should
// attempt to Advance on this poll: still Running, or Failed with a due
// NextRetryAt (spec.md §4.1 retry/back-off). Paused and Completed runs are
// never returned — the operator override surface is the only way back into
// Running from Paused (pkg/ekn/runner/overrides.go).
func (r *Repository) ListDrivableRuns(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM pipeline_runs
		 WHERE state = $1 OR (state = $2 AND next_retry_at IS NOT NULL AND next_retry_at <= now())`,
		runner.StateRunning, runner.StateFailed,
	)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list drivable pipeline runs", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewDatabaseError("scan drivable pipeline run id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError("list drivable pipeline runs", err)
	}
	return ids, nil
}

// SaveRun persists every mutable field of an existing PipelineRun,
// satisfying the runner's requirement that it be the sole mutator of the
// record it owns (spec.md §4.1 Ownership) — this method is just the
// storage side of that write.
func (r *Repository) SaveRun(ctx context.Context, run *runner.PipelineRun) error {
	statuses := toStageStatusRow(run.StageStatuses)
	metrics := toStageMetricsRow(run.StageMetrics)
	_, err := r.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET current_stage = $1, state = $2, retry_count = $3, stage_statuses = $4,
			stage_metrics = $5, error_message = $6, next_retry_at = $7, started_at = $8, finished_at = $9,
			updated_at = now()
		 WHERE id = $10`,
		int(run.CurrentStage), run.State, run.RetryCount, jsonColumn{&statuses}, jsonColumn{&metrics},
		run.ErrorMessage, run.NextRetryAt, run.StartedAt, run.FinishedAt, run.ID,
	)
	if err != nil {
		return apperrors.NewDatabaseError("save pipeline run", err)
	}
	return nil
}
