// Package runner owns the PipelineRun state machine (spec.md §4.1): nine
// ordered stages, automatic advancement, crash survival, and operator
// resume/retry/skip/reset overrides.
package runner

import "time"

// State is the overall run-level state (spec.md §4.1).
type State string

const (
	StateInitialized State = "initialized"
	StateRunning     State = "running"
	StatePaused      State = "paused"
	StateFailed      State = "failed"
	StateCompleted   State = "completed"
)

// IsTerminal reports whether state admits no further transitions. Completed
// is always terminal; Failed is terminal once retries are exhausted (the
// runner checks RetryCount separately before treating Failed as final).
func (s State) IsTerminal() bool {
	return s == StateCompleted
}

// Stage is the fixed 0..9 stage ordinal (spec.md §4.1).
type Stage int

const (
	StageFrame Stage = iota // 0: configuration capture, no job
	StageIntake
	StageRightsProvenance
	StageLexiconBootstrap
	StagePoolExtraction
	StageGraphAssembly
	StageEmbeddings
	StageLiteracyScoring
	StageDeliverables
	StageFineTuneDatasetBuild
	stageCount
)

// LastStage is the highest valid stage ordinal.
const LastStage = stageCount - 1

var stageNames = map[Stage]string{
	StageFrame:                "frame",
	StageIntake:               "intake",
	StageRightsProvenance:     "rights_and_provenance",
	StageLexiconBootstrap:     "lexicon_bootstrap",
	StagePoolExtraction:       "pool_extraction",
	StageGraphAssembly:        "graph_assembly",
	StageEmbeddings:           "embeddings",
	StageLiteracyScoring:      "literacy_scoring",
	StageDeliverables:         "deliverables",
	StageFineTuneDatasetBuild: "fine_tune_dataset_build",
}

// String returns the stage's canonical lowercase name.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// HasJob reports whether a stage has an associated Job (Frame does not:
// "configuration capture — no job, marked complete on first start",
// spec.md §4.1).
func (s Stage) HasJob() bool {
	return s != StageFrame
}

// StageRunStatus is the per-stage status recorded on a PipelineRun
// (spec.md §3).
type StageRunStatus string

const (
	StageRunPending   StageRunStatus = "pending"
	StageRunRunning   StageRunStatus = "running"
	StageRunCompleted StageRunStatus = "completed"
	StageRunFailed    StageRunStatus = "failed"
	StageRunSkipped   StageRunStatus = "skipped"
)

// MaxRetries is the default run-level retry cap (spec.md §8 "Retry cap"),
// overridable via config.RunnerConfig.MaxRetries.
const MaxRetries = 3

// MaxBackoff caps exponential back-off at 15 minutes (spec.md §4.1).
const MaxBackoff = 15 * time.Minute

// PipelineRun is the durable record of one batch's progress through the
// nine-stage pipeline (spec.md §3). The Runner is the only component
// permitted to mutate it (spec.md §4.1 Ownership; see Runner.transition).
type PipelineRun struct {
	ID            int64                        `json:"id" db:"id"`
	BatchID       int64                        `json:"batch_id" db:"batch_id"`
	CurrentStage  Stage                        `json:"current_stage" db:"current_stage"`
	State         State                        `json:"state" db:"state"`
	RetryCount    int                          `json:"retry_count" db:"retry_count"`
	StageStatuses map[Stage]StageRunStatus     `json:"stage_statuses" db:"-"`
	StageMetrics  map[Stage]map[string]float64 `json:"stage_metrics" db:"-"`
	ErrorMessage  string                       `json:"error_message,omitempty" db:"error_message"`
	NextRetryAt   *time.Time                   `json:"next_retry_at,omitempty" db:"next_retry_at"`
	StartedAt     *time.Time                   `json:"started_at,omitempty" db:"started_at"`
	FinishedAt    *time.Time                   `json:"finished_at,omitempty" db:"finished_at"`
	CreatedAt     time.Time                    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time                    `json:"updated_at" db:"updated_at"`
}

// NewPipelineRun constructs a fresh run for batchID in the initial state
// with every stage pending.
func NewPipelineRun(batchID int64) *PipelineRun {
	statuses := make(map[Stage]StageRunStatus, stageCount)
	metrics := make(map[Stage]map[string]float64, stageCount)
	for s := Stage(0); s < stageCount; s++ {
		statuses[s] = StageRunPending
	}
	return &PipelineRun{
		BatchID:       batchID,
		CurrentStage:  StageFrame,
		State:         StateInitialized,
		StageStatuses: statuses,
		StageMetrics:  metrics,
	}
}

// RecordMetrics merges metrics into the named stage's metric map (spec.md
// §4.2 "Metrics").
func (r *PipelineRun) RecordMetrics(s Stage, metrics map[string]float64) {
	if r.StageMetrics == nil {
		r.StageMetrics = map[Stage]map[string]float64{}
	}
	existing := r.StageMetrics[s]
	if existing == nil {
		existing = map[string]float64{}
	}
	for k, v := range metrics {
		existing[k] = v
	}
	r.StageMetrics[s] = existing
}

// RetriesExhausted reports whether the retry cap has been reached, i.e. no
// further retry is permitted.
func (r *PipelineRun) RetriesExhausted(maxRetries int) bool {
	return r.RetryCount >= maxRetries
}
