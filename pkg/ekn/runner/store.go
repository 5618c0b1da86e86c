package runner

import "context"

// Store is the subset of the relational store (pkg/ekn/store) the Runner
// needs to persist PipelineRun state. Kept narrow and local so this package
// never imports pkg/ekn/store directly (avoids a dependency cycle: the
// store package's migrations/tests have no reason to know about the
// runner's state machine).
type Store interface {
	GetRun(ctx context.Context, runID int64) (*PipelineRun, error)
	SaveRun(ctx context.Context, run *PipelineRun) error
	CreateRun(ctx context.Context, run *PipelineRun) (int64, error)
}
