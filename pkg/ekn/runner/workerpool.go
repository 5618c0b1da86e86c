package runner

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// WorkerPool bounds how many PipelineRuns a single controller process
// advances concurrently (spec.md §4.1 "bounded parallelism across runs").
// Each run is still serialized against itself by Locker; WorkerPool only
// caps how many distinct runs this process drives at once.
type WorkerPool struct {
	sem *semaphore.Weighted
}

// NewWorkerPool builds a pool that admits at most concurrency simultaneous
// Advance calls.
func NewWorkerPool(concurrency int64) *WorkerPool {
	return &WorkerPool{sem: semaphore.NewWeighted(concurrency)}
}

// Drive calls runner.Advance for every id in runIDs, respecting the pool's
// concurrency cap, and returns the first error encountered (others are
// still attempted; errgroup collects only the first non-nil).
func (p *WorkerPool) Drive(ctx context.Context, runner *Runner, runIDs []int64) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, id := range runIDs {
		id := id
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer p.sem.Release(1)
			return runner.Advance(ctx, id)
		})
	}
	return g.Wait()
}
