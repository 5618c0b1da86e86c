package runner_test

import (
	"context"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-logr/logr"

	"github.com/enliterator/enliterator/pkg/ekn/runner"
)

// slowJob blocks until released, letting tests observe the concurrency cap.
type slowJob struct {
	stage   runner.Stage
	inFlight *int32
	maxSeen  *int32
	release  <-chan struct{}
}

func (j *slowJob) Stage() runner.Stage              { return j.stage }
func (j *slowJob) Accepts(map[string]string) bool { return true }
func (j *slowJob) Run(ctx context.Context, run *runner.PipelineRun) (runner.JobResult, error) {
	n := atomic.AddInt32(j.inFlight, 1)
	for {
		seen := atomic.LoadInt32(j.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(j.maxSeen, seen, n) {
			break
		}
	}
	<-j.release
	atomic.AddInt32(j.inFlight, -1)
	return runner.JobResult{AcceptancePassed: true}, nil
}

var _ = Describe("WorkerPool", func() {
	It("never runs more than its configured concurrency simultaneously", func() {
		store := newMemStore()
		lock := memLocker{}
		inFlight := new(int32)
		maxSeen := new(int32)
		release := make(chan struct{})

		jobs := map[runner.Stage]runner.Job{
			runner.StageIntake: &slowJob{stage: runner.StageIntake, inFlight: inFlight, maxSeen: maxSeen, release: release},
		}
		for s := runner.StageRightsProvenance; s <= runner.LastStage; s++ {
			jobs[s] = &fakeJob{stage: s}
		}
		r := runner.NewRunner(store, lock, nil, jobs, logr.Discard())

		var runIDs []int64
		for i := 0; i < 5; i++ {
			run, err := r.Start(context.Background(), int64(100+i))
			Expect(err).ToNot(HaveOccurred())
			Expect(r.Advance(context.Background(), run.ID)).To(Succeed()) // Frame -> Intake
			runIDs = append(runIDs, run.ID)
		}

		pool := runner.NewWorkerPool(2)
		done := make(chan error, 1)
		go func() {
			done <- pool.Drive(context.Background(), r, runIDs)
		}()

		Eventually(func() int32 { return atomic.LoadInt32(inFlight) }, time.Second).Should(BeNumerically(">", 0))
		Consistently(func() int32 { return atomic.LoadInt32(maxSeen) }, 200*time.Millisecond).Should(BeNumerically("<=", 2))

		close(release)
		Eventually(done, time.Second).Should(Receive(BeNil()))
		Expect(atomic.LoadInt32(maxSeen)).To(BeNumerically("<=", 2))
	})
})
