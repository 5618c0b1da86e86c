package runner_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/runner"
)

var _ = Describe("Run State Machine", func() {

	Describe("IsTerminal", func() {
		DescribeTable("should correctly identify terminal vs non-terminal states",
			func(s runner.State, expected bool) {
				Expect(s.IsTerminal()).To(Equal(expected))
			},
			Entry("initialized is not terminal", runner.StateInitialized, false),
			Entry("running is not terminal", runner.StateRunning, false),
			Entry("paused is not terminal", runner.StatePaused, false),
			Entry("failed is not terminal (retries may remain)", runner.StateFailed, false),
			Entry("completed is terminal", runner.StateCompleted, true),
		)
	})

	Describe("CanTransition", func() {
		DescribeTable("should validate run state transitions",
			func(from, to runner.State, allowed bool) {
				Expect(runner.CanTransition(from, to)).To(Equal(allowed))
			},
			Entry("initialized -> running: allowed", runner.StateInitialized, runner.StateRunning, true),
			Entry("initialized -> completed: NOT allowed", runner.StateInitialized, runner.StateCompleted, false),
			Entry("running -> paused: allowed", runner.StateRunning, runner.StatePaused, true),
			Entry("running -> failed: allowed", runner.StateRunning, runner.StateFailed, true),
			Entry("running -> completed: allowed", runner.StateRunning, runner.StateCompleted, true),
			Entry("paused -> running: allowed", runner.StatePaused, runner.StateRunning, true),
			Entry("paused -> completed: NOT allowed", runner.StatePaused, runner.StateCompleted, false),
			Entry("failed -> running: allowed (retry)", runner.StateFailed, runner.StateRunning, true),
			Entry("failed -> completed: allowed (manual resume)", runner.StateFailed, runner.StateCompleted, true),
			Entry("completed -> running: NOT allowed", runner.StateCompleted, runner.StateRunning, false),
			Entry("completed -> failed: NOT allowed", runner.StateCompleted, runner.StateFailed, false),
		)
	})

	Describe("Validate", func() {
		DescribeTable("should validate state values",
			func(s runner.State, shouldSucceed bool) {
				err := s.Validate()
				if shouldSucceed {
					Expect(err).ToNot(HaveOccurred())
				} else {
					Expect(err).To(HaveOccurred())
				}
			},
			Entry("initialized is valid", runner.StateInitialized, true),
			Entry("running is valid", runner.StateRunning, true),
			Entry("paused is valid", runner.StatePaused, true),
			Entry("failed is valid", runner.StateFailed, true),
			Entry("completed is valid", runner.StateCompleted, true),
			Entry("empty string is invalid", runner.State(""), false),
			Entry("unknown value is invalid", runner.State("bogus"), false),
		)
	})

	Describe("NextStage", func() {
		It("advances through every stage in order", func() {
			s := runner.StageFrame
			for s < runner.LastStage {
				next, more := runner.NextStage(s)
				Expect(more).To(BeTrue())
				Expect(next).To(Equal(s + 1))
				s = next
			}
		})

		It("reports no further stage after the last one", func() {
			_, more := runner.NextStage(runner.LastStage)
			Expect(more).To(BeFalse())
		})
	})

	Describe("Stage.HasJob", func() {
		It("reports Frame has no job", func() {
			Expect(runner.StageFrame.HasJob()).To(BeFalse())
		})

		It("reports every other stage has a job", func() {
			for s := runner.StageIntake; s <= runner.LastStage; s++ {
				Expect(s.HasJob()).To(BeTrue(), s.String())
			}
		})
	})
})
