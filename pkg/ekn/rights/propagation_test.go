package rights_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/rights"
)

var _ = Describe("Resolve", func() {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	It("produces a permissive record when confidence clears the threshold", func() {
		rec, quarantined := rights.Resolve(rights.Inference{
			Confidence: 0.8, License: model.LicenseCreativeCommons, Consent: model.ConsentGranted,
			Publishable: true, Trainable: true,
		}, false, now)
		Expect(quarantined).To(BeFalse())
		Expect(rec.Publishable).To(BeTrue())
		Expect(rec.TrainingEligible).To(BeTrue())
		Expect(rec.ValidTimeStart).To(Equal(now))
	})

	It("quarantines but still creates a rights record below the threshold", func() {
		rec, quarantined := rights.Resolve(rights.Inference{
			Confidence: 0.4, License: model.LicenseUnknown, Consent: model.ConsentUnknown,
		}, false, now)
		Expect(quarantined).To(BeTrue())
		Expect(rec.Publishable).To(BeFalse())
		Expect(rec.TrainingEligible).To(BeFalse())
		Expect(rec.ValidTimeStart).To(Equal(now))
	})

	It("honors the test override unconditionally regardless of inference confidence", func() {
		rec, quarantined := rights.Resolve(rights.Inference{Confidence: 0.0}, true, now)
		Expect(quarantined).To(BeFalse())
		Expect(rec.Publishable).To(BeTrue())
		Expect(rec.TrainingEligible).To(BeTrue())
		Expect(rec.Confidence).To(Equal(0.9))
		Expect(rec.License).To(Equal(model.LicenseSynthetic))
	})
})

var _ = Describe("FilterTrainingEligible", func() {
	It("partitions entities by their rights record's training decision", func() {
		decisions := map[int64]rights.Decision{
			100: {AllowTraining: true},
			200: {AllowTraining: false},
		}
		entityRightsID := map[int64]int64{
			1: 100, // eligible
			2: 200, // ineligible
			3: 100, // eligible
		}
		eligible, ineligible := rights.FilterTrainingEligible(decisions, entityRightsID)
		Expect(eligible).To(ConsistOf(int64(1), int64(3)))
		Expect(ineligible).To(ConsistOf(int64(2)))
	})
})
