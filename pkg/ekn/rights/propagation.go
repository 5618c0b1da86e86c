package rights

import (
	"time"

	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// Inference is the Rights Service call contract response (spec.md §6,
// "Rights Inference: infer(item) → {confidence, license, consent,
// publishable, trainable, source_type, method}"). source_type and method are
// descriptive only and not modeled on ProvenanceAndRights.
type Inference struct {
	Confidence  float64
	License     model.License
	Consent     model.Consent
	Publishable bool
	Trainable   bool
	SourceType  string
	Method      string
}

// Resolve applies the spec.md §4.3 Rights & Provenance stage contract: a
// confident inference becomes a permissive record; a low-confidence one
// still produces a rights record (so the invariant "every pool entity
// references an existing ProvenanceAndRights" always holds) but with both
// permissions forced false and the item quarantined.
//
// override implements the test_rights_override configuration flag: when set
// for a synthetic batch it unconditionally yields permissive rights at
// confidence 0.9, matching the spec's documented workaround for the Rights
// Service's synthetic-content blind spot (see DESIGN.md Open Question
// resolution).
func Resolve(inf Inference, override bool, now time.Time) (rec model.ProvenanceAndRights, quarantined bool) {
	if override {
		return model.ProvenanceAndRights{
			License:          model.LicenseSynthetic,
			Consent:          model.ConsentGranted,
			Publishable:      true,
			TrainingEligible: true,
			ValidTimeStart:   now,
			Confidence:       0.9,
			CreatedAt:        now,
		}, false
	}

	if inf.Confidence >= model.MinimumConfidenceForPermissiveRights {
		return model.ProvenanceAndRights{
			License:          inf.License,
			Consent:          inf.Consent,
			Publishable:      inf.Publishable,
			TrainingEligible: inf.Trainable,
			ValidTimeStart:   now,
			Confidence:       inf.Confidence,
			CreatedAt:        now,
		}, false
	}

	return model.ProvenanceAndRights{
		License:          inf.License,
		Consent:          inf.Consent,
		Publishable:      false,
		TrainingEligible: false,
		ValidTimeStart:   now,
		Confidence:       inf.Confidence,
		CreatedAt:        now,
	}, true
}

// Propagator gates pool entities against the compiled policy at the two
// downstream boundaries the spec names: Embeddings (training_eligible) and
// Deliverables (publishable). It never re-decides rights for an item; it
// only filters entities whose ProvenanceAndRights has already been resolved
// by Resolve and persisted.
type Propagator struct {
	policy *Policy
}

// NewPropagator wraps a compiled Policy for repeated filtering calls.
func NewPropagator(policy *Policy) *Propagator {
	return &Propagator{policy: policy}
}

// EligibleForTraining reports whether an entity bearing the given rights
// record may be handed to the Embedding Service (spec.md §4.5).
func (p *Propagator) EligibleForTraining(decision Decision) bool {
	return decision.AllowTraining
}

// EligibleForPublish reports whether an entity bearing the given rights
// record may be surfaced by Deliverables.
func (p *Propagator) EligibleForPublish(decision Decision) bool {
	return decision.AllowPublish
}

// FilterTrainingEligible partitions rights-linked entity ids by whether
// their associated decision permits training. The input is a map, so the
// order of ids within each partition is not defined.
func FilterTrainingEligible(decisions map[int64]Decision, entityRightsID map[int64]int64) (eligible, ineligible []int64) {
	for entityID, rightsID := range entityRightsID {
		d, ok := decisions[rightsID]
		if ok && d.AllowTraining {
			eligible = append(eligible, entityID)
		} else {
			ineligible = append(ineligible, entityID)
		}
	}
	return eligible, ineligible
}
