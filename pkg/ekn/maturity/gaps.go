package maturity

import "strconv"

// GapType names one of the six gap categories spec.md §4.6 lists.
type GapType string

const (
	GapOrphan           GapType = "orphan"
	GapMissingCanonical GapType = "missing_canonical"
	GapAmbiguousRights  GapType = "ambiguous_rights"
	GapSparse           GapType = "sparse"
	GapTemporal         GapType = "temporal"
	GapMissingEmbedding GapType = "missing_embedding"
)

// Severity is the gap's qualitative urgency.
type Severity string

const (
	SeverityMinimal  Severity = "minimal"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityWeights are the fixed prioritization weights spec.md §4.6 states
// for five of the six gap types. "missing_embedding" is listed as a gap
// category but is not assigned a weight in the spec text; DESIGN.md records
// the resolution: it is scored for severity like every other gap but
// excluded from PriorityScore's weighted sum (weight 0) since inventing a
// number the spec never states would misrepresent a stated omission as a
// measured judgment.
var severityWeights = map[GapType]float64{
	GapOrphan:           0.30,
	GapMissingCanonical: 0.25,
	GapAmbiguousRights:  0.20,
	GapSparse:           0.15,
	GapTemporal:         0.10,
	GapMissingEmbedding: 0.0,
}

// Gap is one entry in the gap inventory.
type Gap struct {
	Type        GapType
	Severity    Severity
	EntityRef   string // opaque identifier of the affected entity/node, caller-assigned
	Description string
}

// PriorityScore sums each gap's fixed type weight times its severity weight,
// giving a single comparable number for ranking gap inventories across
// batches or across re-assessments of the same batch.
func PriorityScore(gaps []Gap) float64 {
	var total float64
	for _, g := range gaps {
		total += severityWeights[g.Type] * severityFactor(g.Severity)
	}
	return total
}

func severityFactor(s Severity) float64 {
	switch s {
	case SeverityMinimal:
		return 0.2
	case SeverityLow:
		return 0.4
	case SeverityMedium:
		return 0.6
	case SeverityHigh:
		return 0.8
	case SeverityCritical:
		return 1.0
	default:
		return 0
	}
}

// ClassifyDegreeGap scores a node's sparse/orphan condition from its degree,
// honoring spec.md §4.6's "sparse relationships (nodes with degree 1)" and
// the orphan-removal preserve-window distinction already enforced by
// pkg/ekn/graph (a degree-0 node surviving orphan removal is preserved, not
// absent, so it is still worth flagging here, at high severity rather than
// critical).
func ClassifyDegreeGap(entityRef string, degree int) (Gap, bool) {
	switch {
	case degree == 0:
		return Gap{Type: GapOrphan, Severity: SeverityHigh, EntityRef: entityRef, Description: "node has no edges"}, true
	case degree == 1:
		return Gap{Type: GapSparse, Severity: SeverityLow, EntityRef: entityRef, Description: "node has a single relationship"}, true
	default:
		return Gap{}, false
	}
}

// ClassifyRightsGap flags a rights record as ambiguous when confidence is
// low or the license is unknown (spec.md §4.6).
func ClassifyRightsGap(entityRef string, confidence float64, licenseUnknown bool) (Gap, bool) {
	switch {
	case licenseUnknown:
		return Gap{Type: GapAmbiguousRights, Severity: SeverityMedium, EntityRef: entityRef, Description: "license is unknown"}, true
	case confidence < 0.5:
		return Gap{Type: GapAmbiguousRights, Severity: SeverityHigh, EntityRef: entityRef, Description: "rights confidence below 0.5"}, true
	case confidence < 0.7:
		return Gap{Type: GapAmbiguousRights, Severity: SeverityMedium, EntityRef: entityRef, Description: "rights confidence below the permissive threshold"}, true
	default:
		return Gap{}, false
	}
}

// ClassifyTemporalGap flags a missing year within the batch's min-max year
// range (spec.md §4.6 "temporal gaps (missing years within min-max range)").
func ClassifyTemporalGap(year int) Gap {
	return Gap{Type: GapTemporal, Severity: SeverityLow, EntityRef: strconv.Itoa(year), Description: "year has no dated entity"}
}

// ClassifyMissingCanonical flags a lexicon-eligible term that was never
// persisted as a canonical entry.
func ClassifyMissingCanonical(entityRef string) Gap {
	return Gap{Type: GapMissingCanonical, Severity: SeverityMedium, EntityRef: entityRef, Description: "no canonical term recorded"}
}

// ClassifyMissingEmbedding flags a training-eligible entity with no stored
// vector.
func ClassifyMissingEmbedding(entityRef string) Gap {
	return Gap{Type: GapMissingEmbedding, Severity: SeverityLow, EntityRef: entityRef, Description: "entity has no embedding"}
}
