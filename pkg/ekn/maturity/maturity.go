// Package maturity computes a batch's maturity level, coverage metrics, gap
// inventory, and acceptance-gate evaluation (spec.md §4.6, C10).
package maturity

// Level is one of the seven monotone maturity levels (spec.md §4.6).
type Level int

const (
	M0RawIntake Level = iota
	M1RightsAssigned
	M2LexiconExtracted
	M3EntitiesIdentified
	M4GraphAssembled
	M5EmbeddingsComplete
	M6FullyLiterate
)

func (l Level) String() string {
	switch l {
	case M0RawIntake:
		return "M0"
	case M1RightsAssigned:
		return "M1"
	case M2LexiconExtracted:
		return "M2"
	case M3EntitiesIdentified:
		return "M3"
	case M4GraphAssembled:
		return "M4"
	case M5EmbeddingsComplete:
		return "M5"
	case M6FullyLiterate:
		return "M6"
	default:
		return "unknown"
	}
}

// LiteracyThreshold is the minimum literacy score required for M6 (spec.md
// §4.6).
const LiteracyThreshold = 70.0

// Snapshot is the minimal set of batch facts Assess needs; a caller
// (the Literacy Scoring stage job) assembles it from the relational store and
// graph store, keeping this package free of any storage dependency.
type Snapshot struct {
	BatchExists            bool
	RightsRecordCount      int
	ItemsTriageCompleted   int
	CanonicalTermCount     int
	PoolEntityCount        int
	GraphNodeCount         int
	EmbeddingCount         int
	LiteracyScore          float64
}

// Assess computes the highest maturity level a batch has reached. Levels are
// evaluated in order and the assessment stops at the first unmet condition,
// guaranteeing monotonicity: a batch can never be reported at a level higher
// than the highest *contiguous* level it satisfies (spec.md §4.6 "Maturity
// levels (monotone)").
func Assess(s Snapshot) Level {
	if !s.BatchExists {
		return M0RawIntake
	}
	if s.RightsRecordCount == 0 || s.ItemsTriageCompleted == 0 {
		return M0RawIntake
	}
	if s.CanonicalTermCount == 0 {
		return M1RightsAssigned
	}
	if s.PoolEntityCount == 0 {
		return M2LexiconExtracted
	}
	if s.GraphNodeCount == 0 {
		return M3EntitiesIdentified
	}
	if s.EmbeddingCount == 0 {
		return M4GraphAssembled
	}
	if s.LiteracyScore < LiteracyThreshold {
		return M5EmbeddingsComplete
	}
	return M6FullyLiterate
}
