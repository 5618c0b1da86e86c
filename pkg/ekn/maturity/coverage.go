package maturity

import "math"

// CoverageInputs are the raw facts a caller extracts from the graph/
// relational stores before computing CoverageMetrics; kept separate from
// the metrics themselves so the arithmetic here stays storage-free and
// independently testable.
type CoverageInputs struct {
	// IdeaCount and CoveredIdeaCount: ideas that have at least one embodying
	// Manifest or eliciting Experience, vs. total ideas.
	IdeaCount        int
	CoveredIdeaCount int

	// NodeDegrees is every connectivity-required node's degree (spec.md
	// §4.4.6's seven labels), used for average degree and orphan share.
	NodeDegrees []int

	// IdeaToManifestHopCounts is, for every Idea with at least one path to a
	// Manifest, the shortest hop count found (spec.md §4.6: "path
	// completeness from Idea to Manifest within ≤3 hops").
	IdeaToManifestHopCounts []int
	IdeaCountWithManifestTarget int

	// YearsPresent / YearMin / YearMax describe the Spatial pool's temporal
	// spread for the temporal-coverage metric.
	YearsPresent []int
	YearMin      int
	YearMax      int

	// SpatialEntityCount and TotalEntityCount feed the spatial-coverage
	// ratio.
	SpatialEntityCount int
	TotalEntityCount   int

	// PoolCounts maps each pool label to its entity count, used for the
	// distribution-balance coefficient of variation.
	PoolCounts map[string]int
}

// Metrics is the set of coverage percentages spec.md §4.6 names.
type Metrics struct {
	IdeaCoverage              float64
	AverageNodeDegree         float64
	OrphanShare               float64
	PathCompleteness          float64
	TemporalCoverage          float64
	SpatialCoverage           float64
	PoolDistributionBalance   float64 // coefficient of variation; lower is more balanced
}

// Compute derives every coverage percentage from CoverageInputs.
func Compute(in CoverageInputs) Metrics {
	return Metrics{
		IdeaCoverage:            ratio(in.CoveredIdeaCount, in.IdeaCount),
		AverageNodeDegree:       average(in.NodeDegrees),
		OrphanShare:             orphanShare(in.NodeDegrees),
		PathCompleteness:        pathCompleteness(in.IdeaToManifestHopCounts, in.IdeaCountWithManifestTarget),
		TemporalCoverage:        temporalCoverage(in.YearsPresent, in.YearMin, in.YearMax),
		SpatialCoverage:         ratio(in.SpatialEntityCount, in.TotalEntityCount),
		PoolDistributionBalance: coefficientOfVariation(in.PoolCounts),
	}
}

func ratio(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}

func average(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// orphanShare is the percentage of nodes with degree 0.
func orphanShare(degrees []int) float64 {
	if len(degrees) == 0 {
		return 0
	}
	orphans := 0
	for _, d := range degrees {
		if d == 0 {
			orphans++
		}
	}
	return ratio(orphans, len(degrees))
}

// pathCompleteness is the percentage of Ideas with a target Manifest whose
// shortest path is within the 3-hop bound.
func pathCompleteness(hops []int, totalWithTarget int) float64 {
	if totalWithTarget == 0 {
		return 0
	}
	within := 0
	for _, h := range hops {
		if h <= 3 {
			within++
		}
	}
	return ratio(within, totalWithTarget)
}

// temporalCoverage is the percentage of years within [min, max] that have at
// least one dated entity.
func temporalCoverage(years []int, min, max int) float64 {
	if max < min {
		return 0
	}
	span := max - min + 1
	present := make(map[int]bool, len(years))
	for _, y := range years {
		present[y] = true
	}
	covered := 0
	for y := min; y <= max; y++ {
		if present[y] {
			covered++
		}
	}
	return ratio(covered, span)
}

// coefficientOfVariation is stddev/mean across pool entity counts, the
// spec's chosen pool-distribution-balance statistic (spec.md §4.6).
func coefficientOfVariation(counts map[string]int) float64 {
	if len(counts) == 0 {
		return 0
	}
	values := make([]float64, 0, len(counts))
	sum := 0.0
	for _, c := range counts {
		values = append(values, float64(c))
		sum += float64(c)
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance) / mean
}
