package stages

import (
	"context"
	"strconv"

	"github.com/go-logr/logr"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/graph"
	"github.com/enliterator/enliterator/pkg/ekn/maturity"
	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/runner"
)

// scoringStore is the narrow slice of the relational store the Literacy
// Scoring job needs.
type scoringStore interface {
	GetBatch(ctx context.Context, id int64) (*model.IngestBatch, error)
	ListItemsByBatch(ctx context.Context, batchID int64) ([]*model.IngestItem, error)
	CountRightsRecordsForBatch(ctx context.Context, batchID int64) (int, error)
	CountLexiconEntries(ctx context.Context, batchID int64) (int, error)
	CountPoolEntitiesByLabel(ctx context.Context, batchID int64) (map[model.PoolLabel]int, error)
	UpdateBatchLiteracyScore(ctx context.Context, id int64, score float64) error
}

// ScoringJob implements Stage 7 (spec.md §4.6 "Maturity & Coverage
// Analytics"): assesses the batch's maturity level, computes its coverage
// metrics and gap inventory against the per-batch graph, and records the
// resulting literacy score on the batch.
type ScoringJob struct {
	store      scoringStore
	graphStore *graph.Store
	log        logr.Logger
}

// NewScoringJob constructs the Literacy Scoring stage job.
func NewScoringJob(store scoringStore, graphStore *graph.Store, log logr.Logger) *ScoringJob {
	return &ScoringJob{store: store, graphStore: graphStore, log: log}
}

func (j *ScoringJob) Stage() runner.Stage { return runner.StageLiteracyScoring }

func (j *ScoringJob) Accepts(statuses map[string]string) bool {
	return statuses["embedding"] == string(model.StatusCompleted)
}

func (j *ScoringJob) Run(ctx context.Context, run *runner.PipelineRun) (runner.JobResult, error) {
	batch, err := j.store.GetBatch(ctx, run.BatchID)
	if err != nil {
		return runner.JobResult{}, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "loading batch")
	}
	items, err := j.store.ListItemsByBatch(ctx, run.BatchID)
	if err != nil {
		return runner.JobResult{}, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "listing batch items")
	}

	databaseName, _ := j.graphStore.DatabaseFor(model.GraphDatabaseNameFor(run.BatchID))

	rightsCount, err := j.store.CountRightsRecordsForBatch(ctx, run.BatchID)
	if err != nil {
		return runner.JobResult{}, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "counting rights records")
	}
	termCount, err := j.store.CountLexiconEntries(ctx, run.BatchID)
	if err != nil {
		return runner.JobResult{}, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "counting lexicon entries")
	}
	poolCounts, err := j.store.CountPoolEntitiesByLabel(ctx, run.BatchID)
	if err != nil {
		return runner.JobResult{}, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "counting pool entities")
	}
	var poolEntityCount int
	namedPoolCounts := make(map[string]int, len(poolCounts))
	for label, count := range poolCounts {
		poolEntityCount += count
		namedPoolCounts[string(label)] = count
	}

	var triageCompleted int
	for _, item := range items {
		if item.Triage == model.StatusCompleted {
			triageCompleted++
		}
	}

	graphNodeCount, err := j.graphCount(ctx, databaseName, `MATCH (n) RETURN count(n) AS c`)
	if err != nil {
		return runner.JobResult{}, err
	}
	embeddingCount, err := j.graphCount(ctx, databaseName, `MATCH (n) WHERE n.embedding IS NOT NULL RETURN count(n) AS c`)
	if err != nil {
		return runner.JobResult{}, err
	}

	coverage, err := j.coverageInputs(ctx, databaseName, namedPoolCounts)
	if err != nil {
		return runner.JobResult{}, err
	}
	metrics := maturity.Compute(coverage)

	// The spec names seven coverage percentages but not a single formula
	// combining them into the 0-100 literacy score gating M6 (spec.md §4.6);
	// DESIGN.md records the resolution: an unweighted average of the
	// ratio-valued metrics, scaled to 0-100, with orphan share inverted
	// since lower orphan share is better.
	literacyScore := 100 * average(
		metrics.IdeaCoverage, 1-metrics.OrphanShare, metrics.PathCompleteness,
		metrics.TemporalCoverage, metrics.SpatialCoverage,
	)

	if err := j.store.UpdateBatchLiteracyScore(ctx, run.BatchID, literacyScore); err != nil {
		return runner.JobResult{}, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "updating batch literacy score")
	}

	snapshot := maturity.Snapshot{
		BatchExists:          batch != nil,
		RightsRecordCount:    rightsCount,
		ItemsTriageCompleted: triageCompleted,
		CanonicalTermCount:   termCount,
		PoolEntityCount:      poolEntityCount,
		GraphNodeCount:       graphNodeCount,
		EmbeddingCount:       embeddingCount,
		LiteracyScore:        literacyScore,
	}
	level := maturity.Assess(snapshot)

	gaps, err := j.gapInventory(ctx, databaseName, coverage)
	if err != nil {
		return runner.JobResult{}, err
	}
	priority := maturity.PriorityScore(gaps)

	result := runner.JobResult{
		StageMetrics: map[string]float64{
			"literacy_score":     literacyScore,
			"maturity_level":     float64(level),
			"gap_count":          float64(len(gaps)),
			"gap_priority_score": priority,
			"idea_coverage":      metrics.IdeaCoverage,
			"orphan_share":       metrics.OrphanShare,
			"path_completeness":  metrics.PathCompleteness,
			"temporal_coverage":  metrics.TemporalCoverage,
			"spatial_coverage":   metrics.SpatialCoverage,
		},
		AcceptancePassed: true,
	}
	for _, item := range items {
		result.Items = append(result.Items, runner.ItemOutcome{ItemID: item.ID})
	}
	return result, nil
}

func average(values ...float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func (j *ScoringJob) graphCount(ctx context.Context, databaseName, cypher string) (int, error) {
	rows, err := j.graphStore.Query(ctx, databaseName, cypher, nil)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "querying graph counts")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	switch v := rows[0]["c"].(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, nil
	}
}

func (j *ScoringJob) coverageInputs(ctx context.Context, databaseName string, poolCounts map[string]int) (maturity.CoverageInputs, error) {
	in := maturity.CoverageInputs{PoolCounts: poolCounts}

	rows, err := j.graphStore.Query(ctx, databaseName,
		`MATCH (i:Idea) RETURN count(i) AS total,
			sum(CASE WHEN (i)--() THEN 1 ELSE 0 END) AS covered`, nil)
	if err == nil && len(rows) > 0 {
		in.IdeaCount = asInt(rows[0]["total"])
		in.CoveredIdeaCount = asInt(rows[0]["covered"])
	}

	for _, label := range model.RequiredPools {
		degRows, err := j.graphStore.Query(ctx, databaseName, queryDegrees(label), nil)
		if err != nil {
			continue
		}
		for _, row := range degRows {
			in.NodeDegrees = append(in.NodeDegrees, asInt(row["degree"]))
		}
	}

	hopRows, err := j.graphStore.Query(ctx, databaseName,
		`MATCH (i:Idea), (m:Manifest) WHERE (i)-[*1..3]-(m)
		 RETURN i.id AS idea, min(length((i)-[*1..3]-(m))) AS hops`, nil)
	if err == nil {
		for _, row := range hopRows {
			in.IdeaToManifestHopCounts = append(in.IdeaToManifestHopCounts, asInt(row["hops"]))
		}
		in.IdeaCountWithManifestTarget = len(hopRows)
	}

	yearRows, err := j.graphStore.Query(ctx, databaseName,
		`MATCH (s:Spatial) WHERE s.year IS NOT NULL RETURN s.year AS year`, nil)
	if err == nil {
		for _, row := range yearRows {
			y := asInt(row["year"])
			in.YearsPresent = append(in.YearsPresent, y)
			if in.YearMin == 0 || y < in.YearMin {
				in.YearMin = y
			}
			if y > in.YearMax {
				in.YearMax = y
			}
		}
	}
	in.SpatialEntityCount = poolCounts[string(model.PoolSpatial)]
	for _, c := range poolCounts {
		in.TotalEntityCount += c
	}

	return in, nil
}

func queryDegrees(label model.PoolLabel) string {
	return "MATCH (n:" + string(label) + ") RETURN size((n)-[]-()) - size((n)-[:HAS_RIGHTS]-()) AS degree"
}

func (j *ScoringJob) gapInventory(ctx context.Context, databaseName string, coverage maturity.CoverageInputs) ([]maturity.Gap, error) {
	var gaps []maturity.Gap
	for i, degree := range coverage.NodeDegrees {
		if gap, ok := maturity.ClassifyDegreeGap(strconv.Itoa(i), degree); ok {
			gaps = append(gaps, gap)
		}
	}

	present := make(map[int]bool, len(coverage.YearsPresent))
	for _, y := range coverage.YearsPresent {
		present[y] = true
	}
	for y := coverage.YearMin; y <= coverage.YearMax && coverage.YearMin != 0; y++ {
		if !present[y] {
			gaps = append(gaps, maturity.ClassifyTemporalGap(y))
		}
	}

	rows, err := j.graphStore.Query(ctx, databaseName,
		`MATCH (r:ProvenanceAndRights) RETURN r.id AS id, r.confidence AS confidence, r.license AS license`, nil)
	if err == nil {
		for _, row := range rows {
			confidence, _ := row["confidence"].(float64)
			license, _ := row["license"].(string)
			ref := "ProvenanceAndRights:" + strconv.Itoa(asInt(row["id"]))
			if gap, ok := maturity.ClassifyRightsGap(ref, confidence, license == string(model.LicenseUnknown)); ok {
				gaps = append(gaps, gap)
			}
		}
	}

	return gaps, nil
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}
