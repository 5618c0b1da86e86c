package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// OrphanBatchSize bounds how many orphan candidates are removed per
// iteration (spec.md §4.4.6 "Run iteratively in batches of 100").
const OrphanBatchSize = 100

// connectivityRequiredLabels are the labels Orphan Removal actually prunes;
// ProvenanceAndRights, Lexicon, Intent, and the five optional pools may be
// isolated (spec.md §4.4.6).
var connectivityRequiredLabels = []model.PoolLabel{
	model.PoolIdea, model.PoolManifest, model.PoolExperience, model.PoolRelational,
	model.PoolEvolutionary, model.PoolPractical, model.PoolEmanation,
}

// RemoveOrphansResult reports how many nodes were removed per label across
// all iterations.
type RemoveOrphansResult struct {
	RemovedByLabel map[model.PoolLabel]int
	Iterations     int
}

// RemoveOrphans deletes nodes with zero edges other than HAS_RIGHTS from
// the connectivity-required labels, preserving any node younger than
// preserveWindow (spec.md §4.4.6: "preserve any orphan node younger than
// one hour ... to avoid racing in-flight writes"). Runs in batches of
// OrphanBatchSize until a pass finds nothing left to remove.
func RemoveOrphans(ctx context.Context, store *Store, databaseName string, preserveWindow time.Duration, now time.Time) (RemoveOrphansResult, error) {
	result := RemoveOrphansResult{RemovedByLabel: map[model.PoolLabel]int{}}
	cutoff := now.Add(-preserveWindow)

	for {
		removedThisPass := 0
		for _, label := range connectivityRequiredLabels {
			removed, err := removeOrphanBatch(ctx, store, databaseName, label, cutoff)
			if err != nil {
				return result, err
			}
			if removed > 0 {
				result.RemovedByLabel[label] += removed
				removedThisPass += removed
			}
		}
		result.Iterations++
		if removedThisPass == 0 {
			return result, nil
		}
	}
}

func removeOrphanBatch(ctx context.Context, store *Store, databaseName string, label model.PoolLabel, cutoff time.Time) (int, error) {
	rows, err := store.Query(ctx, databaseName, fmt.Sprintf(
		`MATCH (n:%s) WHERE n.created_at < $cutoff
		 AND size([(n)-[r]-() WHERE type(r) <> $hasRights | r]) = 0
		 RETURN n.id AS id LIMIT $limit`, label),
		map[string]any{"cutoff": cutoff.UnixMilli(), "hasRights": verbLabel(HasRights), "limit": OrphanBatchSize})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		if id, ok := row["id"].(int64); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	err = store.RunTransaction(ctx, databaseName, []Statement{{
		Cypher: fmt.Sprintf("MATCH (n:%s) WHERE n.id IN $ids DETACH DELETE n", label),
		Params: map[string]any{"ids": ids},
	}})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
