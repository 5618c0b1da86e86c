package store

import (
	"context"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// CreatePoolEntity inserts one pool-typed record (spec.md §3: the common
// PoolEntity shape shared by all ten pools), storing caller-supplied
// type-specific fields as JSONB.
func (r *Repository) CreatePoolEntity(ctx context.Context, e *model.PoolEntity) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO pool_entities (batch_id, pool, repr_text, rights_id, valid_time_start, valid_time_end, observed_at, fields)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		e.BatchID, e.Pool, e.ReprText, e.RightsID, e.ValidTimeStart, e.ValidTimeEnd, e.ObservedAt, jsonColumn{&e.Fields},
	).Scan(&id)
	if err != nil {
		return 0, apperrors.NewDatabaseError("create pool entity", err)
	}
	return id, nil
}

// ListPoolEntities returns every entity of one pool within a batch.
func (r *Repository) ListPoolEntities(ctx context.Context, batchID int64, pool model.PoolLabel) ([]*model.PoolEntity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, batch_id, pool, repr_text, rights_id, valid_time_start, valid_time_end, observed_at, fields
		 FROM pool_entities WHERE batch_id = $1 AND pool = $2 ORDER BY id`, batchID, pool)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list pool entities", err)
	}
	defer rows.Close()

	var entities []*model.PoolEntity
	for rows.Next() {
		var e model.PoolEntity
		e.Fields = map[string]interface{}{}
		if err := rows.Scan(&e.ID, &e.BatchID, &e.Pool, &e.ReprText, &e.RightsID,
			&e.ValidTimeStart, &e.ValidTimeEnd, &e.ObservedAt, jsonColumn{&e.Fields}); err != nil {
			return nil, apperrors.NewDatabaseError("scan pool entity", err)
		}
		entities = append(entities, &e)
	}
	return entities, rows.Err()
}

// CountPoolEntitiesByLabel supports coverage.CoverageInputs.PoolCounts and
// maturity.Snapshot.PoolEntityCount (spec.md §4.6).
func (r *Repository) CountPoolEntitiesByLabel(ctx context.Context, batchID int64) (map[model.PoolLabel]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT pool, count(*) FROM pool_entities WHERE batch_id = $1 GROUP BY pool`, batchID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("count pool entities by label", err)
	}
	defer rows.Close()

	counts := map[model.PoolLabel]int{}
	for rows.Next() {
		var label model.PoolLabel
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, apperrors.NewDatabaseError("scan pool entity count", err)
		}
		counts[label] = count
	}
	return counts, rows.Err()
}

// CreateRelation inserts a typed edge awaiting graph load (spec.md
// §4.4.4). Source/Target Refs are split into primitive label/id columns,
// mirroring the graph loader's own polymorphic-reference treatment.
func (r *Repository) CreateRelation(ctx context.Context, rel *model.Relation) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO relations (batch_id, source_label, source_id, target_label, target_id, verb, strength,
			valid_time_start, valid_time_end, rights_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		rel.BatchID, rel.Source.Label, rel.Source.ID, rel.Target.Label, rel.Target.ID, rel.Verb,
		rel.Strength, rel.ValidTimeStart, rel.ValidTimeEnd, rel.RightsID,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.NewDatabaseError("create relation", err)
	}
	return id, nil
}

// ListRelations returns every relation awaiting graph load for a batch.
func (r *Repository) ListRelations(ctx context.Context, batchID int64) ([]*model.Relation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, batch_id, source_label, source_id, target_label, target_id, verb, strength,
			valid_time_start, valid_time_end, rights_id
		 FROM relations WHERE batch_id = $1 ORDER BY id`, batchID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list relations", err)
	}
	defer rows.Close()

	var relations []*model.Relation
	for rows.Next() {
		var rel model.Relation
		if err := rows.Scan(&rel.ID, &rel.BatchID, &rel.Source.Label, &rel.Source.ID,
			&rel.Target.Label, &rel.Target.ID, &rel.Verb, &rel.Strength,
			&rel.ValidTimeStart, &rel.ValidTimeEnd, &rel.RightsID); err != nil {
			return nil, apperrors.NewDatabaseError("scan relation", err)
		}
		relations = append(relations, &rel)
	}
	return relations, rows.Err()
}
