package store

import (
	"context"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// CreateLexiconEntry inserts a canonical term. Batch-scoped uniqueness on
// canonical_term (spec.md §3: "unique per batch by canonical term") makes a
// second insert of the same term in a batch fail with a database error;
// UpsertLexiconEntry is the variant that merges surface forms instead.
func (r *Repository) CreateLexiconEntry(ctx context.Context, e *model.LexiconEntry) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO lexicon_entries
			(batch_id, canonical_term, surface_forms, negative_surface_forms, pool, description,
			 canonical_description, source_item_id, valid_time_start, valid_time_end)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		e.BatchID, e.CanonicalTerm, jsonColumn{&e.SurfaceForms}, jsonColumn{&e.NegativeSurfaceForms},
		e.Pool, e.Description, e.ResolveCanonicalDescription(), e.SourceItemID, e.ValidTimeStart, e.ValidTimeEnd,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.NewDatabaseError("create lexicon entry", err)
	}
	return id, nil
}

// UpsertLexiconEntry merges surface forms into an existing canonical term
// within the batch, or inserts a new entry if none exists yet — the
// relational-side counterpart to the graph's Lexicon dedup merge rule
// (pkg/ekn/graph/dedup.go MergeLexiconSurfaceForms).
func (r *Repository) UpsertLexiconEntry(ctx context.Context, e *model.LexiconEntry) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO lexicon_entries
			(batch_id, canonical_term, surface_forms, negative_surface_forms, pool, description,
			 canonical_description, source_item_id, valid_time_start, valid_time_end)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (batch_id, canonical_term) DO UPDATE SET
			surface_forms = (
				SELECT jsonb_agg(DISTINCT value) FROM jsonb_array_elements(
					lexicon_entries.surface_forms || EXCLUDED.surface_forms))
		 RETURNING id`,
		e.BatchID, e.CanonicalTerm, jsonColumn{&e.SurfaceForms}, jsonColumn{&e.NegativeSurfaceForms},
		e.Pool, e.Description, e.ResolveCanonicalDescription(), e.SourceItemID, e.ValidTimeStart, e.ValidTimeEnd,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.NewDatabaseError("upsert lexicon entry", err)
	}
	return id, nil
}

// ListLexiconEntries returns every canonical term recorded for a batch.
func (r *Repository) ListLexiconEntries(ctx context.Context, batchID int64) ([]*model.LexiconEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, batch_id, canonical_term, surface_forms, negative_surface_forms, pool, description,
			canonical_description, source_item_id, valid_time_start, valid_time_end
		 FROM lexicon_entries WHERE batch_id = $1 ORDER BY id`, batchID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list lexicon entries", err)
	}
	defer rows.Close()

	var entries []*model.LexiconEntry
	for rows.Next() {
		var e model.LexiconEntry
		if err := rows.Scan(&e.ID, &e.BatchID, &e.CanonicalTerm, jsonColumn{&e.SurfaceForms},
			jsonColumn{&e.NegativeSurfaceForms}, &e.Pool, &e.Description, &e.CanonicalDescription,
			&e.SourceItemID, &e.ValidTimeStart, &e.ValidTimeEnd); err != nil {
			return nil, apperrors.NewDatabaseError("scan lexicon entry", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// CountLexiconEntries supports Maturity's Snapshot.CanonicalTermCount.
func (r *Repository) CountLexiconEntries(ctx context.Context, batchID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM lexicon_entries WHERE batch_id = $1`, batchID)
	if err != nil {
		return 0, apperrors.NewDatabaseError("count lexicon entries", err)
	}
	return count, nil
}
