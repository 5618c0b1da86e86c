package store

import (
	"context"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// CreateRightsRecord inserts a ProvenanceAndRights row (spec.md §4.3
// Rights & Provenance: "even a quarantined item gets a rights record").
func (r *Repository) CreateRightsRecord(ctx context.Context, rec *model.ProvenanceAndRights) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO provenance_and_rights
			(license, consent, publishable, training_eligible, valid_time_start, valid_time_end, confidence, source_identifiers)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		rec.License, rec.Consent, rec.Publishable, rec.TrainingEligible,
		rec.ValidTimeStart, rec.ValidTimeEnd, rec.Confidence, jsonColumn{&rec.SourceIdentifiers},
	).Scan(&id)
	if err != nil {
		return 0, apperrors.NewDatabaseError("create rights record", err)
	}
	return id, nil
}

// GetRightsRecord loads a rights record by id.
func (r *Repository) GetRightsRecord(ctx context.Context, id int64) (*model.ProvenanceAndRights, error) {
	var rec model.ProvenanceAndRights
	var sourceIDs []string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, license, consent, publishable, training_eligible, valid_time_start, valid_time_end,
			confidence, source_identifiers, created_at
		 FROM provenance_and_rights WHERE id = $1`, id).
		Scan(&rec.ID, &rec.License, &rec.Consent, &rec.Publishable, &rec.TrainingEligible,
			&rec.ValidTimeStart, &rec.ValidTimeEnd, &rec.Confidence, jsonColumn{&sourceIDs}, &rec.CreatedAt)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get rights record", err)
	}
	rec.SourceIdentifiers = sourceIDs
	return &rec, nil
}

// CountRightsRecordsForBatch supports Maturity's Snapshot.RightsRecordCount
// (spec.md §4.6): counts items in the batch that already carry a rights
// reference.
func (r *Repository) CountRightsRecordsForBatch(ctx context.Context, batchID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT count(*) FROM ingest_items WHERE batch_id = $1 AND rights_id IS NOT NULL`, batchID)
	if err != nil {
		return 0, apperrors.NewDatabaseError("count rights records", err)
	}
	return count, nil
}
