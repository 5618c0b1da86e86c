package store

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// Repository is the concrete relational store backing every pipeline
// component that reads or writes batches, items, rights, lexicon, pool
// entities, relations, and PipelineRun rows (spec.md §6 C1). It satisfies
// pkg/ekn/runner.Store without that package importing this one.
type Repository struct {
	db  *sqlx.DB
	log logr.Logger
}

// New builds a Repository over an already-opened *sqlx.DB (see Open).
func New(db *sqlx.DB, log logr.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// CreateBatch inserts a new batch and returns its assigned id.
func (r *Repository) CreateBatch(ctx context.Context, b *model.IngestBatch) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO ingest_batches (source_descriptor, status, literacy_score)
		 VALUES ($1, $2, $3) RETURNING id`,
		b.SourceDescriptor, b.Status, b.LiteracyScore,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.NewDatabaseError("create batch", err)
	}
	return id, nil
}

// GetBatch loads a batch by id.
func (r *Repository) GetBatch(ctx context.Context, id int64) (*model.IngestBatch, error) {
	var b model.IngestBatch
	err := r.db.GetContext(ctx, &b,
		`SELECT id, source_descriptor, status, literacy_score, created_at, updated_at
		 FROM ingest_batches WHERE id = $1`, id)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get batch", err)
	}
	return &b, nil
}

// UpdateBatchStatus sets a batch's lifecycle status (spec.md §3).
func (r *Repository) UpdateBatchStatus(ctx context.Context, id int64, status model.BatchStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE ingest_batches SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return apperrors.NewDatabaseError("update batch status", err)
	}
	return nil
}

// UpdateBatchLiteracyScore persists the Literacy Scoring stage's result
// (spec.md §4.6).
func (r *Repository) UpdateBatchLiteracyScore(ctx context.Context, id int64, score float64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE ingest_batches SET literacy_score = $1, updated_at = now() WHERE id = $2`, score, id)
	if err != nil {
		return apperrors.NewDatabaseError("update batch literacy score", err)
	}
	return nil
}
