package store

import (
	"context"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// CreateItem inserts a new item, deduplicated on (batch_id, content_hash)
// so re-ingesting the same bytes is a no-op rather than a duplicate row
// (spec.md §4.3 "Intake" idempotency).
func (r *Repository) CreateItem(ctx context.Context, item *model.IngestItem) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO ingest_items (batch_id, content_hash, size, mime_type, content, content_sample)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (batch_id, content_hash) DO UPDATE SET updated_at = now()
		 RETURNING id`,
		item.BatchID, item.ContentHash, item.Size, item.MIMEType, item.Content, item.ContentSample,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.NewDatabaseError("create item", err)
	}
	return id, nil
}

// GetItem loads one item by id.
func (r *Repository) GetItem(ctx context.Context, id int64) (*model.IngestItem, error) {
	var item model.IngestItem
	err := r.db.GetContext(ctx, &item, itemSelectColumns+` WHERE id = $1`, id)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get item", err)
	}
	return &item, nil
}

// ListItemsByBatch returns every item in a batch, used by stage jobs to
// compute their eligible input set via Job.Accepts (spec.md §4.2).
func (r *Repository) ListItemsByBatch(ctx context.Context, batchID int64) ([]*model.IngestItem, error) {
	var items []*model.IngestItem
	err := r.db.SelectContext(ctx, &items, itemSelectColumns+` WHERE batch_id = $1 ORDER BY id`, batchID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list items by batch", err)
	}
	return items, nil
}

const itemSelectColumns = `SELECT id, batch_id, content_hash, size, mime_type, content, content_sample,
	quarantined, rights_id, triage_status, lexicon_status, pool_status, graph_status, embedding_status,
	triage_error, lexicon_error, pool_error, graph_error, embedding_error, created_at, updated_at
	FROM ingest_items`

// StatusMap returns the item's per-stage statuses keyed the way
// Job.Accepts expects ("triage", "lexicon", "pool", "graph", "embedding").
func StatusMap(item *model.IngestItem) map[string]string {
	return map[string]string{
		"triage":    string(item.Triage),
		"lexicon":   string(item.Lexicon),
		"pool":      string(item.Pool),
		"graph":     string(item.Graph),
		"embedding": string(item.Embedding),
	}
}

// UpdateTriage persists the Rights & Provenance stage's per-item outcome
// (spec.md §4.3).
func (r *Repository) UpdateTriage(ctx context.Context, itemID int64, status model.StageStatus, rightsID *int64, quarantined bool, errMsg string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE ingest_items SET triage_status = $1, rights_id = $2, quarantined = $3, triage_error = $4, updated_at = now()
		 WHERE id = $5`, status, rightsID, quarantined, errMsg, itemID)
	if err != nil {
		return apperrors.NewDatabaseError("update item triage status", err)
	}
	return nil
}

// UpdateLexicon persists the Lexicon Bootstrap stage's per-item outcome.
func (r *Repository) UpdateLexicon(ctx context.Context, itemID int64, status model.StageStatus, errMsg string) error {
	return r.updateStageStatus(ctx, itemID, "lexicon_status", "lexicon_error", status, errMsg)
}

// UpdatePool persists the Pool Extraction stage's per-item outcome.
func (r *Repository) UpdatePool(ctx context.Context, itemID int64, status model.StageStatus, errMsg string) error {
	return r.updateStageStatus(ctx, itemID, "pool_status", "pool_error", status, errMsg)
}

// UpdateGraph persists the Graph Assembly stage's per-item outcome.
func (r *Repository) UpdateGraph(ctx context.Context, itemID int64, status model.StageStatus, errMsg string) error {
	return r.updateStageStatus(ctx, itemID, "graph_status", "graph_error", status, errMsg)
}

// UpdateEmbedding persists the Embeddings stage's per-item outcome.
func (r *Repository) UpdateEmbedding(ctx context.Context, itemID int64, status model.StageStatus, errMsg string) error {
	return r.updateStageStatus(ctx, itemID, "embedding_status", "embedding_error", status, errMsg)
}

func (r *Repository) updateStageStatus(ctx context.Context, itemID int64, statusCol, errCol string, status model.StageStatus, errMsg string) error {
	query := `UPDATE ingest_items SET ` + statusCol + ` = $1, ` + errCol + ` = $2, updated_at = now() WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, status, errMsg, itemID)
	if err != nil {
		return apperrors.NewDatabaseError("update item stage status", err)
	}
	return nil
}
