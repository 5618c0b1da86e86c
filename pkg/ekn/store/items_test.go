package store_test

import (
	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/store"
)

var _ = Describe("Repository items", func() {
	It("upserts an item on (batch_id, content_hash) conflict", func() {
		repo, mock, closeFn := newMockRepo()
		defer closeFn()

		hash := "abc123"
		mock.ExpectQuery(`INSERT INTO ingest_items`).
			WithArgs(int64(1), hash, int64(10), "text/markdown", "hello", "hello").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

		id, err := repo.CreateItem(ctxBg(), &model.IngestItem{
			BatchID: 1, ContentHash: hash, Size: 10, MIMEType: "text/markdown",
			Content: "hello", ContentSample: "hello",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(int64(9)))
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("lists items by batch", func() {
		repo, mock, closeFn := newMockRepo()
		defer closeFn()

		rows := sqlmock.NewRows([]string{
			"id", "batch_id", "content_hash", "size", "mime_type", "content", "content_sample",
			"quarantined", "rights_id", "triage_status", "lexicon_status", "pool_status", "graph_status",
			"embedding_status", "triage_error", "lexicon_error", "pool_error", "graph_error",
			"embedding_error", "created_at", "updated_at",
		}).AddRow(
			int64(1), int64(1), "h1", int64(5), "text/plain", []byte("x"), []byte("x"),
			false, nil, string(model.StatusCompleted), string(model.StatusPending), string(model.StatusPending),
			string(model.StatusPending), string(model.StatusPending), "", "", "", "", "", nil, nil,
		)
		mock.ExpectQuery(`SELECT id, batch_id, content_hash, size, mime_type, content, content_sample`).
			WithArgs(int64(1)).
			WillReturnRows(rows)

		items, err := repo.ListItemsByBatch(ctxBg(), 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(1))
		Expect(items[0].Triage).To(Equal(model.StatusCompleted))
	})

	It("builds the Job.Accepts status map from an item", func() {
		item := &model.IngestItem{
			ItemStageStatuses: model.ItemStageStatuses{
				Triage: model.StatusCompleted,
				Pool:   model.StatusQuarantined,
			},
		}
		m := store.StatusMap(item)
		Expect(m["triage"]).To(Equal("completed"))
		Expect(m["pool"]).To(Equal("quarantined"))
	})
})
