package store_test

import (
	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/model"
)

var _ = Describe("Repository lexicon entries", func() {
	It("creates a canonical term", func() {
		repo, mock, closeFn := newMockRepo()
		defer closeFn()

		mock.ExpectQuery(`INSERT INTO lexicon_entries`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

		id, err := repo.CreateLexiconEntry(ctxBg(), &model.LexiconEntry{
			BatchID:       1,
			CanonicalTerm: "enliterator",
			SurfaceForms:  []string{"enliterator", "EnLiterator"},
			Pool:          string(model.PoolIdea),
			Description:   "the system under ingestion",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(int64(11)))
	})

	It("upserts surface forms into an existing canonical term via ON CONFLICT", func() {
		repo, mock, closeFn := newMockRepo()
		defer closeFn()

		mock.ExpectQuery(`INSERT INTO lexicon_entries`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

		id, err := repo.UpsertLexiconEntry(ctxBg(), &model.LexiconEntry{
			BatchID:       1,
			CanonicalTerm: "enliterator",
			SurfaceForms:  []string{"the enliterator tool"},
			Pool:          string(model.PoolIdea),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(int64(11)))
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("counts lexicon entries for a batch", func() {
		repo, mock, closeFn := newMockRepo()
		defer closeFn()

		mock.ExpectQuery(`SELECT count\(\*\) FROM lexicon_entries WHERE batch_id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

		count, err := repo.CountLexiconEntries(ctxBg(), 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(6))
	})
})
