package store_test

import (
	"github.com/DATA-DOG/go-sqlmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/model"
)

var _ = Describe("Repository pool entities and relations", func() {
	It("creates a pool entity", func() {
		repo, mock, closeFn := newMockRepo()
		defer closeFn()

		mock.ExpectQuery(`INSERT INTO pool_entities`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))

		id, err := repo.CreatePoolEntity(ctxBg(), &model.PoolEntity{
			BatchID:  1,
			Pool:     model.PoolIdea,
			ReprText: "a design concept",
			Fields:   map[string]interface{}{"note": "x"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(int64(21)))
	})

	It("lists pool entities for a batch and pool", func() {
		repo, mock, closeFn := newMockRepo()
		defer closeFn()

		rows := sqlmock.NewRows([]string{
			"id", "batch_id", "pool", "repr_text", "rights_id", "valid_time_start",
			"valid_time_end", "observed_at", "fields",
		}).AddRow(int64(21), int64(1), string(model.PoolIdea), "a design concept", int64(0), nil, nil, nil, []byte(`{}`))
		mock.ExpectQuery(`SELECT id, batch_id, pool, repr_text, rights_id, valid_time_start`).
			WithArgs(int64(1), model.PoolIdea).
			WillReturnRows(rows)

		entities, err := repo.ListPoolEntities(ctxBg(), 1, model.PoolIdea)
		Expect(err).NotTo(HaveOccurred())
		Expect(entities).To(HaveLen(1))
		Expect(entities[0].ReprText).To(Equal("a design concept"))
	})

	It("counts pool entities grouped by label", func() {
		repo, mock, closeFn := newMockRepo()
		defer closeFn()

		rows := sqlmock.NewRows([]string{"pool", "count"}).
			AddRow(string(model.PoolIdea), 3).
			AddRow(string(model.PoolManifest), 2)
		mock.ExpectQuery(`SELECT pool, count\(\*\) FROM pool_entities WHERE batch_id = \$1 GROUP BY pool`).
			WithArgs(int64(1)).
			WillReturnRows(rows)

		counts, err := repo.CountPoolEntitiesByLabel(ctxBg(), 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(counts[model.PoolIdea]).To(Equal(3))
		Expect(counts[model.PoolManifest]).To(Equal(2))
	})

	It("creates a relation with split source/target ref columns", func() {
		repo, mock, closeFn := newMockRepo()
		defer closeFn()

		mock.ExpectQuery(`INSERT INTO relations`).
			WithArgs(int64(1), string(model.PoolIdea), int64(21), string(model.PoolManifest), int64(22),
				model.Verb("embodies"), 1.0, nil, nil, int64(0)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(30)))

		id, err := repo.CreateRelation(ctxBg(), &model.Relation{
			BatchID:  1,
			Source:   model.Ref{Label: string(model.PoolIdea), ID: 21},
			Target:   model.Ref{Label: string(model.PoolManifest), ID: 22},
			Verb:     "embodies",
			Strength: 1.0,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(int64(30)))
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("lists relations for a batch", func() {
		repo, mock, closeFn := newMockRepo()
		defer closeFn()

		rows := sqlmock.NewRows([]string{
			"id", "batch_id", "source_label", "source_id", "target_label", "target_id",
			"verb", "strength", "valid_time_start", "valid_time_end", "rights_id",
		}).AddRow(int64(30), int64(1), string(model.PoolIdea), int64(21), string(model.PoolManifest), int64(22),
			"embodies", 1.0, nil, nil, int64(0))
		mock.ExpectQuery(`SELECT id, batch_id, source_label, source_id, target_label, target_id`).
			WithArgs(int64(1)).
			WillReturnRows(rows)

		relations, err := repo.ListRelations(ctxBg(), 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(relations).To(HaveLen(1))
		Expect(relations[0].Source.ID).To(Equal(int64(21)))
	})
})
