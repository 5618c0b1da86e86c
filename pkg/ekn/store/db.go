// Package store is the relational persistence layer (C1): batches, items,
// rights records, lexicon entries, pool entities, relations, and
// PipelineRun rows. It is the concrete backend behind
// pkg/ekn/runner.Store, kept as a separate package so the runner's state
// machine never depends on a SQL driver directly (spec.md §6).
package store

import (
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/enliterator/enliterator/internal/config"
	apperrors "github.com/enliterator/enliterator/internal/errors"
)

// Open establishes a pooled connection to the Postgres relational store
// using the stdlib pgx driver (spec.md §4 DOMAIN STACK: "jackc/pgx/v5
// (stdlib driver) + jmoiron/sqlx"), configured per cfg (C1).
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", cfg.DSN)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "opening relational store connection")
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// nowFunc is overridable in tests; production code always uses time.Now.
var nowFunc = time.Now
