package migrations

import (
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"

	apperrors "github.com/enliterator/enliterator/internal/errors"
)

//go:embed *.sql
var fs embed.FS

// Up applies every pending migration to db using pressly/goose/v3 (spec.md
// §4 DOMAIN STACK: "Versioned schema migrations for the relational
// store").
func Up(db *sql.DB) error {
	goose.SetBaseFS(fs)
	if err := goose.SetDialect("postgres"); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeInternal, "setting migration dialect")
	}
	if err := goose.Up(db, "."); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "applying relational store migrations")
	}
	return nil
}
