package graph

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/go-logr/logr"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperrors "github.com/enliterator/enliterator/internal/errors"
)

// dbNamePattern enforces spec.md §4.4.1's `^ekn-[0-9]+$` constraint on a
// per-batch graph database name.
var dbNamePattern = regexp.MustCompile(`^ekn-[0-9]+$`)

// ValidateDatabaseName reports whether name matches the required pattern.
func ValidateDatabaseName(name string) error {
	if !dbNamePattern.MatchString(name) {
		return apperrors.Newf(apperrors.ErrorTypeValidation, "invalid graph database name %q", name)
	}
	return nil
}

// Store wraps a neo4j.DriverWithContext and implements the operation set
// spec.md §6 requires of a graph store interface: create/drop database,
// open a session bound to a named database, run a sequence of statements
// in one transaction, and probe for optional capabilities. The loader
// packages (schema.go, nodes.go, edges.go, dedup.go, orphans.go,
// integrity.go) depend only on this narrow surface, never on the driver
// directly, so a future non-Neo4j backend only has to satisfy this
// interface.
type Store struct {
	driver                 neo4j.DriverWithContext
	log                    logr.Logger
	multiDatabaseSupported bool
	defaultDatabase        string
}

// NewStore builds a Store. multiDatabaseSupported mirrors
// config.GraphConfig.MultiDatabaseSupported (spec.md §4.4.1 "If the
// underlying store does not support multi-database, fall back to a
// single default database").
func NewStore(uri, username, password string, multiDatabaseSupported bool, log logr.Logger) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "constructing graph driver")
	}
	return &Store{
		driver:                 driver,
		log:                    log,
		multiDatabaseSupported: multiDatabaseSupported,
		defaultDatabase:        "neo4j",
	}, nil
}

// Close releases the underlying driver's connection pool.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// DatabaseFor resolves the logical per-batch database name to the name
// actually used, falling back to the single default database and
// recording the degradation (spec.md §4.4.1).
func (s *Store) DatabaseFor(logicalName string) (name string, degraded bool) {
	if s.multiDatabaseSupported {
		return logicalName, false
	}
	return s.defaultDatabase, true
}

// EnsureDatabase creates databaseName if it does not already exist and
// polls until it reports online, honoring pollTimeout (spec.md §4.4.1:
// "poll with timeout >= 30s"). A no-op when multi-database is unsupported
// (the default database always exists).
func (s *Store) EnsureDatabase(ctx context.Context, databaseName string, pollTimeout time.Duration) error {
	if !s.multiDatabaseSupported {
		return nil
	}
	if err := ValidateDatabaseName(databaseName); err != nil {
		return err
	}
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: "system"})
	defer session.Close(ctx)

	_, err := session.Run(ctx, fmt.Sprintf("CREATE DATABASE `%s` IF NOT EXISTS", databaseName), nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "creating graph database").
			WithDetailsf("database=%s", databaseName)
	}

	deadline := time.Now().Add(pollTimeout)
	for {
		result, err := session.Run(ctx, "SHOW DATABASE $name YIELD currentStatus", map[string]any{"name": databaseName})
		if err == nil && result.Next(ctx) {
			status, _ := result.Record().Get("currentStatus")
			if status == "online" {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return apperrors.Newf(apperrors.ErrorTypeTimeout, "graph database %s did not come online within %s", databaseName, pollTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// DropDatabase removes databaseName, used by test teardown and batch
// deletion. A no-op when multi-database is unsupported.
func (s *Store) DropDatabase(ctx context.Context, databaseName string) error {
	if !s.multiDatabaseSupported {
		return nil
	}
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: "system"})
	defer session.Close(ctx)
	_, err := session.Run(ctx, fmt.Sprintf("DROP DATABASE `%s` IF EXISTS", databaseName), nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "dropping graph database")
	}
	return nil
}

// Statement is one Cypher statement plus its parameters, executed as part
// of a sequence within a single transaction.
type Statement struct {
	Cypher string
	Params map[string]any
}

// RunTransaction executes statements in order within a single write
// transaction against databaseName, satisfying spec.md §4.4's requirement
// that schema and data operations never share a transaction — callers
// choose the statement set per phase, never mixing schema-only and
// data-only statements in one call.
func (s *Store) RunTransaction(ctx context.Context, databaseName string, statements []Statement) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: databaseName})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, stmt := range statements {
			if _, err := tx.Run(ctx, stmt.Cypher, stmt.Params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "executing graph transaction")
	}
	return nil
}

// Query runs a single read statement and returns every record's values
// keyed by field name.
func (s *Store) Query(ctx context.Context, databaseName, cypher string, params map[string]any) ([]map[string]any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: databaseName})
	defer session.Close(ctx)

	rows, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		var out []map[string]any
		for result.Next(ctx) {
			rec := result.Record()
			row := make(map[string]any, len(rec.Keys))
			for _, k := range rec.Keys {
				v, _ := rec.Get(k)
				row[k] = v
			}
			out = append(out, row)
		}
		return out, result.Err()
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeDatabase, "executing graph query")
	}
	return rows.([]map[string]any), nil
}

// SupportsDynamicVerbMerge probes whether the store exposes a procedure to
// merge relationships with a dynamic type (spec.md §4.4.5 "If the graph
// engine supports a procedure to merge relationships with dynamic types,
// prefer it"). Neo4j community edition does not ship one by default, so
// Dedup always uses the enumerated per-verb loop. Nothing in this module
// calls this probe; Deduplication does not switch on its result.
func (s *Store) SupportsDynamicVerbMerge(ctx context.Context, databaseName string) bool {
	rows, err := s.Query(ctx, databaseName, "SHOW PROCEDURES YIELD name WHERE name = 'apoc.merge.relationship' RETURN name", nil)
	if err != nil {
		return false
	}
	return len(rows) > 0
}
