package graph

import (
	"context"
	"fmt"

	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// systemLabels are graph labels beyond the pool set: Lexicon terms and
// Intent records, plus the rights node label (spec.md §6 "labels = pool
// names + ProvenanceAndRights + Lexicon + Intent").
const (
	labelRights  = "ProvenanceAndRights"
	labelLexicon = "Lexicon"
	labelIntent  = "Intent"
)

func allLabels() []string {
	labels := []string{labelRights, labelLexicon, labelIntent}
	for _, p := range model.RequiredPools {
		labels = append(labels, string(p))
	}
	for _, p := range model.OptionalPools {
		labels = append(labels, string(p))
	}
	return labels
}

// BackfillLexiconDescriptions fills blank canonical_description values
// (spec.md §4.4.3's required-defaults rule) before ProvisionSchema runs,
// since spec.md §4.4.2 forbids running the backfill inside Transaction A
// ("this backfill MUST run in a preceding transaction, not within
// Transaction A").
func BackfillLexiconDescriptions(ctx context.Context, store *Store, databaseName string) error {
	return store.RunTransaction(ctx, databaseName, []Statement{{
		Cypher: `MATCH (l:Lexicon) WHERE l.canonical_description IS NULL OR l.canonical_description = ""
			SET l.canonical_description = coalesce(l.description, "Extracted term")`,
	}})
}

// ProvisionSchema runs every constraint/index statement in a single,
// schema-only transaction (spec.md §4.4.2 Transaction A). Must be called
// after BackfillLexiconDescriptions, never alongside Node/Edge Loading.
func ProvisionSchema(ctx context.Context, store *Store, databaseName string) error {
	var statements []Statement

	for _, label := range allLabels() {
		statements = append(statements, Statement{
			Cypher: fmt.Sprintf(
				"CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE", label),
		})
	}

	for _, label := range model.ContentPools {
		statements = append(statements,
			Statement{Cypher: fmt.Sprintf(
				"CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.rights_id IS NOT NULL", label)},
			Statement{Cypher: fmt.Sprintf(
				"CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.repr_text IS NOT NULL", label)},
		)
	}

	statements = append(statements,
		Statement{Cypher: fmt.Sprintf(
			"CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.publishability IS NOT NULL", labelRights)},
		Statement{Cypher: fmt.Sprintf(
			"CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.training_eligibility IS NOT NULL", labelRights)},
		Statement{Cypher: fmt.Sprintf(
			"CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.canonical_description IS NOT NULL", labelLexicon)},
	)

	for _, label := range allLabels() {
		statements = append(statements,
			Statement{Cypher: fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS FOR (n:%s) ON (n.batch_id)", label)},
			Statement{Cypher: fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS FOR (n:%s) ON (n.valid_time_start, n.valid_time_end)", label)},
		)
	}
	statements = append(statements,
		Statement{Cypher: fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS FOR (n:%s) ON (n.publishability)", labelRights)},
		Statement{Cypher: fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS FOR (n:%s) ON (n.training_eligibility)", labelRights)},
	)

	return store.RunTransaction(ctx, databaseName, statements)
}
