package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// EdgeWarning records a relation whose verb the glossary does not
// recognize (spec.md §4.4.4 step 1: "if unknown, record a warning and
// skip" — never a fatal error).
type EdgeWarning struct {
	RelationID int64
	Verb       model.Verb
	Reason     string
}

// LoadEdgesResult reports how many edges were written and any relations
// skipped for an unrecognized verb.
type LoadEdgesResult struct {
	EdgesCreated int
	Warnings     []EdgeWarning
}

// verbLabel uppercases a verb name for use as a Cypher relationship type,
// matching spec.md §6 ("edge types = verbs of the glossary (uppercased)").
func verbLabel(v model.Verb) string {
	return strings.ToUpper(string(v))
}

// LoadEdges writes every relation's forward edge, its declared reverse (or
// symmetric mirror), and ensures a HAS_RIGHTS edge for rights-bearing
// content entities, all within one transaction (spec.md §4.4.4). rights
// pairs rights-bearing nodes (label, id) with their rights node id,
// separate from relations since HAS_RIGHTS is not itself a Relation row.
func LoadEdges(ctx context.Context, store *Store, databaseName string, relations []model.Relation, rights []RightsEdge) (LoadEdgesResult, error) {
	var statements []Statement
	var warnings []EdgeWarning

	for _, rel := range relations {
		entry, ok := Lookup(rel.Verb)
		if !ok {
			warnings = append(warnings, EdgeWarning{
				RelationID: rel.ID, Verb: rel.Verb, Reason: "verb not in glossary",
			})
			continue
		}

		label := verbLabel(rel.Verb)
		statements = append(statements, Statement{
			Cypher: fmt.Sprintf(
				"MATCH (s:%s {id: $src_id}), (t:%s {id: $tgt_id}) MERGE (s)-[r:%s]->(t) "+
					"SET r.strength = $strength, r.valid_time_start = $vts, r.valid_time_end = $vte",
				sourceLabelFor(entry, rel), targetLabelFor(entry, rel), label),
			Params: map[string]any{
				"src_id": rel.Source.ID, "tgt_id": rel.Target.ID,
				"strength": rel.Strength, "vts": rel.ValidTimeStart, "vte": rel.ValidTimeEnd,
			},
		})

		switch {
		case entry.Symmetric:
			statements = append(statements, Statement{
				Cypher: fmt.Sprintf(
					"MATCH (s:%s {id: $tgt_id}), (t:%s {id: $src_id}) MERGE (s)-[r:%s]->(t) "+
						"SET r.strength = $strength, r.valid_time_start = $vts, r.valid_time_end = $vte",
					targetLabelFor(entry, rel), sourceLabelFor(entry, rel), label),
				Params: map[string]any{
					"src_id": rel.Source.ID, "tgt_id": rel.Target.ID,
					"strength": rel.Strength, "vts": rel.ValidTimeStart, "vte": rel.ValidTimeEnd,
				},
			})
		case entry.Reverse != "":
			reverseLabel := verbLabel(entry.Reverse)
			statements = append(statements, Statement{
				Cypher: fmt.Sprintf(
					"MATCH (t:%s {id: $tgt_id}), (s:%s {id: $src_id}) MERGE (t)-[r:%s]->(s) "+
						"SET r.strength = $strength, r.valid_time_start = $vts, r.valid_time_end = $vte",
					targetLabelFor(entry, rel), sourceLabelFor(entry, rel), reverseLabel),
				Params: map[string]any{
					"src_id": rel.Source.ID, "tgt_id": rel.Target.ID,
					"strength": rel.Strength, "vts": rel.ValidTimeStart, "vte": rel.ValidTimeEnd,
				},
			})
		}
	}

	for _, re := range rights {
		statements = append(statements, Statement{
			Cypher: fmt.Sprintf(
				"MATCH (n:%s {id: $entity_id}), (r:%s {id: $rights_id}) MERGE (n)-[:%s]->(r)",
				re.EntityLabel, labelRights, verbLabel(HasRights)),
			Params: map[string]any{"entity_id": re.EntityID, "rights_id": re.RightsID},
		})
	}

	if len(statements) == 0 {
		return LoadEdgesResult{Warnings: warnings}, nil
	}
	if err := store.RunTransaction(ctx, databaseName, statements); err != nil {
		return LoadEdgesResult{}, err
	}
	return LoadEdgesResult{EdgesCreated: len(statements), Warnings: warnings}, nil
}

// RightsEdge pairs a content-bearing entity with its rights node, the
// source of every HAS_RIGHTS edge (spec.md §4.4.4 step 5).
type RightsEdge struct {
	EntityLabel model.PoolLabel
	EntityID    int64
	RightsID    int64
}

// sourceLabelFor resolves a "*" wildcard source to the relation's own
// Source.Label, since the glossary only constrains concrete edges by
// declared label when it is not wildcarded.
func sourceLabelFor(entry VerbEntry, rel model.Relation) model.PoolLabel {
	if entry.SourceAny {
		return model.PoolLabel(rel.Source.Label)
	}
	return entry.SourceLabel
}

func targetLabelFor(entry VerbEntry, rel model.Relation) model.PoolLabel {
	if entry.TargetAny {
		return model.PoolLabel(rel.Target.Label)
	}
	return entry.TargetLabel
}
