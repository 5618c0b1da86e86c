package graph

import (
	"context"
	"fmt"

	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// dedupKeyLabels are the five pool/record labels spec.md §4.4.5 declares a
// deterministic merge rule for; every other label is left untouched by
// Deduplication.
var dedupKeyLabels = []model.PoolLabel{
	model.PoolIdea, model.PoolManifest, model.PoolExperience, model.PoolSpatial,
	model.PoolLabel(labelLexicon),
}

// DuplicatePair is one candidate merge: winner keeps its id, loser is
// detached and deleted after its edges are copied onto the winner
// (spec.md §4.4.5 algorithm, "keep smaller id ... tie-break: keep earlier
// created_at").
type DuplicatePair struct {
	Label      model.PoolLabel
	WinnerID   int64
	LoserID    int64
}

// FindDuplicateIdeas returns id pairs of Idea nodes sharing the same
// label, winner first (spec.md: "Two Idea nodes merge if same label").
func FindDuplicateIdeas(ctx context.Context, store *Store, databaseName string) ([]DuplicatePair, error) {
	return findDuplicates(ctx, store, databaseName, model.PoolIdea,
		"MATCH (a:Idea), (b:Idea) WHERE a.label = b.label AND a.id <> b.id "+
			"RETURN a.id AS a_id, a.created_at AS a_created, b.id AS b_id, b.created_at AS b_created")
}

// FindDuplicateManifests returns id pairs of Manifest nodes sharing the
// same label and type.
func FindDuplicateManifests(ctx context.Context, store *Store, databaseName string) ([]DuplicatePair, error) {
	return findDuplicates(ctx, store, databaseName, model.PoolManifest,
		"MATCH (a:Manifest), (b:Manifest) WHERE a.label = b.label AND a.type = b.type AND a.id <> b.id "+
			"RETURN a.id AS a_id, a.created_at AS a_created, b.id AS b_id, b.created_at AS b_created")
}

// FindDuplicateExperiences returns id pairs of Experience nodes sharing
// agent_label, observed_at, and the first 100 characters of narrative_text
// (stored as first_100 when Graph Assembly collects nodes for loading, see
// pkg/ekn/model.Experience.First100).
func FindDuplicateExperiences(ctx context.Context, store *Store, databaseName string) ([]DuplicatePair, error) {
	return findDuplicates(ctx, store, databaseName, model.PoolExperience,
		"MATCH (a:Experience), (b:Experience) WHERE a.agent_label = b.agent_label "+
			"AND a.observed_at = b.observed_at AND a.first_100 = b.first_100 AND a.id <> b.id "+
			"RETURN a.id AS a_id, a.created_at AS a_created, b.id AS b_id, b.created_at AS b_created")
}

// FindDuplicateSpatials returns id pairs of Spatial nodes sharing name and
// year.
func FindDuplicateSpatials(ctx context.Context, store *Store, databaseName string) ([]DuplicatePair, error) {
	return findDuplicates(ctx, store, databaseName, model.PoolSpatial,
		"MATCH (a:Spatial), (b:Spatial) WHERE a.name = b.name AND a.year = b.year AND a.id <> b.id "+
			"RETURN a.id AS a_id, a.created_at AS a_created, b.id AS b_id, b.created_at AS b_created")
}

func findDuplicates(ctx context.Context, store *Store, databaseName string, label model.PoolLabel, cypher string) ([]DuplicatePair, error) {
	rows, err := store.Query(ctx, databaseName, cypher, nil)
	if err != nil {
		return nil, err
	}
	seen := map[[2]int64]bool{}
	var pairs []DuplicatePair
	for _, row := range rows {
		aID, _ := row["a_id"].(int64)
		bID, _ := row["b_id"].(int64)
		if aID == bID {
			continue
		}
		winner, loser := pickWinner(aID, row["a_created"], bID, row["b_created"])
		key := [2]int64{winner, loser}
		if seen[key] {
			continue
		}
		seen[key] = true
		pairs = append(pairs, DuplicatePair{Label: label, WinnerID: winner, LoserID: loser})
	}
	return pairs, nil
}

// pickWinner applies spec.md §4.4.5's tie-break: smaller id wins; if ids
// somehow tie (should not happen given unique ids), earlier created_at
// wins.
func pickWinner(aID int64, aCreated any, bID int64, bCreated any) (winner, loser int64) {
	if aID < bID {
		return aID, bID
	}
	if bID < aID {
		return bID, aID
	}
	if fmt.Sprint(aCreated) <= fmt.Sprint(bCreated) {
		return aID, bID
	}
	return bID, aID
}

// MergeLexiconSurfaceForms merges two Lexicon nodes sharing the same term:
// surface_forms and negative_surface_forms are concatenated with set
// semantics, then the loser is removed. Handled separately from
// MergeDuplicate because Lexicon's merge mutates the winner's properties
// (normally forbidden by spec.md §4.4.5 rule 4) as an explicit exception
// for these two whitelisted array fields.
func MergeLexiconSurfaceForms(ctx context.Context, store *Store, databaseName string, pair DuplicatePair) error {
	stmts := []Statement{{
		Cypher: `MATCH (w:Lexicon {id: $winner}), (l:Lexicon {id: $loser})
			SET w.surface_forms = apoc.coll.toSet(coalesce(w.surface_forms, []) + coalesce(l.surface_forms, [])),
			    w.negative_surface_forms = apoc.coll.toSet(coalesce(w.negative_surface_forms, []) + coalesce(l.negative_surface_forms, []))`,
		Params: map[string]any{"winner": pair.WinnerID, "loser": pair.LoserID},
	}}
	if err := store.RunTransaction(ctx, databaseName, stmts); err != nil {
		return err
	}
	return MergeDuplicate(ctx, store, databaseName, "Lexicon", pair)
}

// MergeDuplicate executes the full per-pair algorithm (spec.md §4.4.5):
// copy the loser's outgoing and incoming edges onto the winner for every
// glossary verb (including HAS_RIGHTS), then DETACH DELETE the loser. No
// bulk property overwrite on the winner — identity and existing
// properties are untouched here; only Lexicon's whitelisted array fields
// are merged, via MergeLexiconSurfaceForms, before this call.
func MergeDuplicate(ctx context.Context, store *Store, databaseName, label string, pair DuplicatePair) error {
	var statements []Statement
	for _, v := range AllVerbs() {
		rel := verbLabel(v)
		statements = append(statements,
			Statement{
				Cypher: fmt.Sprintf(
					`MATCH (loser:%s {id: $loser})-[r:%s]->(tgt) WHERE NOT (loser)=(tgt)
					 MATCH (winner:%s {id: $winner})
					 MERGE (winner)-[nr:%s]->(tgt) SET nr += properties(r)`,
					label, rel, label, rel),
				Params: map[string]any{"winner": pair.WinnerID, "loser": pair.LoserID},
			},
			Statement{
				Cypher: fmt.Sprintf(
					`MATCH (src)-[r:%s]->(loser:%s) WHERE NOT (src)=(loser)
					 MATCH (winner:%s {id: $winner})
					 MERGE (src)-[nr:%s]->(winner) SET nr += properties(r)`,
					rel, label, label, rel),
				Params: map[string]any{"winner": pair.WinnerID, "loser": pair.LoserID},
			},
		)
	}
	statements = append(statements, Statement{
		Cypher: fmt.Sprintf("MATCH (loser:%s {id: $loser}) DETACH DELETE loser", label),
		Params: map[string]any{"loser": pair.LoserID},
	})
	return store.RunTransaction(ctx, databaseName, statements)
}

// DedupSummary reports how many pairs were merged per label, recorded as
// stage metrics.
type DedupSummary struct {
	MergedByLabel map[model.PoolLabel]int
}

// RunDeduplication executes all five merge rules in sequence, within
// Deduplication's own transaction scope per pair (spec.md §4.4.5:
// "Executed in a separate transaction").
func RunDeduplication(ctx context.Context, store *Store, databaseName string) (DedupSummary, error) {
	summary := DedupSummary{MergedByLabel: map[model.PoolLabel]int{}}

	ideaPairs, err := FindDuplicateIdeas(ctx, store, databaseName)
	if err != nil {
		return summary, err
	}
	for _, p := range ideaPairs {
		if err := MergeDuplicate(ctx, store, databaseName, string(model.PoolIdea), p); err != nil {
			return summary, err
		}
		summary.MergedByLabel[model.PoolIdea]++
	}

	manifestPairs, err := FindDuplicateManifests(ctx, store, databaseName)
	if err != nil {
		return summary, err
	}
	for _, p := range manifestPairs {
		if err := MergeDuplicate(ctx, store, databaseName, string(model.PoolManifest), p); err != nil {
			return summary, err
		}
		summary.MergedByLabel[model.PoolManifest]++
	}

	experiencePairs, err := FindDuplicateExperiences(ctx, store, databaseName)
	if err != nil {
		return summary, err
	}
	for _, p := range experiencePairs {
		if err := MergeDuplicate(ctx, store, databaseName, string(model.PoolExperience), p); err != nil {
			return summary, err
		}
		summary.MergedByLabel[model.PoolExperience]++
	}

	spatialPairs, err := FindDuplicateSpatials(ctx, store, databaseName)
	if err != nil {
		return summary, err
	}
	for _, p := range spatialPairs {
		if err := MergeDuplicate(ctx, store, databaseName, string(model.PoolSpatial), p); err != nil {
			return summary, err
		}
		summary.MergedByLabel[model.PoolSpatial]++
	}

	lexiconPairs, err := findDuplicates(ctx, store, databaseName, labelLexicon,
		"MATCH (a:Lexicon), (b:Lexicon) WHERE a.canonical_term = b.canonical_term AND a.id <> b.id "+
			"RETURN a.id AS a_id, a.created_at AS a_created, b.id AS b_id, b.created_at AS b_created")
	if err != nil {
		return summary, err
	}
	for _, p := range lexiconPairs {
		if err := MergeLexiconSurfaceForms(ctx, store, databaseName, p); err != nil {
			return summary, err
		}
		summary.MergedByLabel[model.PoolLabel(labelLexicon)]++
	}

	return summary, nil
}
