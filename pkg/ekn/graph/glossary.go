// Package graph turns the relational state into a labeled property graph
// in a per-batch Neo4j database: schema provisioning, node loading, edge
// loading under a closed verb glossary, deduplication, orphan removal, and
// integrity verification (spec.md §4.4).
package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// VerbEntry is one row of the Verb Glossary (spec.md §4.4.4): the
// authoritative, closed contract the Edge Loader consults for every
// relational tuple. Represented as a compile-time table rather than
// reflection or string dispatch (Design Note "Dynamic verb dispatch").
type VerbEntry struct {
	SourceLabel model.PoolLabel // "*" sentinel handled via SourceAny
	TargetLabel model.PoolLabel
	SourceAny   bool
	TargetAny   bool
	Reverse     model.Verb // empty if none declared
	Symmetric   bool
}

const poolLabelAny model.PoolLabel = "*"

// HasRights is the one verb every content-bearing entity connects to its
// rights node with; it is not part of the pool-to-pool glossary table
// because its target is always ProvenanceAndRights, never another pool.
const HasRights model.Verb = "has_rights"

// Glossary is the closed set of named verbs, including the representative
// entries enumerated in spec.md §4.4.4.
var Glossary = map[model.Verb]VerbEntry{
	"embodies": {
		SourceLabel: model.PoolManifest, TargetLabel: model.PoolIdea,
		Reverse: "is_embodiment_of",
	},
	"is_embodiment_of": {
		SourceLabel: model.PoolIdea, TargetLabel: model.PoolManifest,
		Reverse: "embodies",
	},
	"elicits": {
		SourceLabel: model.PoolManifest, TargetLabel: model.PoolExperience,
		Reverse: "is_elicited_by",
	},
	"is_elicited_by": {
		SourceLabel: model.PoolExperience, TargetLabel: model.PoolManifest,
		Reverse: "elicits",
	},
	"influences": {
		SourceLabel: model.PoolIdea, TargetAny: true,
		Reverse: "is_influenced_by",
	},
	"is_influenced_by": {
		SourceAny: true, TargetLabel: model.PoolIdea,
		Reverse: "influences",
	},
	"refines": {
		SourceLabel: model.PoolEvolutionary, TargetLabel: model.PoolIdea,
		Reverse: "is_refined_by",
	},
	"is_refined_by": {
		SourceLabel: model.PoolIdea, TargetLabel: model.PoolEvolutionary,
		Reverse: "refines",
	},
	"version_of": {
		SourceLabel: model.PoolEvolutionary, TargetLabel: model.PoolManifest,
		Reverse: "has_version",
	},
	"has_version": {
		SourceLabel: model.PoolManifest, TargetLabel: model.PoolEvolutionary,
		Reverse: "version_of",
	},
	"co_occurs_with": {
		SourceLabel: model.PoolRelational, TargetLabel: model.PoolRelational,
		Symmetric: true,
	},
	"located_at": {
		SourceLabel: model.PoolManifest, TargetLabel: model.PoolSpatial,
		Reverse: "hosts",
	},
	"hosts": {
		SourceLabel: model.PoolSpatial, TargetLabel: model.PoolManifest,
		Reverse: "located_at",
	},
	"adjacent_to": {
		SourceLabel: model.PoolSpatial, TargetLabel: model.PoolSpatial,
		Symmetric: true,
	},
	"validated_by": {
		SourceLabel: model.PoolPractical, TargetLabel: model.PoolExperience,
		Reverse: "validates",
	},
	"validates": {
		SourceLabel: model.PoolExperience, TargetLabel: model.PoolPractical,
		Reverse: "validated_by",
	},
	"supports": {
		SourceLabel: model.PoolEvidence, TargetLabel: model.PoolIdea,
	},
	"refutes": {
		SourceLabel: model.PoolEvidence, TargetLabel: model.PoolIdea,
	},
	"codifies": {
		SourceLabel: model.PoolIdea, TargetLabel: model.PoolPractical,
		Reverse: "derived_from",
	},
	"derived_from": {
		SourceLabel: model.PoolPractical, TargetLabel: model.PoolIdea,
		Reverse: "codifies",
	},
	"feeds_back": {
		SourceLabel: model.PoolEmanation, TargetLabel: model.PoolIdea,
		Reverse: "is_fed_by",
	},
	"is_fed_by": {
		SourceLabel: model.PoolIdea, TargetLabel: model.PoolEmanation,
		Reverse: "feeds_back",
	},
}

// active holds the glossary table every Lookup/AllVerbs/Active call reads,
// defaulting to Glossary. Graph Assembly always reads this table at the
// start of Edge Loading and never mid-phase (spec.md §7 "verb glossary
// hot-reload"): a config-driven VerbGlossaryPath lets an operator replace it
// without a process restart, via ReplaceGlossary.
var active atomic.Pointer[map[model.Verb]VerbEntry]

func init() {
	active.Store(&Glossary)
}

// Active returns the glossary table currently in effect.
func Active() map[model.Verb]VerbEntry {
	return *active.Load()
}

// ReplaceGlossary atomically swaps the table every subsequent Lookup/
// AllVerbs call reads. Passing nil restores the built-in Glossary.
func ReplaceGlossary(table map[model.Verb]VerbEntry) {
	if table == nil {
		table = Glossary
	}
	active.Store(&table)
}

// ParseGlossaryFile reads a JSON-encoded verb table from path, the format
// VerbGlossaryPath names: an object keyed by verb name with VerbEntry's
// fields. Used by cmd/enliterator's fsnotify watch on config changes; kept
// in this package (rather than cmd) since it's the authority on the table's
// shape.
func ParseGlossaryFile(path string) (map[model.Verb]VerbEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading verb glossary file: %w", err)
	}
	table := map[model.Verb]VerbEntry{}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing verb glossary file: %w", err)
	}
	return table, nil
}

// Lookup returns the active glossary's entry for v and whether it exists.
// Unknown verbs are a per-relation warning-and-skip, never a fatal error
// (spec.md §4.4.4 step 1).
func Lookup(v model.Verb) (VerbEntry, bool) {
	entry, ok := Active()[v]
	return entry, ok
}

// AllVerbs returns every verb name in the active glossary plus HasRights,
// used by Deduplication's fallback merge-by-verb loop (spec.md §4.4.5) and
// by Integrity Verification's closure check (spec.md §4.4.7).
func AllVerbs() []model.Verb {
	table := Active()
	verbs := make([]model.Verb, 0, len(table)+1)
	for v := range table {
		verbs = append(verbs, v)
	}
	verbs = append(verbs, HasRights)
	return verbs
}

// MatchesSource reports whether label satisfies the entry's source
// constraint.
func (e VerbEntry) MatchesSource(label model.PoolLabel) bool {
	return e.SourceAny || e.SourceLabel == label
}

// MatchesTarget reports whether label satisfies the entry's target
// constraint.
func (e VerbEntry) MatchesTarget(label model.PoolLabel) bool {
	return e.TargetAny || e.TargetLabel == label
}
