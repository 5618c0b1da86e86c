package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// IntegrityReport is the Integrity Verifier's output (spec.md §4.4.7).
// Errors fail Graph Assembly; warnings are recorded but do not block.
type IntegrityReport struct {
	Valid    bool
	Errors   []string
	Warnings []string
	Summary  IntegritySummary
}

// IntegritySummary carries counts by label and by verb.
type IntegritySummary struct {
	CountsByLabel map[string]int
	CountsByVerb  map[string]int
}

// VerifyIntegrity runs every check spec.md §4.4.7 lists against
// databaseName and returns the combined report. Individual checks never
// abort the scan early so a single report reflects every violation found.
func VerifyIntegrity(ctx context.Context, store *Store, databaseName string) (IntegrityReport, error) {
	report := IntegrityReport{
		Summary: IntegritySummary{CountsByLabel: map[string]int{}, CountsByVerb: map[string]int{}},
	}

	if err := checkRightsLinkage(ctx, store, databaseName, &report); err != nil {
		return report, err
	}
	if err := checkReprText(ctx, store, databaseName, &report); err != nil {
		return report, err
	}
	if err := checkTimeFields(ctx, store, databaseName, &report); err != nil {
		return report, err
	}
	if err := checkVerbClosure(ctx, store, databaseName, &report); err != nil {
		return report, err
	}
	if err := checkReverseMirror(ctx, store, databaseName, &report); err != nil {
		return report, err
	}
	if err := checkLexiconLabels(ctx, store, databaseName, &report); err != nil {
		return report, err
	}
	if err := populateSummary(ctx, store, databaseName, &report); err != nil {
		return report, err
	}

	report.Valid = len(report.Errors) == 0
	return report, nil
}

// checkRightsLinkage verifies every content node has rights_id set and a
// HAS_RIGHTS edge.
func checkRightsLinkage(ctx context.Context, store *Store, databaseName string, report *IntegrityReport) error {
	for _, label := range model.ContentPools {
		rows, err := store.Query(ctx, databaseName, fmt.Sprintf(
			`MATCH (n:%s) WHERE n.rights_id IS NULL OR NOT (n)-[:%s]->(:ProvenanceAndRights)
			 RETURN n.id AS id`, label, verbLabel(HasRights)), nil)
		if err != nil {
			return err
		}
		for _, row := range rows {
			report.Errors = append(report.Errors, fmt.Sprintf(
				"%s node %v missing rights_id or HAS_RIGHTS edge", label, row["id"]))
		}
	}
	return nil
}

// checkReprText verifies content-bearing pools have non-empty repr_text.
func checkReprText(ctx context.Context, store *Store, databaseName string, report *IntegrityReport) error {
	labels := []model.PoolLabel{model.PoolIdea, model.PoolManifest, model.PoolExperience, model.PoolPractical, model.PoolEmanation}
	for _, label := range labels {
		rows, err := store.Query(ctx, databaseName, fmt.Sprintf(
			`MATCH (n:%s) WHERE n.repr_text IS NULL OR n.repr_text = "" RETURN n.id AS id`, label), nil)
		if err != nil {
			return err
		}
		for _, row := range rows {
			report.Errors = append(report.Errors, fmt.Sprintf("%s node %v has empty repr_text", label, row["id"]))
		}
	}
	return nil
}

// checkTimeFields is a warning-only check (spec.md: "to allow partial data
// sets").
func checkTimeFields(ctx context.Context, store *Store, databaseName string, report *IntegrityReport) error {
	for _, label := range model.RequiredPools {
		timeField := "valid_time_start"
		if label == model.PoolExperience {
			timeField = "observed_at"
		}
		rows, err := store.Query(ctx, databaseName, fmt.Sprintf(
			`MATCH (n:%s) WHERE n.%s IS NULL RETURN n.id AS id`, label, timeField), nil)
		if err != nil {
			return err
		}
		for _, row := range rows {
			report.Warnings = append(report.Warnings, fmt.Sprintf(
				"%s node %v missing %s", label, row["id"], timeField))
		}
	}
	return nil
}

// checkVerbClosure warns on any relationship type not in the glossary.
func checkVerbClosure(ctx context.Context, store *Store, databaseName string, report *IntegrityReport) error {
	rows, err := store.Query(ctx, databaseName, "MATCH ()-[r]->() RETURN DISTINCT type(r) AS verb", nil)
	if err != nil {
		return err
	}
	known := map[string]bool{verbLabel(HasRights): true}
	for v := range Active() {
		known[verbLabel(v)] = true
	}
	for _, row := range rows {
		verb, _ := row["verb"].(string)
		if !known[strings.ToUpper(verb)] {
			report.Warnings = append(report.Warnings, fmt.Sprintf("edge type %q is not in the glossary", verb))
		}
	}
	return nil
}

// checkReverseMirror verifies forward/reverse counts match for declared
// reverse verbs, and that symmetric verb counts are even.
func checkReverseMirror(ctx context.Context, store *Store, databaseName string, report *IntegrityReport) error {
	for verb, entry := range Active() {
		if entry.Symmetric {
			count, err := countEdgesOfType(ctx, store, databaseName, verb)
			if err != nil {
				return err
			}
			if count%2 != 0 {
				report.Errors = append(report.Errors, fmt.Sprintf("symmetric verb %q has odd edge count %d", verb, count))
			}
			continue
		}
		if entry.Reverse == "" {
			continue
		}
		forward, err := countEdgesOfType(ctx, store, databaseName, verb)
		if err != nil {
			return err
		}
		backward, err := countEdgesOfType(ctx, store, databaseName, entry.Reverse)
		if err != nil {
			return err
		}
		if forward != backward {
			report.Errors = append(report.Errors, fmt.Sprintf(
				"verb %q has %d forward edges but reverse %q has %d", verb, forward, entry.Reverse, backward))
		}
	}
	return nil
}

func countEdgesOfType(ctx context.Context, store *Store, databaseName string, verb model.Verb) (int, error) {
	rows, err := store.Query(ctx, databaseName, fmt.Sprintf(
		"MATCH ()-[r:%s]->() RETURN count(r) AS c", verbLabel(verb)), nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	switch c := rows[0]["c"].(type) {
	case int64:
		return int(c), nil
	case int:
		return c, nil
	default:
		return 0, nil
	}
}

// checkLexiconLabels errors on any Lexicon node with an empty
// canonical_term.
func checkLexiconLabels(ctx context.Context, store *Store, databaseName string, report *IntegrityReport) error {
	rows, err := store.Query(ctx, databaseName,
		`MATCH (n:Lexicon) WHERE n.canonical_term IS NULL OR n.canonical_term = "" RETURN n.id AS id`, nil)
	if err != nil {
		return err
	}
	for _, row := range rows {
		report.Errors = append(report.Errors, fmt.Sprintf("Lexicon node %v has empty canonical_term", row["id"]))
	}
	return nil
}

func populateSummary(ctx context.Context, store *Store, databaseName string, report *IntegrityReport) error {
	for _, label := range allLabels() {
		rows, err := store.Query(ctx, databaseName, fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS c", label), nil)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			if c, ok := rows[0]["c"].(int64); ok {
				report.Summary.CountsByLabel[label] = int(c)
			}
		}
	}
	for _, verb := range AllVerbs() {
		count, err := countEdgesOfType(ctx, store, databaseName, verb)
		if err != nil {
			return err
		}
		if count > 0 {
			report.Summary.CountsByVerb[string(verb)] = count
		}
	}
	return nil
}
