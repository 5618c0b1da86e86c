package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// NodeRecord is one pool entity (or Lexicon/Intent record) awaiting a
// MERGE into the graph, already carrying its sanitized property map
// (spec.md §4.4.3).
type NodeRecord struct {
	Label model.PoolLabel
	ID    int64
	Props map[string]any
}

// SanitizeProperties enforces spec.md §4.4.3's property-type rule: graph
// properties may only be null, booleans, numbers, strings, or arrays of
// primitives. Anything else is serialized to a JSON string. A
// model.Ref-typed value is split into two primitive columns rather than
// serialized, mirroring the polymorphic-reference Design Note.
func SanitizeProperties(raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		sanitized, err := sanitizeValue(k, v)
		if err != nil {
			return nil, err
		}
		for sk, sv := range sanitized {
			out[sk] = sv
		}
	}
	return out, nil
}

func sanitizeValue(key string, v any) (map[string]any, error) {
	switch val := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return map[string]any{key: val}, nil
	case model.Ref:
		return map[string]any{
			key + "_id":   val.ID,
			key + "_type": val.Label,
		}, nil
	case []string:
		return map[string]any{key: val}, nil
	case []int64:
		return map[string]any{key: val}, nil
	case []float64:
		return map[string]any{key: val}, nil
	case []float32:
		return map[string]any{key: val}, nil
	default:
		if isPrimitiveSlice(v) {
			return map[string]any{key: v}, nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("sanitizing property %q: %w", key, err)
		}
		return map[string]any{key: string(data)}, nil
	}
}

// isPrimitiveSlice reports whether v is a slice of a type already handled
// as a primitive array by the graph driver (used as a fallback for
// []interface{} containing only primitives, not maps or nested slices).
func isPrimitiveSlice(v any) bool {
	items, ok := v.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		switch item.(type) {
		case nil, bool, string,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			continue
		default:
			return false
		}
	}
	return true
}

// LoadNodes MERGEs one node per record within a single data-only
// transaction (spec.md §4.4.3 Transaction B), tagging every node with
// batch_id, and a node the MERGE creates with created_at (epoch
// milliseconds, the unit Orphan Removal's preserve-window cutoff uses).
// Idempotent: re-running with the same records produces the same node set
// (MERGE by id, SET n += props).
func LoadNodes(ctx context.Context, store *Store, databaseName string, batchID int64, records []NodeRecord) error {
	statements := make([]Statement, 0, len(records))
	for _, rec := range records {
		props, err := SanitizeProperties(rec.Props)
		if err != nil {
			return err
		}
		props["id"] = rec.ID
		props["batch_id"] = batchID
		statements = append(statements, Statement{
			Cypher: fmt.Sprintf("MERGE (n:%s {id: $id}) ON CREATE SET n.created_at = timestamp() SET n += $props", rec.Label),
			Params: map[string]any{"id": rec.ID, "props": props},
		})
	}
	return store.RunTransaction(ctx, databaseName, statements)
}
