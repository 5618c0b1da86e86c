package maturity

import (
	"context"
	"fmt"

	"github.com/itchyny/gojq"

	apperrors "github.com/enliterator/enliterator/internal/errors"
)

// AcceptanceGate is a compiled jq expression evaluated against a stage's
// metrics map to decide the post-processing acceptance gate spec.md §4.2
// names generically ("the stage validates domain-specific post-conditions")
// and illustrates concretely ("Lexicon stage fails if terms_extracted == 0
// while there exist eligible items"). Expressing each stage's specific
// post-condition as a jq query keeps the gate declarative and lets an
// operator override one without a code change (spec.md §6's configuration
// surface).
type AcceptanceGate struct {
	name  string
	query *gojq.Query
}

// CompileGate parses a jq boolean expression once for repeated evaluation.
func CompileGate(name, expr string) (*AcceptanceGate, error) {
	q, err := gojq.Parse(expr)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrorTypeValidation, "compiling acceptance gate %q", name)
	}
	return &AcceptanceGate{name: name, query: q}, nil
}

// Evaluate runs the gate against input (typically a stage's metrics map
// decoded to map[string]any) and reports whether the gate passed. A jq
// expression that yields a non-boolean result is treated as a compile-time
// mistake (InvalidInput, not retriable).
func (g *AcceptanceGate) Evaluate(ctx context.Context, input any) (bool, error) {
	iter := g.query.RunWithContext(ctx, input)
	v, ok := iter.Next()
	if !ok {
		return false, apperrors.Newf(apperrors.ErrorTypeValidation, "acceptance gate %q produced no result", g.name)
	}
	if err, ok := v.(error); ok {
		return false, apperrors.Wrapf(err, apperrors.ErrorTypeValidation, "acceptance gate %q failed to evaluate", g.name)
	}
	result, ok := v.(bool)
	if !ok {
		return false, apperrors.Newf(apperrors.ErrorTypeValidation, "acceptance gate %q did not produce a boolean", g.name)
	}
	return result, nil
}

// StandardGates are the built-in gate expressions spec.md §4.2/§4.3 name by
// example. A stage job compiles and evaluates the entry matching its own
// name; CompileGate is exported so a deployment can register additional or
// overriding gates via the verb_glossary-style configuration surface.
var StandardGates = map[string]string{
	// "Lexicon stage fails if terms_extracted == 0 while there exist
	// eligible items" (spec.md §4.2).
	"lexicon_bootstrap": `.terms_extracted > 0 or .eligible_items == 0`,
	// Pool Extraction must not silently produce zero entities when items
	// were eligible (spec.md §8 "Boundary cases" generalizes the same
	// zero-count tolerance rule the Lexicon example states explicitly).
	"pool_extraction": `.entities_created > 0 or .eligible_items == 0`,
	// Graph Assembly's acceptance gate is the Integrity Verifier's own
	// report, not a jq expression (spec.md §4.4.7); no entry here.
}

// MustCompileStandardGates compiles every entry in StandardGates, used at
// process startup where a compile failure is a programming error, not a
// runtime condition.
func MustCompileStandardGates() map[string]*AcceptanceGate {
	gates := make(map[string]*AcceptanceGate, len(StandardGates))
	for name, expr := range StandardGates {
		g, err := CompileGate(name, expr)
		if err != nil {
			panic(fmt.Sprintf("invalid built-in acceptance gate %q: %v", name, err))
		}
		gates[name] = g
	}
	return gates
}
