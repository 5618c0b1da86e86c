// Package rights implements cross-stage rights propagation and policy
// filtering: the boundary between "Rights Service says a confidence score"
// and "an entity is allowed into Embeddings or Deliverables" (spec.md §4.3,
// §4.5, §8 "Rights propagation", §9 Open Question on the quarantine
// boundary — see DESIGN.md for the resolution).
package rights

import (
	"context"

	"github.com/open-policy-agent/opa/rego"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// policyModule is the closed Rego policy evaluated against every
// ProvenanceAndRights record before its owning entity may reach Embeddings
// (allow_training) or the Deliverables stage (allow_publish). Kept inline
// rather than loaded from an external file: the spec names exactly two
// decisions and ties them to the fields already on ProvenanceAndRights, so
// there is no per-deployment policy variation to hot-reload.
const policyModule = `
package rights

default allow_training = false
default allow_publish = false

allow_training {
	input.training_eligible == true
	input.consent != "denied"
	input.confidence >= 0.7
}

allow_publish {
	input.publishable == true
	input.consent != "denied"
}
`

// Decision is the evaluated result of the rights policy for one
// ProvenanceAndRights record.
type Decision struct {
	AllowTraining bool `json:"allow_training"`
	AllowPublish  bool `json:"allow_publish"`
}

// Policy wraps a prepared Rego query so repeated evaluations (one per pool
// entity) do not recompile the module each time.
type Policy struct {
	trainingQuery rego.PreparedEvalQuery
	publishQuery  rego.PreparedEvalQuery
}

// Compile prepares the rights policy for evaluation. Call once at process
// startup (Design Note "Singletons for store access": the prepared query is
// an explicit handle passed into stage-job constructors, not module state).
func Compile(ctx context.Context) (*Policy, error) {
	trainingQuery, err := rego.New(
		rego.Query("data.rights.allow_training"),
		rego.Module("rights.rego", policyModule),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "compiling rights.allow_training policy")
	}

	publishQuery, err := rego.New(
		rego.Query("data.rights.allow_publish"),
		rego.Module("rights.rego", policyModule),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "compiling rights.allow_publish policy")
	}

	return &Policy{trainingQuery: trainingQuery, publishQuery: publishQuery}, nil
}

// Evaluate runs both policy queries against a rights record and returns the
// combined decision.
func (p *Policy) Evaluate(ctx context.Context, rec *model.ProvenanceAndRights) (Decision, error) {
	input := map[string]any{
		"training_eligible": rec.TrainingEligible,
		"publishable":       rec.Publishable,
		"consent":           string(rec.Consent),
		"confidence":        rec.Confidence,
	}

	trainingResult, err := p.trainingQuery.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "evaluating rights.allow_training")
	}
	publishResult, err := p.publishQuery.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "evaluating rights.allow_publish")
	}

	return Decision{
		AllowTraining: firstBool(trainingResult),
		AllowPublish:  firstBool(publishResult),
	}, nil
}

// firstBool extracts the single boolean result of a prepared query
// evaluation, defaulting to false for an empty result set (Rego's "no
// defined value" for a rule whose body never matched and who has no
// applicable default — shouldn't happen here since both rules declare an
// explicit `default ... = false`, but treated as deny-by-default regardless).
func firstBool(rs rego.ResultSet) bool {
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false
	}
	v, ok := rs[0].Expressions[0].Value.(bool)
	return ok && v
}

// ForceRightsOverride is the operator escape hatch (distinct from the
// batch-level test_rights_override config flag, see DESIGN.md): an
// explicitly authorized, reason-carrying override that bypasses policy
// evaluation entirely for a single entity. Used when an operator asserts
// permissive rights despite a low-confidence or adverse inference.
type ForceRightsOverride struct {
	Reason      string
	Authorized  bool
}

// Validate enforces that an override always carries an authorizing actor and
// a human-readable justification; an unauthorized or unexplained override is
// rejected rather than silently ignored.
func (f ForceRightsOverride) Validate() error {
	if !f.Authorized {
		return apperrors.NewValidationError("rights override requires explicit authorization")
	}
	if f.Reason == "" {
		return apperrors.NewValidationError("rights override requires a reason")
	}
	return nil
}

// Apply returns the permissive decision an authorized override grants,
// ignoring the compiled policy. Callers MUST call Validate first.
func (f ForceRightsOverride) Apply() Decision {
	return Decision{AllowTraining: true, AllowPublish: true}
}
