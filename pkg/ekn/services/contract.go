package services

import (
	"context"
	"encoding/json"

	"github.com/getkin/kin-openapi/openapi3"

	apperrors "github.com/enliterator/enliterator/internal/errors"
)

// rightsResponseSchema is the OpenAPI 3 schema the HTTP+OAuth2 Rights
// provider's JSON response must satisfy (spec.md §6: "Errors are retriable
// if transport-level; non-retriable if schema validation fails"). Only the
// HTTP provider needs this: the SDK-backed providers (Anthropic, Bedrock,
// langchaingo) already return typed Go values that cannot carry a malformed
// wire shape.
var rightsResponseSchema = openapi3.NewObjectSchema().
	WithProperty("confidence", openapi3.NewFloat64Schema().WithMin(0).WithMax(1)).
	WithProperty("license", openapi3.NewStringSchema()).
	WithProperty("consent", openapi3.NewStringSchema()).
	WithProperty("publishable", openapi3.NewBoolSchema()).
	WithProperty("trainable", openapi3.NewBoolSchema()).
	WithRequired([]string{"confidence", "license", "consent", "publishable", "trainable"})

// ValidateRightsResponse checks a raw HTTP Rights Inference response body
// against the contract schema before it is unmarshaled into a RightsResult.
// A schema violation is a non-retriable InvalidInput-shaped error per
// spec.md §6; a well-formed but logically odd payload (e.g. confidence 0)
// is still valid and must flow through to the quarantine path in
// pkg/ekn/rights, not be rejected here.
func ValidateRightsResponse(ctx context.Context, body []byte) error {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeValidation, "rights response is not valid JSON")
	}
	if err := rightsResponseSchema.VisitJSON(decoded); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeValidation, "rights response failed contract validation")
	}
	return nil
}
