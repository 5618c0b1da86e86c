// Package services defines the call contracts for the three black-box
// external collaborators named in spec.md §6 (Rights Inference, Term/Pool
// Extraction, Embedding) and wires a swappable provider behind each:
// langchaingo for Rights, the Anthropic SDK for Extraction, AWS Bedrock for
// Embedding, plus an HTTP+OAuth2 fallback provider validated against an
// OpenAPI contract. None of these are implemented by this module; stage
// jobs in pkg/ekn/stages depend only on the interfaces below.
package services

import (
	"context"

	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// RightsResult is the Rights Inference response shape (spec.md §6).
type RightsResult struct {
	Confidence  float64
	License     model.License
	Consent     model.Consent
	Publishable bool
	Trainable   bool
	SourceType  string
	Method      string
}

// RightsService infers license/consent/publishability for one item.
type RightsService interface {
	Infer(ctx context.Context, item *model.IngestItem) (RightsResult, error)
}

// ExtractedTerm is one candidate lexicon entry proposed by Term Extraction.
type ExtractedTerm struct {
	SurfaceForm          string
	CanonicalTerm        string
	TermType             string
	Description          string
	NegativeSurfaceForms []string
}

// ExtractionService covers both Extraction Services call contracts named in
// spec.md §6: term extraction (Lexicon Bootstrap) and pool extraction
// (Pool Extraction), since both are delivered by the same LLM-backed
// collaborator and differ only in prompt and response shape.
type ExtractionService interface {
	// ExtractTerms proposes lexicon candidates for one item's content.
	ExtractTerms(ctx context.Context, itemText string) ([]ExtractedTerm, error)
	// ExtractPool proposes pool entities and typed relations given an
	// item's content and the batch's current lexicon.
	ExtractPool(ctx context.Context, itemText string, lexicon []model.LexiconEntry) (PoolExtractionResult, error)
}

// PoolExtractionResult groups proposed entities by pool label and the
// relations between them (spec.md §6, "verb MUST belong to the glossary").
type PoolExtractionResult struct {
	Entities  map[model.PoolLabel][]map[string]any
	Relations []model.Relation
}

// EmbeddingService encodes text into a fixed-dimension vector and supports
// nearest-neighbour lookups once stored on the graph (spec.md §4.5, §6).
type EmbeddingService interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	ModelID() string
}
