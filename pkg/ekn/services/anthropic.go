package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// AnthropicExtraction implements ExtractionService against Claude, the
// default provider for both Lexicon Bootstrap's term extraction and Pool
// Extraction (spec.md §4.3, §6). Both operations share one client and differ
// only in prompt and expected JSON shape.
type AnthropicExtraction struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicExtraction constructs a client bound to the given API key and
// model name (e.g. "claude-sonnet-4-5").
func NewAnthropicExtraction(apiKey, modelName string) *AnthropicExtraction {
	return &AnthropicExtraction{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(modelName),
	}
}

const termExtractionSystemPrompt = `You extract canonical vocabulary terms from a document. ` +
	`Respond with a JSON array of objects: {"surface_form", "canonical_term", "term_type", "description", "negative_surface_forms"}.`

// ExtractTerms proposes lexicon candidates for one item's content.
func (a *AnthropicExtraction) ExtractTerms(ctx context.Context, itemText string) ([]ExtractedTerm, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: termExtractionSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(itemText)),
		},
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "anthropic term extraction call failed")
	}

	raw := concatText(msg)
	var terms []ExtractedTerm
	if err := json.Unmarshal([]byte(raw), &terms); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeValidation, "anthropic term extraction returned non-JSON response")
	}
	return terms, nil
}

const poolExtractionSystemPromptFmt = `You extract typed knowledge-graph entities and relations from a document, ` +
	`given the batch's canonical lexicon: %s. Respond with JSON: ` +
	`{"entities": {"<pool label>": [{...fields}]}, "relations": [{"source": {"label","id"}, "target": {"label","id"}, "verb", "strength"}]}. ` +
	`Every verb MUST be one of the glossary's declared verbs.`

// ExtractPool proposes pool entities and typed relations for one item.
func (a *AnthropicExtraction) ExtractPool(ctx context.Context, itemText string, lexicon []model.LexiconEntry) (PoolExtractionResult, error) {
	terms := make([]string, 0, len(lexicon))
	for _, l := range lexicon {
		terms = append(terms, l.CanonicalTerm)
	}
	lexiconJSON, err := json.Marshal(terms)
	if err != nil {
		return PoolExtractionResult{}, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "marshaling lexicon for pool extraction prompt")
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: fmt.Sprintf(poolExtractionSystemPromptFmt, string(lexiconJSON))},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(itemText)),
		},
	})
	if err != nil {
		return PoolExtractionResult{}, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "anthropic pool extraction call failed")
	}

	var decoded struct {
		Entities  map[model.PoolLabel][]map[string]any `json:"entities"`
		Relations []model.Relation                     `json:"relations"`
	}
	if err := json.Unmarshal([]byte(concatText(msg)), &decoded); err != nil {
		return PoolExtractionResult{}, apperrors.Wrap(err, apperrors.ErrorTypeValidation, "anthropic pool extraction returned non-JSON response")
	}
	return PoolExtractionResult{Entities: decoded.Entities, Relations: decoded.Relations}, nil
}

// concatText joins every text content block of a Claude response, since a
// single completion may be split across blocks.
func concatText(msg *anthropic.Message) string {
	out := ""
	for _, block := range msg.Content {
		if text := block.AsText(); text.Text != "" {
			out += text.Text
		}
	}
	return out
}
