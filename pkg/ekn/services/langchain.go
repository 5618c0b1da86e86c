package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"

	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// LangchainRights implements RightsService over langchaingo's provider
// abstraction, chosen over a direct SDK client for Rights Inference
// specifically because rights methodology (the prompt, the model backing
// it) is the piece of this pipeline most likely to be swapped per
// deployment without a code change; langchaingo's llms.Model interface lets
// the concrete backend vary by configuration alone.
type LangchainRights struct {
	llm llms.Model
}

// NewLangchainRights constructs a provider-agnostic Rights client. The
// concrete backend (here, Anthropic through langchaingo's own wrapper
// rather than this module's direct SDK client) is an implementation detail
// behind llms.Model.
func NewLangchainRights(apiKey, modelName string) (*LangchainRights, error) {
	llm, err := anthropic.New(anthropic.WithToken(apiKey), anthropic.WithModel(modelName))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "constructing langchaingo rights model")
	}
	return &LangchainRights{llm: llm}, nil
}

const rightsInferencePrompt = `Given the following document excerpt, infer its rights posture. ` +
	`Respond with JSON only: {"confidence": 0..1, "license": string, "consent": string, ` +
	`"publishable": bool, "trainable": bool, "source_type": string, "method": string}.

Excerpt:
%s`

// Infer calls the configured LLM to infer rights for one item (spec.md §6,
// "Rights Inference: infer(item) → {...}").
func (l *LangchainRights) Infer(ctx context.Context, item *model.IngestItem) (RightsResult, error) {
	prompt := fmt.Sprintf(rightsInferencePrompt, item.ContentSample)
	completion, err := llms.GenerateFromSinglePrompt(ctx, l.llm, prompt)
	if err != nil {
		return RightsResult{}, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "rights inference call failed")
	}

	var decoded struct {
		Confidence  float64 `json:"confidence"`
		License     string  `json:"license"`
		Consent     string  `json:"consent"`
		Publishable bool    `json:"publishable"`
		Trainable   bool    `json:"trainable"`
		SourceType  string  `json:"source_type"`
		Method      string  `json:"method"`
	}
	if err := json.Unmarshal([]byte(completion), &decoded); err != nil {
		return RightsResult{}, apperrors.Wrap(err, apperrors.ErrorTypeValidation, "rights inference returned non-JSON response")
	}

	return RightsResult{
		Confidence:  decoded.Confidence,
		License:     model.License(decoded.License),
		Consent:     model.Consent(decoded.Consent),
		Publishable: decoded.Publishable,
		Trainable:   decoded.Trainable,
		SourceType:  decoded.SourceType,
		Method:      decoded.Method,
	}, nil
}
