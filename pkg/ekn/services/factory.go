package services

import (
	"context"
	"fmt"

	"github.com/enliterator/enliterator/internal/config"
)

// NewRightsService selects a RightsService implementation by
// config.ServiceConfig.Provider ("langchain", "http"). Anthropic direct is
// intentionally not offered here: Rights is the concern this module assigns
// to langchaingo's provider-agnostic abstraction (see langchain.go).
func NewRightsService(cfg config.ServiceConfig) (RightsService, error) {
	switch cfg.Provider {
	case "langchain", "":
		return NewLangchainRights(cfg.Endpoint, cfg.Model)
	case "http":
		return NewHTTPRights(cfg), nil
	default:
		return nil, fmt.Errorf("unknown rights provider %q", cfg.Provider)
	}
}

// NewExtractionService selects an ExtractionService implementation.
// Anthropic is currently the only backend wired for term/pool extraction.
func NewExtractionService(cfg config.ServiceConfig) (ExtractionService, error) {
	switch cfg.Provider {
	case "anthropic", "":
		return NewAnthropicExtraction(cfg.Endpoint, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown extraction provider %q", cfg.Provider)
	}
}

// NewEmbeddingService selects an EmbeddingService implementation. Bedrock is
// currently the only backend wired for embeddings.
func NewEmbeddingService(ctx context.Context, cfg config.ServiceConfig) (EmbeddingService, error) {
	switch cfg.Provider {
	case "bedrock", "":
		return NewBedrockEmbedding(ctx, cfg.Model, cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
