package services

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	apperrors "github.com/enliterator/enliterator/internal/errors"
)

// BedrockEmbedding implements EmbeddingService against an AWS Bedrock
// embedding model (default: amazon.titan-embed-text-v2:0), the spec's C5
// collaborator (spec.md §2, §4.5, §6).
type BedrockEmbedding struct {
	client     *bedrockruntime.Client
	modelID    string
	dimensions int
}

// NewBedrockEmbedding loads the default AWS credential chain and region
// configuration (Design Note "Singletons for store access": constructed
// once at process startup, passed as an explicit handle).
func NewBedrockEmbedding(ctx context.Context, modelID string, dimensions int) (*BedrockEmbedding, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "loading AWS config for Bedrock")
	}
	return &BedrockEmbedding{
		client:     bedrockruntime.NewFromConfig(cfg),
		modelID:    modelID,
		dimensions: dimensions,
	}, nil
}

type titanEmbedRequest struct {
	InputText string `json:"inputText"`
}

type titanEmbedResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// Encode invokes the configured Bedrock model and returns the resulting
// vector.
func (b *BedrockEmbedding) Encode(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(titanEmbedRequest{InputText: text})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "marshaling Bedrock embedding request")
	}

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "Bedrock InvokeModel call failed")
	}

	var decoded titanEmbedResponse
	if err := json.NewDecoder(bytes.NewReader(out.Body)).Decode(&decoded); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeValidation, "Bedrock embedding response is not valid JSON")
	}
	if len(decoded.Embedding) != b.dimensions {
		return nil, apperrors.Newf(apperrors.ErrorTypeValidation,
			"Bedrock returned %d-dimensional vector, expected %d", len(decoded.Embedding), b.dimensions)
	}
	return decoded.Embedding, nil
}

// Dimensions returns the configured vector width.
func (b *BedrockEmbedding) Dimensions() int { return b.dimensions }

// ModelID returns the configured Bedrock model identifier.
func (b *BedrockEmbedding) ModelID() string { return b.modelID }
