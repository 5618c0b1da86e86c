package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/enliterator/enliterator/internal/config"
	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
)

// HTTPRights implements RightsService against a REST endpoint, the fallback
// provider for deployments that front their Rights Service with a plain HTTP
// API rather than an LLM SDK. Every response is checked against the OpenAPI
// contract in contract.go before being trusted (spec.md §6: "non-retriable
// if schema validation fails").
type HTTPRights struct {
	client   *http.Client
	endpoint string
}

// NewHTTPRights builds an HTTP Rights provider from a service config,
// wiring OAuth2 client-credentials transport when configured.
func NewHTTPRights(cfg config.ServiceConfig) *HTTPRights {
	return &HTTPRights{client: NewHTTPClient(cfg), endpoint: cfg.Endpoint}
}

// Infer posts the item's content sample and parses the service's response.
func (h *HTTPRights) Infer(ctx context.Context, item *model.IngestItem) (RightsResult, error) {
	reqBody, err := json.Marshal(map[string]string{"content_sample": item.ContentSample, "mime_type": item.MIMEType})
	if err != nil {
		return RightsResult{}, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "marshaling rights request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return RightsResult{}, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "building rights request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return RightsResult{}, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "rights service call failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RightsResult{}, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "reading rights response body")
	}
	if resp.StatusCode >= 500 {
		return RightsResult{}, apperrors.Newf(apperrors.ErrorTypeNetwork, "rights service returned %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return RightsResult{}, apperrors.Newf(apperrors.ErrorTypeAuth, "rights service returned %d", resp.StatusCode)
	}

	if err := ValidateRightsResponse(ctx, body); err != nil {
		return RightsResult{}, err
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
	if err := json.Unmarshal(body, &decoded); err != nil {
		return RightsResult{}, fmt.Errorf("unreachable after contract validation: %w", err)
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
