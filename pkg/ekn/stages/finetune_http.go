package stages

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/enliterator/enliterator/internal/config"
	apperrors "github.com/enliterator/enliterator/internal/errors"
	"github.com/enliterator/enliterator/pkg/ekn/model"
	"github.com/enliterator/enliterator/pkg/ekn/services"
)

// HTTPFineTuneDatasetBuilder implements FineTuneDatasetBuilder against a
// REST endpoint, the default provider for a deployment that fronts its
// fine-tune dataset construction with a plain HTTP API (spec.md §1
// Non-goals: this module never interprets what that service builds, only
// which refs it is allowed to train on).
type HTTPFineTuneDatasetBuilder struct {
	client   *http.Client
	endpoint string
}

// NewHTTPFineTuneDatasetBuilder builds an HTTP fine-tune dataset builder
// client from a service config.
func NewHTTPFineTuneDatasetBuilder(cfg config.ServiceConfig) *HTTPFineTuneDatasetBuilder {
	return &HTTPFineTuneDatasetBuilder{client: services.NewHTTPClient(cfg), endpoint: cfg.Endpoint}
}

// Build posts the training-eligible refs and returns the service's response
// body, decoded as an opaque summary map.
func (h *HTTPFineTuneDatasetBuilder) Build(ctx context.Context, batchID int64, trainingEligible []model.Ref) (FineTuneDatasetSummary, error) {
	reqBody, err := json.Marshal(map[string]any{"batch_id": batchID, "training_eligible": trainingEligible})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "marshaling fine-tune dataset build request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "building fine-tune dataset build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "fine-tune dataset builder call failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "reading fine-tune dataset builder response body")
	}
	if resp.StatusCode >= 500 {
		return nil, apperrors.Newf(apperrors.ErrorTypeNetwork, "fine-tune dataset builder returned %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, apperrors.Newf(apperrors.ErrorTypeAuth, "fine-tune dataset builder returned %d", resp.StatusCode)
	}

	summary := FineTuneDatasetSummary{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &summary); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrorTypeValidation, "decoding fine-tune dataset builder response")
		}
	}
	return summary, nil
}
