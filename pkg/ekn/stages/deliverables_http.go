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

// HTTPDeliverableBuilder implements DeliverableBuilder against a REST
// endpoint, the default provider for a deployment that fronts its
// deliverable packaging with a plain HTTP API (spec.md §1 Non-goals: this
// module never interprets what that service builds, only which refs it is
// allowed to see).
type HTTPDeliverableBuilder struct {
	client   *http.Client
	endpoint string
}

// NewHTTPDeliverableBuilder builds an HTTP deliverable builder client from a
// service config, reusing services.NewHTTPClient for the same OAuth2
// client-credentials transport every other black-box service uses.
func NewHTTPDeliverableBuilder(cfg config.ServiceConfig) *HTTPDeliverableBuilder {
	return &HTTPDeliverableBuilder{client: services.NewHTTPClient(cfg), endpoint: cfg.Endpoint}
}

// Build posts the publish-eligible refs and returns the service's response
// body, decoded as an opaque summary map.
func (h *HTTPDeliverableBuilder) Build(ctx context.Context, batchID int64, publishable []model.Ref) (DeliverableSummary, error) {
	reqBody, err := json.Marshal(map[string]any{"batch_id": batchID, "publishable": publishable})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "marshaling deliverable build request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeInternal, "building deliverable build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "deliverable builder call failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeNetwork, "reading deliverable builder response body")
	}
	if resp.StatusCode >= 500 {
		return nil, apperrors.Newf(apperrors.ErrorTypeNetwork, "deliverable builder returned %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, apperrors.Newf(apperrors.ErrorTypeAuth, "deliverable builder returned %d", resp.StatusCode)
	}

	summary := DeliverableSummary{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &summary); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrorTypeValidation, "decoding deliverable builder response")
		}
	}
	return summary, nil
}
