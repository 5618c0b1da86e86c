package services

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/enliterator/enliterator/internal/config"
)

// NewHTTPClient builds an OAuth2 client-credentials HTTP client for the
// "http" provider variant of a ServiceConfig (spec.md §6 names only the
// call contracts, not transport; an HTTP+OAuth2 provider is the fallback
// used when a dedicated SDK provider is not configured for a deployment).
// Returns a plain http.Client with the configured Timeout when no OAuth
// token URL is set, so a service reachable without auth still works.
func NewHTTPClient(cfg config.ServiceConfig) *http.Client {
	if cfg.OAuthTokenURL == "" {
		return &http.Client{Timeout: cfg.Timeout}
	}
	ccCfg := clientcredentials.Config{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		TokenURL:     cfg.OAuthTokenURL,
	}
	client := ccCfg.Client(context.Background())
	client.Timeout = cfg.Timeout
	return client
}

// DefaultDeadline mirrors spec.md §5's per-call-kind default timeouts when a
// ServiceConfig leaves Timeout unset.
func DefaultDeadline(kind string) time.Duration {
	switch kind {
	case "embedding":
		return 60 * time.Second
	case "provision":
		return 30 * time.Second
	default:
		return 30 * time.Second
	}
}
