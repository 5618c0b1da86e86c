package main

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/enliterator/enliterator/internal/config"
	"github.com/enliterator/enliterator/pkg/ekn/observability"
)

// shutdownTimeout bounds how long a graceful HTTP server shutdown waits for
// in-flight requests before main returns anyway.
const shutdownTimeout = 10 * time.Second

// startObservabilityServers binds one observability.Server per distinct
// configured port: HealthPort and MetricsPort are usually the same address
// serving both /healthz and /metrics, but a deployment that separates them
// (e.g. a metrics scraper on an internal-only port) gets two listeners
// rather than silently dropping one.
func startObservabilityServers(cfg config.ServerConfig, log logr.Logger) []*observability.Server {
	ports := []string{cfg.HealthPort}
	if cfg.MetricsPort != cfg.HealthPort {
		ports = append(ports, cfg.MetricsPort)
	}

	servers := make([]*observability.Server, 0, len(ports))
	for _, port := range ports {
		if port == "" {
			continue
		}
		srv := observability.NewServer(port, log)
		srv.StartAsync()
		servers = append(servers, srv)
	}
	return servers
}

func stopObservabilityServers(servers []*observability.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		_ = srv.Stop(ctx)
	}
}
