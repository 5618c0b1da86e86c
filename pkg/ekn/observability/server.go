package observability

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the /healthz liveness probe and the /metrics Prometheus
// scrape endpoint on a single listener.
type Server struct {
	server *http.Server
	log    logr.Logger
}

// NewServer builds a Server bound to addr, a bare port number (e.g. the
// "8080" internal/config.ServerConfig.HealthPort carries) or a full
// "host:port" address.
func NewServer(addr string, log logr.Logger) *Server {
	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	router.Handle("/metrics", promhttp.Handler())

	if len(addr) > 0 && !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &Server{
		server: &http.Server{Addr: addr, Handler: router},
		log:    log,
	}
}

// StartAsync starts the listener in a background goroutine. Bind errors
// other than a graceful Shutdown are logged, not returned, since the caller
// runs this alongside the pipeline controller loop and has no synchronous
// point to surface a late bind failure to.
func (s *Server) StartAsync() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(err, "observability server stopped", "addr", s.server.Addr)
		}
	}()
}

// Stop gracefully shuts the server down, waiting for in-flight scrapes to
// finish or ctx to expire.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
