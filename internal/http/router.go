package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"docval/internal/platform/metrics"
	"docval/internal/platform/middleware"
	"docval/pkg/platform/httputil"
	"docval/pkg/platform/middleware/metadata"
	"docval/pkg/platform/middleware/requesttime"
)

// APIHandler is a module handler mounted under /api/v1.
type APIHandler interface {
	Register(r chi.Router)
}

// HealthCheck probes one backing dependency for /ready.
type HealthCheck func(ctx context.Context) error

// Deps holds everything the router mounts.
type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Handlers []APIHandler
	// APIMiddleware wraps only the /api/v1 routes.
	APIMiddleware []func(http.Handler) http.Handler
	Checks        map[string]HealthCheck
}

// NewRouter wires the middleware chain, the operational endpoints and the
// versioned API.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.AccessLog(deps.Logger, deps.Metrics))
	r.Use(middleware.Recover(deps.Logger))

	r.Get("/health", handleHealth)
	r.Get("/ready", handleReady(deps.Checks))
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(deps.APIMiddleware...)
		for _, h := range deps.Handlers {
			h.Register(api)
		}
	})
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func handleReady(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := readyResponse{Status: "ok", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
