// Package app assembles the validation service from configuration. The
// server and the CLI both start here.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"docval/internal/extraction"
	"docval/internal/extraction/cache"
	httpapi "docval/internal/http"
	"docval/internal/llm"
	llmmetrics "docval/internal/llm/metrics"
	"docval/internal/platform/config"
	"docval/internal/platform/httpserver"
	platformmetrics "docval/internal/platform/metrics"
	"docval/internal/platform/redis"
	ratelimitmetrics "docval/internal/ratelimit/metrics"
	ratelimit "docval/internal/ratelimit/middleware"
	"docval/internal/ratelimit/store/bucket"
	"docval/internal/validation"
	"docval/internal/validation/adapters"
	"docval/internal/validation/handler"
	validationmetrics "docval/internal/validation/metrics"
	"docval/internal/validation/store"
	"docval/pkg/platform/circuit"
)

// App owns the wired service and the resources it must release.
type App struct {
	Service  *validation.Service
	Router   http.Handler
	cfg      config.Config
	logger   *slog.Logger
	memCache *cache.InMemoryCache
	buckets  *bucket.InMemoryBucketStore
	closers  []func() error
}

// New wires every collaborator. Postgres and Redis are used only when their
// URLs are configured.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, reg *prometheus.Registry) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := extraction.CheckAvailable(cfg.PDF.Binary); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger}
	checks := map[string]httpapi.HealthCheck{}

	breaker := circuit.New("openrouter",
		circuit.WithFailureThreshold(cfg.Circuit.FailureThreshold),
		circuit.WithSuccessThreshold(cfg.Circuit.SuccessThreshold),
		circuit.WithCooldown(cfg.Circuit.Cooldown),
	)
	client := llm.New(llm.Config{
		BaseURL:           cfg.LLM.BaseURL,
		APIKey:            cfg.LLM.APIKey,
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		Burst:             cfg.LLM.Burst,
	},
		llm.WithLogger(logger),
		llm.WithMetrics(llmmetrics.NewWithRegistry(reg)),
		llm.WithBreaker(breaker),
	)

	extractionCache, err := a.buildCache(ctx, checks)
	if err != nil {
		a.Close()
		return nil, err
	}
	runs, err := a.buildStore(ctx, checks)
	if err != nil {
		a.Close()
		return nil, err
	}

	svc, err := validation.NewService(
		extraction.NewPDFTextExtractor(cfg.PDF.Binary, extraction.WithPDFLogger(logger)),
		extraction.NewStructuredExtractor(client,
			extraction.WithCache(extractionCache),
			extraction.WithModel(cfg.LLM.Model),
			extraction.WithLogger(logger),
		),
		adapters.NewLLMPurposeJudge(client),
		runs,
		validation.WithLogger(logger),
		validation.WithMetrics(validationmetrics.NewWithRegistry(reg)),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Service = svc

	a.buckets = bucket.NewInMemoryBucketStore()
	limiter := ratelimit.New(a.buckets, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger,
		ratelimit.WithMetrics(ratelimitmetrics.NewWithRegistry(reg)),
	)

	a.Router = httpapi.NewRouter(httpapi.Deps{
		Logger:        logger,
		Metrics:       platformmetrics.NewWithRegistry(reg),
		Gatherer:      reg,
		Handlers:      []httpapi.APIHandler{handler.New(svc, logger, cfg.Server.MaxUploadBytes)},
		APIMiddleware: []func(http.Handler) http.Handler{limiter.RateLimit},
		Checks:        checks,
	})
	return a, nil
}

func (a *App) buildCache(ctx context.Context, checks map[string]httpapi.HealthCheck) (extraction.Cache, error) {
	client, err := redis.New(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		a.memCache = cache.NewInMemoryCache(a.cfg.Cache.TTL)
		return a.memCache, nil
	}
	a.closers = append(a.closers, client.Close)
	checks["redis"] = client.Health
	a.logger.InfoContext(ctx, "extraction cache backed by redis")
	return cache.NewRedisCache(client.Client, a.cfg.Cache.TTL), nil
}

func (a *App) buildStore(ctx context.Context, checks map[string]httpapi.HealthCheck) (validation.Store, error) {
	if a.cfg.Database.URL == "" {
		return store.NewInMemory(), nil
	}
	db, err := sql.Open("postgres", a.cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	pg := store.NewPostgres(db)
	if err := pg.Migrate(ctx); err != nil {
		return nil, err
	}
	checks["postgres"] = db.PingContext
	a.logger.InfoContext(ctx, "validation history backed by postgres")
	return pg, nil
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := httpserver.New(a.cfg.Server.Addr, a.Router)

	go a.sweep(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.InfoContext(ctx, "starting docval", "addr", a.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}

// sweep periodically drops expired in-memory cache entries and idle rate
// limit windows.
func (a *App) sweep(ctx context.Context) {
	interval := max(min(a.cfg.Cache.TTL, a.cfg.RateLimit.Window), time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.memCache != nil {
				if n := a.memCache.Purge(); n > 0 {
					a.logger.DebugContext(ctx, "purged extraction cache", "removed", n)
				}
			}
			a.buckets.Sweep()
		}
	}
}

// Close releases database and cache connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", "error", err)
		}
	}
	a.closers = nil
}
