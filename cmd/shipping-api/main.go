// Package main is the entry point for the shipping quote HTTP service.
//
// 12-Factor App compliance:
//   - III. Config: Configuration via environment variables
//   - VI. Processes: Stateless processes (rate limits can live in Redis)
//   - VII. Port Binding: Self-contained HTTP server
//   - IX. Disposability: Graceful shutdown
//   - XI. Logs: Structured logging to stdout
//
// Usage:
//
//	go run ./cmd/shipping-api
//
// Environment Variables:
//
//	SQS_ENVIRONMENT         - Deployment environment (development, staging, production)
//	SQS_SERVER_PORT         - HTTP server port (default: 8080)
//	SQS_RATE_LIMIT_BACKEND  - memory or redis (default: memory)
//	SQS_REDIS_ADDR          - Redis address for the redis backend
//	SQS_TRACING_ENABLED     - Enable OpenTelemetry tracing
//	SQS_TRACING_JAEGER_ENDPOINT - Jaeger collector URL
package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/hapkiduki/shipping-quote/internal/application/service"
	"github.com/hapkiduki/shipping-quote/internal/domain/repository"
	"github.com/hapkiduki/shipping-quote/internal/domain/shipping"
	"github.com/hapkiduki/shipping-quote/internal/infrastructure/config"
	"github.com/hapkiduki/shipping-quote/internal/infrastructure/observability"
	"github.com/hapkiduki/shipping-quote/internal/infrastructure/persistance/memory"
	"github.com/hapkiduki/shipping-quote/internal/infrastructure/persistance/redis"
	"github.com/hapkiduki/shipping-quote/internal/interfaces/http/handler"
	"github.com/hapkiduki/shipping-quote/pkg/logger"
)

// version is set at build time via ldflags
var version = "dev"

// startTime tracks when the server started for uptime calculations
var startTime = time.Now()

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger
	log := logger.MustNew(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.App.Environment == "development",
	})
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Shipping quote service failed", "error", err)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	log.Info("Starting Shipping Quote Service",
		"version", version,
		"environment", cfg.App.Environment,
	)

	// Create context that listens for shutdowns signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logAdapter := observability.NewLoggerAdapter(log)

	// ============================================================================
	// Observability
	// ============================================================================

	var provider trace.TracerProvider = noop.NewTracerProvider()
	if cfg.Tracing.Enabled {
		tp, err := observability.NewTracerProvider(observability.TracingConfig{
			ServiceName:    cfg.App.Name,
			JaegerEndpoint: cfg.Tracing.JaegerEndpoint,
			SampleRatio:    cfg.Tracing.SampleRatio,
		})
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Error("Tracer provider shutdown failed", "error", err)
			}
		}()
		provider = tp
		log.Info("Tracing enabled", "jaeger_endpoint", cfg.Tracing.JaegerEndpoint)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewPrometheusMetrics(cfg.Metrics.Namespace, registry)

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	}

	// ============================================================================
	// Rate limiting
	// ============================================================================

	store, checks, closeStore, err := newRateLimitStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// ============================================================================
	// Application
	// ============================================================================

	quotes := service.NewQuoteService(
		shipping.NewCalculator(),
		observability.NewLoggerAdapter(log.Named("quote_service")),
		metrics,
		observability.NewOtelTracer(provider, "github.com/hapkiduki/shipping-quote"),
		service.Config{
			MaxBatchSize:     cfg.Quote.MaxBatchSize,
			BatchConcurrency: cfg.Quote.BatchConcurrency,
		},
	)

	router := handler.NewRouter(handler.RouterConfig{
		Quotes:             quotes,
		Logger:             logAdapter,
		Version:            version,
		StartTime:          startTime,
		RequestTimeout:     cfg.Server.RequestTimeout,
		MaxRequestSize:     cfg.Server.MaxRequestSize,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		RateLimitStore:     store,
		ReadinessChecks:    checks,
		MetricsHandler:     metricsHandler,
		MetricsPath:        cfg.Metrics.Path,
	})

	// ============================================================================
	// HTTP server
	// ============================================================================

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	log.Info("Server shutdown complete")
	return nil
}

// newRateLimitStore builds the configured rate limit backend along with its
// readiness checks and a close function.
func newRateLimitStore(ctx context.Context, cfg *config.Config) (repository.RateLimitStore, map[string]handler.ReadinessCheck, func(), error) {
	noClose := func() {}
	if !cfg.RateLimit.Enabled {
		return nil, nil, noClose, nil
	}

	switch cfg.RateLimit.Backend {
	case config.RateLimitBackendRedis:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Redis.DialTimeout)
		defer cancel()

		client, err := redis.Connect(connectCtx, redis.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			return nil, nil, noClose, err
		}

		// A fixed one-second window admits the sustained rate plus the burst.
		limit := int64(math.Ceil(cfg.RateLimit.RequestsPerSecond)) + int64(cfg.RateLimit.Burst)
		checks := map[string]handler.ReadinessCheck{
			"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}
		return redis.NewRateLimitStore(client, limit, time.Second), checks, func() { _ = client.Close() }, nil

	default:
		return memory.NewRateLimitStore(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst), nil, noClose, nil
	}
}
