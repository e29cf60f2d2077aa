package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/hapkiduki/shipping-quote/internal/application/port"
	"github.com/hapkiduki/shipping-quote/internal/domain/repository"
	"github.com/hapkiduki/shipping-quote/internal/interfaces/http/middleware"
)

// RouterConfig contains everything needed to build the HTTP router.
type RouterConfig struct {
	// Quotes is the quote application service.
	Quotes QuoteUseCase

	// Logger is used by request logging and panic recovery.
	Logger port.Logger

	// Version is reported in headers, metadata and health responses.
	Version string

	// StartTime is used for uptime reporting.
	StartTime time.Time

	// RequestTimeout bounds each request. Zero disables the timeout.
	RequestTimeout time.Duration

	// MaxRequestSize caps request bodies in bytes.
	MaxRequestSize int64

	// CORSAllowedOrigins is a list of allowed origins for CORS.
	CORSAllowedOrigins []string

	// RateLimitStore limits API calls per client. Nil disables limiting.
	RateLimitStore repository.RateLimitStore

	// ReadinessChecks are run by GET /ready.
	ReadinessChecks map[string]ReadinessCheck

	// MetricsHandler is mounted at MetricsPath when set.
	MetricsHandler http.Handler
	MetricsPath    string
}

// NewRouter builds the chi router with the full middleware stack.
//
// Parameters:
//   - cfg: router configuration
//
// Returns:
//   - http.Handler: the root handler
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Order matters! Middleware is executed in the order added.

	// 1. Real IP extraction (for rate limiting and logging)
	r.Use(middleware.RealIP)

	// 2. Request ID generation/propagation
	r.Use(middleware.RequestID)

	// 3. Logging (after Request ID so it's included in logs)
	r.Use(middleware.Logger(cfg.Logger))

	// 4. Panic recovery
	r.Use(middleware.Recoverer(cfg.Logger))

	// 5. Request timeout
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	// 6. CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-API-Version"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 7. Security headers
	r.Use(middleware.SecureHeaders)

	// 8. API version header
	r.Use(middleware.APIVersion(cfg.Version))

	// Probes and scraping are never rate limited.
	health := NewHealthHandler(cfg.Version, cfg.StartTime, cfg.ReadinessChecks)
	r.Get("/health", health.Health)
	r.Get("/ready", health.Ready)
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, cfg.MetricsHandler)
	}

	quotes := NewQuoteHandler(cfg.Quotes, cfg.Logger, cfg.Version, cfg.MaxRequestSize)
	r.Route("/api/v1", func(api chi.Router) {
		if cfg.RateLimitStore != nil {
			api.Use(middleware.RateLimiter(middleware.RateLimiterConfig{
				Store:  cfg.RateLimitStore,
				Logger: cfg.Logger,
			}))
		}
		api.Use(middleware.ContentTypeJSON)
		api.Mount("/quotes", quotes.Routes())
	})

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	return r
}
