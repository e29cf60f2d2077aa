package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hapkiduki/shipping-quote/internal/application/dto"
	"github.com/hapkiduki/shipping-quote/internal/application/service"
	"github.com/hapkiduki/shipping-quote/internal/domain/shipping"
	"github.com/hapkiduki/shipping-quote/internal/infrastructure/observability"
	"github.com/hapkiduki/shipping-quote/internal/infrastructure/persistance/memory"
	"github.com/hapkiduki/shipping-quote/internal/interfaces/http/middleware"
	"github.com/hapkiduki/shipping-quote/pkg/logger"
)

const validBody = `{
	"weight_kg": 2.5,
	"dimensions_cm": {"length": 30, "width": 20, "height": 15},
	"origin_postal_code": "10001",
	"destination_postal_code": "90210",
	"service_type": "standard"
}`

type stubQuotes struct {
	err error
}

func (s stubQuotes) Quote(context.Context, dto.QuoteRequest) (*dto.QuoteResponse, error) {
	return nil, s.err
}

func (s stubQuotes) Compare(context.Context, dto.QuoteRequest) (*dto.CompareResponse, error) {
	return nil, s.err
}

func (s stubQuotes) QuoteBatch(context.Context, []dto.QuoteRequest) (*dto.BatchResponse, error) {
	return nil, s.err
}

func newTestRouter(t *testing.T, mutate func(*RouterConfig)) (http.Handler, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	log := observability.NewLoggerAdapter(logger.Nop())
	svc := service.NewQuoteService(
		shipping.NewCalculator(),
		log,
		observability.NewPrometheusMetrics("shipquote", reg),
		observability.NewOtelTracer(noop.NewTracerProvider(), "handler-test"),
		service.Config{MaxBatchSize: 3, BatchConcurrency: 2},
	)
	cfg := RouterConfig{
		Quotes:             svc,
		Logger:             log,
		Version:            "test",
		StartTime:          time.Now(),
		RequestTimeout:     5 * time.Second,
		MaxRequestSize:     1 << 16,
		CORSAllowedOrigins: []string{"*"},
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		MetricsPath:        "/metrics",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewRouter(cfg), reg
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = "203.0.113.10:40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) dto.APIResponse[T] {
	t.Helper()
	var resp dto.APIResponse[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestCreateQuote(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/api/v1/quotes", validBody)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[dto.QuoteResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(1075), resp.Data.BaseRateCents)
	assert.Equal(t, int64(161), resp.Data.FuelSurchargeCents)
	assert.Equal(t, int64(1236), resp.Data.TotalCostCents)
	assert.Equal(t, 7, resp.Data.EstimatedDays)
	assert.NotEmpty(t, resp.Data.QuoteID)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, rec.Header().Get(middleware.RequestIDHeader), resp.Meta.RequestID)
	assert.Equal(t, "test", rec.Header().Get("X-API-Version"))
}

func TestCreateQuote_Errors(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
		field  string
	}{
		{
			name:   "invalid postal code",
			body:   strings.Replace(validBody, `"90210"`, `"9021"`, 1),
			status: http.StatusBadRequest,
			code:   dto.CodeValidationError,
			field:  "destination_postal_code",
		},
		{
			name:   "overweight",
			body:   strings.Replace(validBody, `2.5`, `50.5`, 1),
			status: http.StatusBadRequest,
			code:   dto.CodeValidationError,
			field:  "weight_kg",
		},
		{
			name:   "missing fields",
			body:   `{"weight_kg": 1}`,
			status: http.StatusBadRequest,
			code:   dto.CodeValidationError,
			field:  "dimensions_cm",
		},
		{
			name:   "malformed json",
			body:   `{"weight_kg": `,
			status: http.StatusBadRequest,
			code:   dto.CodeInvalidRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/quotes", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeBody[any](t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			if tt.field != "" {
				require.NotEmpty(t, resp.Error.ValidationErrors)
				assert.Equal(t, tt.field, resp.Error.ValidationErrors[0].Field)
			}
		})
	}
}

func TestAccessLogCarriesQuoteFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h, _ := newTestRouter(t, func(c *RouterConfig) {
		c.Logger = observability.NewLoggerAdapter(logger.NewWithCore(core))
	})

	rec := do(t, h, http.MethodPost, "/api/v1/quotes", validBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[dto.QuoteResponse](t, rec)

	entries := logs.FilterMessage("HTTP Request").TakeAll()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, resp.Data.QuoteID, fields["quote_id"])
	assert.Equal(t, "standard", fields["service_type"])
	assert.Equal(t, int64(1236), fields["total_cents"])
	assert.Equal(t, "203.0.113.10", fields["client_ip"])

	rec = do(t, h, http.MethodPost, "/api/v1/quotes", strings.Replace(validBody, "2.5", "51", 1))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	entries = logs.FilterMessage("HTTP Request").TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, dto.CodeValidationError, entries[0].ContextMap()["error_code"])
	assert.NotContains(t, entries[0].ContextMap(), "quote_id")
}

func TestCreateQuote_UnsupportedMediaType(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(validBody))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", decodeBody[any](t, rec).Error.Code)
}

func TestCreateQuote_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"distance unavailable", fmt.Errorf("%w: %w", shipping.ErrDistanceUnavailable, errors.New("down")), http.StatusServiceUnavailable, dto.CodeDistanceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable, "TIMEOUT"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, dto.CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestRouter(t, func(c *RouterConfig) { c.Quotes = stubQuotes{err: tt.err} })

			rec := do(t, h, http.MethodPost, "/api/v1/quotes", validBody)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeBody[any](t, rec).Error.Code)
		})
	}
}

func TestCompareQuotes(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/api/v1/quotes/compare", validBody)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[dto.CompareResponse](t, rec)
	require.Len(t, resp.Data.Quotes, 3)
	assert.Equal(t, "standard", resp.Data.Cheapest)
	assert.Equal(t, "overnight", resp.Data.Fastest)
	assert.Equal(t, int64(3709), resp.Data.Quotes[2].TotalCostCents)
}

func TestBatchQuotes(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	body := `{"requests": [` + validBody + `, {"weight_kg": -1}]}`
	rec := do(t, h, http.MethodPost, "/api/v1/quotes/batch", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[dto.BatchResponse](t, rec)
	assert.Equal(t, 1, resp.Data.Succeeded)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Results, 2)
	assert.NotNil(t, resp.Data.Results[0].Quote)
	assert.Equal(t, dto.CodeValidationError, resp.Data.Results[1].Error.Code)
}

func TestBatchQuotes_TooLarge(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	items := strings.Repeat(validBody+",", 3) + validBody
	rec := do(t, h, http.MethodPost, "/api/v1/quotes/batch", `{"requests": [`+items+`]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dto.CodeInvalidRequest, decodeBody[any](t, rec).Error.Code)
}

func TestRateLimitedAPI(t *testing.T) {
	h, _ := newTestRouter(t, func(c *RouterConfig) {
		c.RateLimitStore = memory.NewRateLimitStore(0.001, 1)
	})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/quotes", validBody).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodPost, "/api/v1/quotes", validBody).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestHealthAndReady(t *testing.T) {
	h, _ := newTestRouter(t, func(c *RouterConfig) {
		c.ReadinessChecks = map[string]ReadinessCheck{
			"rate_limit_store": func(context.Context) error { return errors.New("redis down") },
		}
	})

	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health dto.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, StatusHealthy, health.Status)
	assert.Equal(t, "test", health.Version)

	rec = do(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, StatusUnhealthy, health.Status)
	assert.Equal(t, "redis down", health.Checks["rate_limit_store"].Message)
}

func TestReady_NoChecks(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/ready", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/v1/quotes", validBody).Code)

	rec := do(t, h, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `shipquote_quotes_total{outcome="success",service="standard"} 1`)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody[any](t, rec).Error.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/quotes", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", decodeBody[any](t, rec).Error.Code)
}
