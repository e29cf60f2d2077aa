package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hapkiduki/shipping-quote/internal/domain/repository"
	"github.com/hapkiduki/shipping-quote/internal/infrastructure/observability"
	"github.com/hapkiduki/shipping-quote/internal/infrastructure/persistance/memory"
	"github.com/hapkiduki/shipping-quote/pkg/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

type failingStore struct {
	err error
}

func (s failingStore) Allow(context.Context, string) (bool, error) {
	return false, s.err
}

var errStoreDown = fmt.Errorf("%w: dial tcp: connection refused", repository.ErrConnectionFailed)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "upstream-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "upstream-1", seen)
		assert.Equal(t, "upstream-1", rec.Header().Get(RequestIDHeader))
	})
}

func TestRateLimiter(t *testing.T) {
	h := RateLimiter(RateLimiterConfig{Store: memory.NewRateLimitStore(1, 2)})(okHandler)

	codes := make([]int, 0, 3)
	for n := 0; n < 3; n++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.1:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := RateLimiter(RateLimiterConfig{
		Store:  failingStore{err: errStoreDown},
		Logger: observability.NewLoggerAdapter(logger.NewWithCore(core)),
	})(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, logs.FilterMessage("Rate limit store unavailable, allowing request").Len())
}

func TestRateLimiter_StoreErrors(t *testing.T) {
	tests := []struct {
		name  string
		store repository.RateLimitStore
		key   func(*http.Request) string
		want  int
		code  string
	}{
		{
			name:  "unidentifiable client",
			store: memory.NewRateLimitStore(10, 10),
			key:   func(*http.Request) string { return "" },
			want:  http.StatusBadRequest,
			code:  "INVALID_REQUEST",
		},
		{
			name:  "unexpected store failure",
			store: failingStore{err: errors.New("script returned garbage")},
			want:  http.StatusInternalServerError,
			code:  "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			h := RequestID(RateLimiter(RateLimiterConfig{
				Store:   tt.store,
				KeyFunc: tt.key,
				Logger:  observability.NewLoggerAdapter(logger.NewWithCore(core)),
			})(okHandler))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
			assert.Contains(t, rec.Body.String(), rec.Header().Get(RequestIDHeader))
			assert.Zero(t, logs.FilterMessage("Rate limit store unavailable, allowing request").Len())
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.4:1234"
	assert.Equal(t, "192.0.2.4", ClientIP(req))

	req.RemoteAddr = "192.0.2.4"
	assert.Equal(t, "192.0.2.4", ClientIP(req))
}

func TestRealIP(t *testing.T) {
	var remote string
	h := RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remote = r.RemoteAddr
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "203.0.113.7", remote)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "203.0.113.8")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "203.0.113.8", remote)
}

func TestRecoverer(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	h := Recoverer(observability.NewLoggerAdapter(logger.NewWithCore(core)))(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())

	abort := Recoverer(observability.NewLoggerAdapter(logger.NewWithCore(core)))(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) }),
	)
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		abort.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestContentTypeJSON(t *testing.T) {
	h := ContentTypeJSON(okHandler)

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{"json post", http.MethodPost, "application/json", http.StatusOK},
		{"json with charset", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"form post", http.MethodPost, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"missing", http.MethodPost, "", http.StatusUnsupportedMediaType},
		{"get", http.MethodGet, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestTimeout(t *testing.T) {
	h := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "TIMEOUT")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := RequestID(Logger(observability.NewLoggerAdapter(logger.NewWithCore(core)))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}),
	))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/quotes", nil))

	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusCreated), fields["status"])
	assert.Equal(t, "/api/v1/quotes", fields["path"])
	assert.NotEmpty(t, fields["request_id"])
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestLogger_HandlerFieldsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	mw := Logger(observability.NewLoggerAdapter(logger.NewWithCore(core)))

	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusBadRequest, zapcore.WarnLevel},
		{http.StatusServiceUnavailable, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			AddLogFields(r.Context(), "quote_id", "q-123", "service_type", "express")
			w.WriteHeader(tt.status)
		}))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", nil)
		req.RemoteAddr = "192.0.2.4:1234"
		h.ServeHTTP(httptest.NewRecorder(), req)

		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.Equal(t, tt.level, entries[0].Level, "status=%d", tt.status)
		fields := entries[0].ContextMap()
		assert.Equal(t, "q-123", fields["quote_id"])
		assert.Equal(t, "express", fields["service_type"])
		assert.Equal(t, "192.0.2.4", fields["client_ip"])
	}

	// Outside the middleware the fields have nowhere to go.
	assert.NotPanics(t, func() { AddLogFields(context.Background(), "quote_id", "q-1") })
}

func TestSecureHeadersAndVersion(t *testing.T) {
	rec := httptest.NewRecorder()
	SecureHeaders(APIVersion("1.2.3")(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "1.2.3", rec.Header().Get("X-API-Version"))
}
