package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/render"

	"github.com/hapkiduki/shipping-quote/internal/application/dto"
)

// Health statuses.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	version   string
	startTime time.Time
	checks    map[string]ReadinessCheck
	timeout   time.Duration
}

// NewHealthHandler creates a new HealthHandler.
//
// Parameters:
//   - version: application version
//   - startTime: process start, used for uptime
//   - checks: named readiness checks, may be empty
//
// Returns:
//   - *HealthHandler: the handler
func NewHealthHandler(version string, startTime time.Time, checks map[string]ReadinessCheck) *HealthHandler {
	return &HealthHandler{
		version:   version,
		startTime: startTime,
		checks:    checks,
		timeout:   2 * time.Second,
	}
}

// Health handles GET /health. It never consults dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, dto.HealthResponse{
		Status:  StatusHealthy,
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Checks:  map[string]dto.HealthCheckResult{},
	})
}

// Ready handles GET /ready. It answers 503 if any check fails.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	resp := dto.HealthResponse{
		Status:  StatusHealthy,
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Checks:  make(map[string]dto.HealthCheckResult, len(names)),
	}
	for _, name := range names {
		start := time.Now()
		result := dto.HealthCheckResult{Status: StatusHealthy}
		if err := h.checks[name](ctx); err != nil {
			result.Status = StatusUnhealthy
			result.Message = err.Error()
			resp.Status = StatusUnhealthy
			status = http.StatusServiceUnavailable
		}
		result.ResponseTime = time.Since(start).Milliseconds()
		resp.Checks[name] = result
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}
