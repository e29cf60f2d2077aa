package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/hapkiduki/shipping-quote/internal/application/dto"
	"github.com/hapkiduki/shipping-quote/internal/application/port"
	"github.com/hapkiduki/shipping-quote/internal/interfaces/http/middleware"
)

// QuoteUseCase is the application service behind the quote endpoints.
type QuoteUseCase interface {
	Quote(ctx context.Context, req dto.QuoteRequest) (*dto.QuoteResponse, error)
	Compare(ctx context.Context, req dto.QuoteRequest) (*dto.CompareResponse, error)
	QuoteBatch(ctx context.Context, reqs []dto.QuoteRequest) (*dto.BatchResponse, error)
}

// QuoteHandler serves the /quotes endpoints.
type QuoteHandler struct {
	quotes         QuoteUseCase
	logger         port.Logger
	version        string
	maxRequestSize int64
}

// NewQuoteHandler creates a new QuoteHandler.
//
// Parameters:
//   - quotes: the quote service
//   - logger: structured logger
//   - version: API version reported in response metadata
//   - maxRequestSize: maximum accepted body size in bytes
//
// Returns:
//   - *QuoteHandler: the handler
func NewQuoteHandler(quotes QuoteUseCase, logger port.Logger, version string, maxRequestSize int64) *QuoteHandler {
	if maxRequestSize <= 0 {
		maxRequestSize = 1 << 20
	}
	return &QuoteHandler{
		quotes:         quotes,
		logger:         logger,
		version:        version,
		maxRequestSize: maxRequestSize,
	}
}

// Routes mounts the quote endpoints on a new router.
func (h *QuoteHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Post("/compare", h.Compare)
	r.Post("/batch", h.Batch)
	return r
}

// Create handles POST /api/v1/quotes.
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.QuoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.quotes.Quote(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.AddLogFields(r.Context(),
		"quote_id", resp.QuoteID,
		"service_type", resp.ServiceType,
		"total_cents", resp.TotalCostCents,
	)
	respond(w, r, http.StatusOK, h.version, resp)
}

// Compare handles POST /api/v1/quotes/compare.
func (h *QuoteHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req dto.QuoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.quotes.Compare(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.AddLogFields(r.Context(), "cheapest", resp.Cheapest, "fastest", resp.Fastest)
	respond(w, r, http.StatusOK, h.version, resp)
}

// Batch handles POST /api/v1/quotes/batch.
// Item failures are reported inside a 200 response.
func (h *QuoteHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchRequest
	if !h.decode(w, r, &req) {
		return
	}

	resp, err := h.quotes.QuoteBatch(r.Context(), req.Requests)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.AddLogFields(r.Context(),
		"batch_size", len(resp.Results),
		"succeeded", resp.Succeeded,
		"failed", resp.Failed,
	)
	respond(w, r, http.StatusOK, h.version, resp)
}

func (h *QuoteHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestSize)
	if err := render.DecodeJSON(r.Body, v); err != nil {
		h.logger.WithContext(r.Context()).Debug("Malformed request body", "error", err)
		middleware.AddLogFields(r.Context(), "error_code", errMalformedBody.Code)
		respondError(w, r, http.StatusBadRequest, h.version, errMalformedBody)
		return false
	}
	return true
}

func (h *QuoteHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := statusFor(err)
	middleware.AddLogFields(r.Context(), "error_code", apiErr.Code)
	if status >= http.StatusInternalServerError {
		h.logger.WithContext(r.Context()).Error("Quote request failed",
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	respondError(w, r, status, h.version, apiErr)
}
