// Package service contains the application services that orchestrate the
// shipping domain. Services accept and return DTOs, and record logs, metrics
// and traces through the port interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hapkiduki/shipping-quote/internal/application/dto"
	"github.com/hapkiduki/shipping-quote/internal/application/port"
	"github.com/hapkiduki/shipping-quote/internal/domain/shipping"
	"github.com/hapkiduki/shipping-quote/internal/domain/valueobject"
	"github.com/hapkiduki/shipping-quote/pkg/logger"
)

// Batch errors.
var (
	ErrEmptyBatch    = errors.New("batch contains no requests")
	ErrBatchTooLarge = errors.New("batch exceeds the maximum size")
)

// Metric names.
const (
	metricQuotesTotal   = "quotes_total"
	metricQuoteCents    = "quote_total_cents"
	metricQuoteDuration = "quote_duration"
	metricBatchSize     = "quote_batch_size"
)

// Pricer prices a validated shipping request.
// *shipping.Calculator satisfies it.
type Pricer interface {
	Calculate(ctx context.Context, req shipping.ShippingRequest) (shipping.ShippingQuote, error)
}

// Config contains quote service limits.
type Config struct {
	// MaxBatchSize caps the number of requests in one batch.
	MaxBatchSize int

	// BatchConcurrency caps parallel calculations within a batch.
	BatchConcurrency int
}

// DefaultConfig returns the default quote service limits.
func DefaultConfig() Config {
	return Config{
		MaxBatchSize:     100,
		BatchConcurrency: 8,
	}
}

// QuoteService quotes shipments for the HTTP and CLI interfaces.
type QuoteService struct {
	pricer  Pricer
	logger  port.Logger
	metrics port.Metrics
	tracer  port.Tracer
	cfg     Config
	newID   func() string
}

// NewQuoteService creates a new QuoteService.
//
// Parameters:
//   - pricer: the pricing engine
//   - logger: structured logger
//   - metrics: metrics sink
//   - tracer: span factory
//   - cfg: batch limits; non-positive values fall back to DefaultConfig
//
// Returns:
//   - *QuoteService: ready to use service
func NewQuoteService(pricer Pricer, logger port.Logger, metrics port.Metrics, tracer port.Tracer, cfg Config) *QuoteService {
	def := DefaultConfig()
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = def.MaxBatchSize
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = def.BatchConcurrency
	}
	return &QuoteService{
		pricer:  pricer,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		cfg:     cfg,
		newID:   uuid.NewString,
	}
}

// Quote prices a single request.
//
// Parameters:
//   - ctx: request context
//   - req: the wire request
//
// Returns:
//   - *dto.QuoteResponse: the priced quote
//   - error: *dto.MissingFieldsError, *shipping.ValidationError, or an error
//     wrapping shipping.ErrDistanceUnavailable
func (s *QuoteService) Quote(ctx context.Context, req dto.QuoteRequest) (*dto.QuoteResponse, error) {
	ctx, span := s.tracer.StartSpan(ctx, "QuoteService.Quote")
	defer span.End()

	domainReq, err := req.ToDomain()
	if err != nil {
		s.recordRejection(ctx, span, err)
		return nil, err
	}

	resp, err := s.price(ctx, span, domainReq)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Compare prices the same shipment at every service type, cheapest first.
// The request's service type, if any, is ignored.
//
// Parameters:
//   - ctx: request context
//   - req: the wire request
//
// Returns:
//   - *dto.CompareResponse: one quote per service type
//   - error: the first failure; no partial comparison is returned
func (s *QuoteService) Compare(ctx context.Context, req dto.QuoteRequest) (*dto.CompareResponse, error) {
	ctx, span := s.tracer.StartSpan(ctx, "QuoteService.Compare")
	defer span.End()

	req.ServiceType = nil
	domainReq, err := req.WithDefaultService(valueobject.ServiceStandard).ToDomain()
	if err != nil {
		s.recordRejection(ctx, span, err)
		return nil, err
	}

	services := valueobject.ServiceTypes()
	quotes := make([]dto.QuoteResponse, 0, len(services))
	for _, service := range services {
		resp, err := s.price(ctx, span, domainReq.WithService(service))
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, resp)
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].TotalCostCents < quotes[j].TotalCostCents
	})

	fastest := quotes[0]
	for _, q := range quotes[1:] {
		if q.EstimatedDays < fastest.EstimatedDays {
			fastest = q
		}
	}

	return &dto.CompareResponse{
		Quotes:   quotes,
		Cheapest: quotes[0].ServiceType,
		Fastest:  fastest.ServiceType,
	}, nil
}

// QuoteBatch prices many requests concurrently. Results keep the order of
// reqs and each item carries either a quote or an error.
//
// Parameters:
//   - ctx: request context
//   - reqs: the wire requests
//
// Returns:
//   - *dto.BatchResponse: per-item results
//   - error: ErrEmptyBatch, ErrBatchTooLarge, or the context error if ctx ends
func (s *QuoteService) QuoteBatch(ctx context.Context, reqs []dto.QuoteRequest) (*dto.BatchResponse, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(reqs) > s.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d requests, limit %d", ErrBatchTooLarge, len(reqs), s.cfg.MaxBatchSize)
	}

	ctx, span := s.tracer.StartSpan(ctx, "QuoteService.QuoteBatch")
	defer span.End()
	span.SetAttribute("batch.size", len(reqs))
	s.metrics.Histogram(metricBatchSize, float64(len(reqs)), nil)

	results := make([]dto.BatchItemResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchConcurrency)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			results[i].Index = i
			resp, err := s.Quote(gctx, req)
			if err != nil {
				results[i].Error = dto.NewAPIError(err)
				return nil
			}
			results[i].Quote = resp
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.SetError(err)
		return nil, err
	}

	out := &dto.BatchResponse{Results: results}
	for _, r := range results {
		if r.Error != nil {
			out.Failed++
		} else {
			out.Succeeded++
		}
	}

	span.SetAttribute("batch.failed", out.Failed)
	s.logger.WithContext(ctx).Info("Batch quoted",
		"size", len(reqs),
		"succeeded", out.Succeeded,
		"failed", out.Failed,
	)
	return out, nil
}

func (s *QuoteService) price(ctx context.Context, span port.Span, req shipping.ShippingRequest) (dto.QuoteResponse, error) {
	quoteID := s.newID()
	ctx = logger.ContextWithQuoteID(ctx, quoteID)
	log := s.logger.WithContext(ctx)
	tags := map[string]string{"service": req.Service.String()}

	start := time.Now()
	q, err := s.pricer.Calculate(ctx, req)
	s.metrics.Timing(metricQuoteDuration, time.Since(start), tags)

	if err != nil {
		tags["outcome"] = outcome(err)
		s.metrics.Counter(metricQuotesTotal, 1, tags)
		span.SetError(err)
		if shipping.IsValidationError(err) {
			log.Info("Quote rejected", "error", err)
		} else {
			log.Warn("Quote failed", "error", err)
		}
		return dto.QuoteResponse{}, err
	}

	tags["outcome"] = "success"
	s.metrics.Counter(metricQuotesTotal, 1, tags)
	s.metrics.Histogram(metricQuoteCents, float64(q.TotalCost.Amount), map[string]string{"service": req.Service.String()})

	span.AddEvent("quote.priced", map[string]interface{}{
		"quote.id":          quoteID,
		"quote.service":     req.Service.String(),
		"quote.total_cents": q.TotalCost.Amount,
	})
	log.Info("Quote computed",
		"service", req.Service.String(),
		"origin", req.Origin.String(),
		"destination", req.Destination.String(),
		"total_cents", q.TotalCost.Amount,
		"estimated_days", q.EstimatedDays,
	)

	return dto.NewQuoteResponse(quoteID, q), nil
}

func (s *QuoteService) recordRejection(ctx context.Context, span port.Span, err error) {
	span.SetError(err)
	s.metrics.Counter(metricQuotesTotal, 1, map[string]string{"service": "unknown", "outcome": outcome(err)})
	s.logger.WithContext(ctx).Info("Quote request rejected", "error", err)
}

func outcome(err error) string {
	var missing *dto.MissingFieldsError
	switch {
	case errors.As(err, &missing), shipping.IsValidationError(err):
		return "invalid"
	case errors.Is(err, shipping.ErrDistanceUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
