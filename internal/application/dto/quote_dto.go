package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hapkiduki/shipping-quote/internal/domain/shipping"
	"github.com/hapkiduki/shipping-quote/internal/domain/valueobject"
)

// DimensionsRequest carries parcel dimensions in centimeters.
type DimensionsRequest struct {
	Length *float64 `json:"length" yaml:"length"`
	Width  *float64 `json:"width" yaml:"width"`
	Height *float64 `json:"height" yaml:"height"`
}

// QuoteRequest is the wire form of a shipping request.
// Pointer fields distinguish a missing field from an explicit zero.
type QuoteRequest struct {
	// WeightKg is the actual parcel weight.
	WeightKg *float64 `json:"weight_kg" yaml:"weight_kg"`

	// Dimensions is length, width and height in centimeters.
	Dimensions *DimensionsRequest `json:"dimensions_cm" yaml:"dimensions_cm"`

	// OriginPostalCode is the ship-from ZIP code.
	OriginPostalCode *string `json:"origin_postal_code" yaml:"origin_postal_code"`

	// DestinationPostalCode is the ship-to ZIP code.
	DestinationPostalCode *string `json:"destination_postal_code" yaml:"destination_postal_code"`

	// ServiceType is standard, express or overnight.
	ServiceType *string `json:"service_type" yaml:"service_type"`

	// DeclaredValueCents is optional and defaults to zero.
	DeclaredValueCents *int64 `json:"declared_value_cents,omitempty" yaml:"declared_value_cents,omitempty"`
}

// MissingFieldsError lists required fields absent from a QuoteRequest.
type MissingFieldsError struct {
	Fields []string
}

// Error implements error.
func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// WithDefaultService returns a copy whose service type is set to service
// when the request does not name one.
func (r QuoteRequest) WithDefaultService(service valueobject.ServiceType) QuoteRequest {
	if r.ServiceType == nil {
		s := service.String()
		r.ServiceType = &s
	}
	return r
}

// MissingFields returns the JSON names of absent required fields in
// request order.
func (r QuoteRequest) MissingFields() []string {
	var missing []string
	if r.WeightKg == nil {
		missing = append(missing, "weight_kg")
	}
	switch {
	case r.Dimensions == nil:
		missing = append(missing, "dimensions_cm")
	default:
		if r.Dimensions.Length == nil {
			missing = append(missing, "dimensions_cm.length")
		}
		if r.Dimensions.Width == nil {
			missing = append(missing, "dimensions_cm.width")
		}
		if r.Dimensions.Height == nil {
			missing = append(missing, "dimensions_cm.height")
		}
	}
	if r.OriginPostalCode == nil {
		missing = append(missing, "origin_postal_code")
	}
	if r.DestinationPostalCode == nil {
		missing = append(missing, "destination_postal_code")
	}
	if r.ServiceType == nil {
		missing = append(missing, "service_type")
	}
	return missing
}

// ToDomain converts the request into a validated shipping.ShippingRequest.
//
// Returns:
//   - shipping.ShippingRequest: the parsed request
//   - error: *MissingFieldsError or *shipping.ValidationError
func (r QuoteRequest) ToDomain() (shipping.ShippingRequest, error) {
	if missing := r.MissingFields(); len(missing) > 0 {
		return shipping.ShippingRequest{}, &MissingFieldsError{Fields: missing}
	}

	params := shipping.RequestParams{
		WeightKg: *r.WeightKg,
		Dimensions: valueobject.NewDimensions(
			*r.Dimensions.Length, *r.Dimensions.Width, *r.Dimensions.Height,
		),
		OriginPostalCode:      *r.OriginPostalCode,
		DestinationPostalCode: *r.DestinationPostalCode,
		ServiceType:           *r.ServiceType,
	}
	if r.DeclaredValueCents != nil {
		params.DeclaredValueCents = *r.DeclaredValueCents
	}
	return shipping.NewShippingRequest(params)
}

// QuoteResponse is the wire form of a priced quote.
type QuoteResponse struct {
	QuoteID            string  `json:"quote_id"`
	ServiceType        string  `json:"service_type"`
	ServiceLevel       string  `json:"service_level"`
	Currency           string  `json:"currency"`
	BaseRateCents      int64   `json:"base_rate_cents"`
	FuelSurchargeCents int64   `json:"fuel_surcharge_cents"`
	InsuranceFeeCents  int64   `json:"insurance_fee_cents"`
	TotalCostCents     int64   `json:"total_cost_cents"`
	TotalCost          string  `json:"total_cost"`
	EstimatedDays      int     `json:"estimated_days"`
	EffectiveWeightKg  float64 `json:"effective_weight_kg"`
	DistanceMiles      float64 `json:"distance_miles"`
	RouteBand          string  `json:"route_band"`
}

// NewQuoteResponse maps a domain quote to its wire form.
//
// Parameters:
//   - id: the quote identifier
//   - q: the priced quote
//
// Returns:
//   - QuoteResponse: the response DTO
func NewQuoteResponse(id string, q shipping.ShippingQuote) QuoteResponse {
	return QuoteResponse{
		QuoteID:            id,
		ServiceType:        q.Service.String(),
		ServiceLevel:       q.ServiceLevel,
		Currency:           string(q.TotalCost.Currency),
		BaseRateCents:      q.BaseRate.Amount,
		FuelSurchargeCents: q.FuelSurcharge.Amount,
		InsuranceFeeCents:  q.InsuranceFee.Amount,
		TotalCostCents:     q.TotalCost.Amount,
		TotalCost:          q.TotalCost.Format(),
		EstimatedDays:      q.EstimatedDays,
		EffectiveWeightKg:  q.EffectiveWeightKg,
		DistanceMiles:      q.Distance.Miles,
		RouteBand:          string(q.Distance.Band),
	}
}

// CompareResponse lists one quote per service type, cheapest first.
type CompareResponse struct {
	Quotes   []QuoteResponse `json:"quotes"`
	Cheapest string          `json:"cheapest"`
	Fastest  string          `json:"fastest"`
}

// BatchRequest is the body of a batch quote call.
type BatchRequest struct {
	Requests []QuoteRequest `json:"requests" yaml:"requests"`
}

// BatchItemResult is the outcome for one entry of a batch request.
// Exactly one of Quote and Error is set.
type BatchItemResult struct {
	Index int            `json:"index"`
	Quote *QuoteResponse `json:"quote,omitempty"`
	Error *APIError      `json:"error,omitempty"`
}

// BatchResponse holds per-item results in request order.
type BatchResponse struct {
	Results   []BatchItemResult `json:"results"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// Error codes returned to clients.
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeDistanceUnavailable = "DISTANCE_UNAVAILABLE"
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeInternalError       = "INTERNAL_ERROR"
)

// NewAPIError maps a quoting error to its client representation.
//
// Parameters:
//   - err: error returned by the quote service
//
// Returns:
//   - *APIError: the error details
func NewAPIError(err error) *APIError {
	var missing *MissingFieldsError
	if errors.As(err, &missing) {
		details := make([]ValidationError, 0, len(missing.Fields))
		for _, f := range missing.Fields {
			details = append(details, ValidationError{Field: f, Message: "field is required"})
		}
		return &APIError{
			Code:             CodeValidationError,
			Message:          "Request validation failed",
			ValidationErrors: details,
		}
	}

	var invalid *shipping.ValidationError
	if errors.As(err, &invalid) {
		return &APIError{
			Code:    CodeValidationError,
			Message: "Request validation failed",
			Details: map[string]any{"kind": string(invalid.Kind)},
			ValidationErrors: []ValidationError{
				{Field: invalid.Field, Message: invalid.Message},
			},
		}
	}

	if errors.Is(err, shipping.ErrDistanceUnavailable) {
		return &APIError{
			Code:    CodeDistanceUnavailable,
			Message: "Route distance could not be determined, please retry",
		}
	}

	return &APIError{
		Code:    CodeInternalError,
		Message: "An unexpected error occurred",
	}
}
