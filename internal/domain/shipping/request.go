// Package shipping implements shipping quote pricing.
//
// A ShippingRequest is validated in full before any money is computed; the
// first violated constraint is returned as a *ValidationError and no partial
// quote is ever produced. Calculator holds no mutable state and is safe for
// concurrent use.
package shipping

import (
	"fmt"

	"github.com/hapkiduki/shipping-quote/internal/domain/valueobject"
)

// MaxWeightKg is the heaviest parcel that can be quoted.
const MaxWeightKg = 50.0

// ShippingRequest describes a single parcel to be quoted.
type ShippingRequest struct {
	// WeightKg is the actual weight, in (0, 50].
	WeightKg float64

	// Dimensions of the parcel in centimeters, each side in (0, 300].
	Dimensions valueobject.Dimensions

	// Origin and Destination US ZIP codes.
	Origin      valueobject.PostalCode
	Destination valueobject.PostalCode

	// Service is the requested speed tier.
	Service valueobject.ServiceType

	// DeclaredValue is used only to compute insurance.
	DeclaredValue valueobject.Money
}

// RequestParams is the loosely typed input accepted by NewShippingRequest.
type RequestParams struct {
	WeightKg              float64
	Dimensions            valueobject.Dimensions
	OriginPostalCode      string
	DestinationPostalCode string
	ServiceType           string
	DeclaredValueCents    int64
}

// NewShippingRequest parses raw parameters into a ShippingRequest.
// Checks run in a fixed order and the first failure is returned:
// weight, dimensions, origin, destination, service type, declared value.
//
// Parameters:
//   - p: raw request parameters
//
// Returns:
//   - ShippingRequest: the validated request
//   - error: *ValidationError describing the first violation
func NewShippingRequest(p RequestParams) (ShippingRequest, error) {
	if err := validateWeight(p.WeightKg); err != nil {
		return ShippingRequest{}, err
	}
	if err := validateDimensions(p.Dimensions); err != nil {
		return ShippingRequest{}, err
	}

	origin, err := valueobject.ParsePostalCode(p.OriginPostalCode)
	if err != nil {
		return ShippingRequest{}, errPostalCode("origin_postal_code", "origin", p.OriginPostalCode)
	}
	destination, err := valueobject.ParsePostalCode(p.DestinationPostalCode)
	if err != nil {
		return ShippingRequest{}, errPostalCode("destination_postal_code", "destination", p.DestinationPostalCode)
	}

	service, err := valueobject.ParseServiceType(p.ServiceType)
	if err != nil {
		return ShippingRequest{}, errServiceType(p.ServiceType)
	}

	if p.DeclaredValueCents < 0 {
		return ShippingRequest{}, errDeclaredValue()
	}

	return ShippingRequest{
		WeightKg:      p.WeightKg,
		Dimensions:    p.Dimensions,
		Origin:        origin,
		Destination:   destination,
		Service:       service,
		DeclaredValue: valueobject.USD(p.DeclaredValueCents),
	}, nil
}

// Validate re-checks a request that may have been assembled by hand.
// It applies the same rules, in the same order, as NewShippingRequest.
func (r ShippingRequest) Validate() error {
	if err := validateWeight(r.WeightKg); err != nil {
		return err
	}
	if err := validateDimensions(r.Dimensions); err != nil {
		return err
	}
	if !r.Origin.IsValid() {
		return errPostalCode("origin_postal_code", "origin", r.Origin.String())
	}
	if !r.Destination.IsValid() {
		return errPostalCode("destination_postal_code", "destination", r.Destination.String())
	}
	if !r.Service.IsValid() {
		return errServiceType(r.Service.String())
	}
	if r.DeclaredValue.IsNegative() {
		return errDeclaredValue()
	}
	return nil
}

// WithService returns a copy of the request priced at another tier.
func (r ShippingRequest) WithService(s valueobject.ServiceType) ShippingRequest {
	r.Service = s
	return r
}

func validateWeight(kg float64) error {
	// NaN fails the first comparison.
	if !(kg > 0) {
		return newValidationError(KindInvalidWeight, "weight_kg", "Weight must be positive")
	}
	if kg > MaxWeightKg {
		return newValidationError(KindInvalidWeight, "weight_kg",
			fmt.Sprintf("Weight %g kg exceeds the %g kg weight limit", kg, MaxWeightKg))
	}
	return nil
}

func validateDimensions(d valueobject.Dimensions) error {
	if !d.IsPositive() {
		return newValidationError(KindInvalidDimensions, "dimensions_cm", "Dimensions must be positive")
	}
	if d.ExceedsMaxSide() {
		return newValidationError(KindInvalidDimensions, "dimensions_cm",
			fmt.Sprintf("Dimensions %s exceed the %g cm per-side limit", d, valueobject.MaxSideCm))
	}
	return nil
}

func errPostalCode(field, side, value string) error {
	return newValidationError(KindInvalidPostalCode, field,
		fmt.Sprintf("Invalid %s postal code %q: expected NNNNN or NNNNN-NNNN", side, value))
}

func errServiceType(value string) error {
	return newValidationError(KindInvalidServiceType, "service_type",
		fmt.Sprintf("Invalid service type %q: must be one of standard, express, overnight", value))
}

func errDeclaredValue() error {
	return newValidationError(KindInvalidDeclaredValue, "declared_value_cents", "Declared value cannot be negative")
}
