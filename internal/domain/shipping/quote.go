package shipping

import "github.com/hapkiduki/shipping-quote/internal/domain/valueobject"

// ShippingQuote is the priced result for a ShippingRequest.
// TotalCost always equals BaseRate + FuelSurcharge + InsuranceFee.
type ShippingQuote struct {
	// BaseRate is the service-adjusted rate before surcharges.
	BaseRate valueobject.Money

	// FuelSurcharge is derived from BaseRate and always positive.
	FuelSurcharge valueobject.Money

	// InsuranceFee is zero unless the declared value exceeds the threshold.
	InsuranceFee valueobject.Money

	// TotalCost is the amount charged.
	TotalCost valueobject.Money

	// EstimatedDays is the transit time in business days.
	EstimatedDays int

	// ServiceLevel is the customer-facing tier name.
	ServiceLevel string

	// Service is the tier that was priced.
	Service valueobject.ServiceType

	// EffectiveWeightKg is the greater of actual and dimensional weight.
	EffectiveWeightKg float64

	// Distance is the route the quote was priced on.
	Distance Distance
}

// IsBalanced reports whether the total equals the sum of its components.
func (q ShippingQuote) IsBalanced() bool {
	return q.TotalCost.Amount == q.BaseRate.Amount+q.FuelSurcharge.Amount+q.InsuranceFee.Amount
}
