package shipping

import (
	"context"
	"fmt"
	"math"

	"github.com/hapkiduki/shipping-quote/internal/domain/valueobject"
)

// Pricing constants. Amounts are in USD cents.
const (
	centsPerKg              = 50
	centsPerDistanceUnit    = 10
	minimumBaseRateCents    = 500
	fuelSurchargeRate       = 0.15
	insuranceRate           = 0.01
	insuranceThresholdCents = 50000
)

// Calculator prices shipping requests.
// The zero value is not usable; create one with NewCalculator.
type Calculator struct {
	distances DistanceResolver
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithDistanceResolver replaces the default ZIP-structure resolver.
func WithDistanceResolver(r DistanceResolver) Option {
	return func(c *Calculator) {
		c.distances = r
	}
}

// NewCalculator creates a Calculator using ZoneDistanceResolver unless
// another resolver is supplied.
//
// Parameters:
//   - opts: optional configuration
//
// Returns:
//   - *Calculator: ready to use calculator
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{distances: NewZoneDistanceResolver()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate validates req and prices it.
//
// Validation runs to completion before any pricing. A rejected request yields
// a *ValidationError; a failed or cancelled distance lookup yields an error
// wrapping ErrDistanceUnavailable. On success the quote is fully populated
// and the same request always produces the same quote.
//
// Parameters:
//   - ctx: context for the distance lookup
//   - req: the shipment to price
//
// Returns:
//   - ShippingQuote: the priced quote
//   - error: validation or distance failure
func (c *Calculator) Calculate(ctx context.Context, req ShippingRequest) (ShippingQuote, error) {
	if err := req.Validate(); err != nil {
		return ShippingQuote{}, err
	}

	distance, err := c.resolveDistance(ctx, req.Origin, req.Destination)
	if err != nil {
		return ShippingQuote{}, err
	}

	effectiveWeight := math.Max(req.WeightKg, req.Dimensions.VolumetricWeight())

	standardBase := valueobject.USD(int64(math.Round(
		effectiveWeight*centsPerKg + float64(distance.Units())*centsPerDistanceUnit,
	))).Max(valueobject.USD(minimumBaseRateCents))

	baseRate := standardBase.MultiplyRound(req.Service.Multiplier())
	fuel := baseRate.MultiplyRound(fuelSurchargeRate)
	insurance := insuranceFee(req.DeclaredValue)

	return ShippingQuote{
		BaseRate:          baseRate,
		FuelSurcharge:     fuel,
		InsuranceFee:      insurance,
		TotalCost:         baseRate.Add(fuel).Add(insurance),
		EstimatedDays:     transitDays(req.Service, distance.Band),
		ServiceLevel:      req.Service.Label(),
		Service:           req.Service,
		EffectiveWeightKg: effectiveWeight,
		Distance:          distance,
	}, nil
}

func (c *Calculator) resolveDistance(ctx context.Context, origin, destination valueobject.PostalCode) (Distance, error) {
	if err := ctx.Err(); err != nil {
		return Distance{}, fmt.Errorf("%w: %w", ErrDistanceUnavailable, err)
	}

	d, err := c.distances.Resolve(ctx, origin, destination)
	if err != nil {
		return Distance{}, fmt.Errorf("%w: %w", ErrDistanceUnavailable, err)
	}
	if math.IsNaN(d.Miles) || math.IsInf(d.Miles, 0) || d.Miles < 0 {
		return Distance{}, fmt.Errorf("%w: resolver returned %v miles", ErrDistanceUnavailable, d.Miles)
	}
	return d, nil
}

// insuranceFee charges 1% of the declared value once it exceeds $500.
func insuranceFee(declared valueobject.Money) valueobject.Money {
	if declared.Amount <= insuranceThresholdCents {
		return valueobject.Zero(valueobject.CurrencyUSD)
	}
	return declared.MultiplyRound(insuranceRate)
}

// transitDays estimates business days in transit.
// Express is always two days faster than ground on the same route.
func transitDays(service valueobject.ServiceType, band RouteBand) int {
	ground := 7
	switch band {
	case BandLocal, BandRegional:
		ground = 5
	case BandZonal:
		ground = 6
	}

	switch service {
	case valueobject.ServiceOvernight:
		return 1
	case valueobject.ServiceExpress:
		return ground - 2
	default:
		return ground
	}
}
