package shipping

import (
	"context"
	"math"

	"github.com/hapkiduki/shipping-quote/internal/domain/valueobject"
)

// RouteBand groups routes by how far a parcel travels.
type RouteBand string

const (
	BandLocal    RouteBand = "local"    // Same 3-digit ZIP prefix
	BandRegional RouteBand = "regional" // Same national area
	BandZonal    RouteBand = "zonal"    // Neighbouring areas
	BandNational RouteBand = "national" // Coast to coast
)

const (
	// milesPerUnit converts route miles into pricing distance units.
	milesPerUnit = 25.0

	sameZIPMiles    = 0.0
	samePrefixMiles = 25.0
	sameAreaMiles   = 150.0

	// minCrossAreaMiles is the linehaul floor between national areas.
	// At 51 units the distance charge alone exceeds the minimum base rate,
	// so a cross-area quote always costs more than a same-ZIP one.
	minCrossAreaMiles = 1275.0

	nationalMiles    = 1500.0
	earthRadiusMiles = 3958.8
)

// Distance is the priced length of a route.
type Distance struct {
	// Miles is the approximate route length.
	Miles float64

	// Band classifies the route for transit time estimates.
	Band RouteBand
}

// Units returns the distance in pricing units, rounded to the nearest unit.
func (d Distance) Units() int64 {
	return int64(math.Round(d.Miles / milesPerUnit))
}

// DistanceResolver maps an origin/destination pair to a route distance.
// Implementations backed by a remote service must honor ctx cancellation.
type DistanceResolver interface {
	Resolve(ctx context.Context, origin, destination valueobject.PostalCode) (Distance, error)
}

// DistanceResolverFunc adapts a function to the DistanceResolver interface.
type DistanceResolverFunc func(ctx context.Context, origin, destination valueobject.PostalCode) (Distance, error)

// Resolve implements DistanceResolver.
func (f DistanceResolverFunc) Resolve(ctx context.Context, origin, destination valueobject.PostalCode) (Distance, error) {
	return f(ctx, origin, destination)
}

// areaCentroid is an approximate geographic center of a ZIP national area.
type areaCentroid struct {
	lat, lon float64
}

// areaCentroids is indexed by the first ZIP digit.
var areaCentroids = [10]areaCentroid{
	{42.3, -71.8},  // 0: New England, NJ, PR
	{41.5, -76.0},  // 1: NY, PA, DE
	{37.5, -78.5},  // 2: DC, MD, VA, WV, NC, SC
	{32.5, -84.5},  // 3: AL, FL, GA, MS, TN
	{40.5, -84.5},  // 4: IN, KY, MI, OH
	{45.0, -95.0},  // 5: IA, MN, MT, ND, SD, WI
	{40.0, -93.5},  // 6: IL, KS, MO, NE
	{32.0, -95.5},  // 7: AR, LA, OK, TX
	{39.0, -110.0}, // 8: AZ, CO, ID, NM, NV, UT, WY
	{38.0, -121.0}, // 9: CA, OR, WA, AK, HI
}

// ZoneDistanceResolver estimates route length from ZIP structure alone.
// It is deterministic and performs no I/O:
//   - same ZIP5: 0 miles
//   - same 3-digit prefix: 25 miles
//   - same national area: 150 miles
//   - otherwise the great-circle distance between area centroids,
//     never less than 1275 miles
type ZoneDistanceResolver struct{}

// NewZoneDistanceResolver creates the default resolver.
func NewZoneDistanceResolver() ZoneDistanceResolver {
	return ZoneDistanceResolver{}
}

// Resolve implements DistanceResolver.
func (ZoneDistanceResolver) Resolve(_ context.Context, origin, destination valueobject.PostalCode) (Distance, error) {
	if !origin.IsValid() || !destination.IsValid() {
		return Distance{}, valueobject.ErrInvalidPostalCode
	}

	switch {
	case origin.ZIP5() == destination.ZIP5():
		return Distance{Miles: sameZIPMiles, Band: BandLocal}, nil
	case origin.Prefix() == destination.Prefix():
		return Distance{Miles: samePrefixMiles, Band: BandLocal}, nil
	case origin.Area() == destination.Area():
		return Distance{Miles: sameAreaMiles, Band: BandRegional}, nil
	}

	from, to := areaCentroids[origin.Area()], areaCentroids[destination.Area()]
	miles := math.Max(haversineMiles(from, to), minCrossAreaMiles)

	band := BandZonal
	if miles >= nationalMiles {
		band = BandNational
	}
	return Distance{Miles: miles, Band: band}, nil
}

func haversineMiles(a, b areaCentroid) float64 {
	const rad = math.Pi / 180
	dLat := (b.lat - a.lat) * rad
	dLon := (b.lon - a.lon) * rad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.lat*rad)*math.Cos(b.lat*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}
