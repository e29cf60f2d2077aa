package valueobject

import (
	"errors"
	"strings"
)

// ServiceType represents the shipping speed tier.
type ServiceType string

const (
	ServiceStandard  ServiceType = "standard"  // Ground, 5-7 days
	ServiceExpress   ServiceType = "express"   // Faster than ground
	ServiceOvernight ServiceType = "overnight" // Next day
)

// ErrInvalidServiceType is returned for values outside the enumeration.
var ErrInvalidServiceType = errors.New("service type must be one of standard, express, overnight")

// ServiceTypes lists every supported tier from slowest to fastest.
func ServiceTypes() []ServiceType {
	return []ServiceType{ServiceStandard, ServiceExpress, ServiceOvernight}
}

// ParseServiceType converts user input into a ServiceType.
// Matching ignores case and surrounding whitespace.
//
// Parameters:
//   - s: raw service type (e.g., "Express")
//
// Returns:
//   - ServiceType: the matching tier
//   - error: ErrInvalidServiceType if s is not a known tier
func ParseServiceType(s string) (ServiceType, error) {
	st := ServiceType(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", ErrInvalidServiceType
	}
	return st, nil
}

// IsValid reports whether s is one of the supported tiers.
func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceStandard, ServiceExpress, ServiceOvernight:
		return true
	}
	return false
}

// Multiplier is the factor applied to the standard base rate.
// Overnight is 200% higher than standard, i.e. three times the price.
func (s ServiceType) Multiplier() float64 {
	switch s {
	case ServiceExpress:
		return 1.5
	case ServiceOvernight:
		return 3.0
	default:
		return 1.0
	}
}

// Label returns the customer-facing service level name.
func (s ServiceType) Label() string {
	switch s {
	case ServiceExpress:
		return "Express Shipping"
	case ServiceOvernight:
		return "Overnight Express"
	default:
		return "Standard Ground"
	}
}

// String implements fmt.Stringer.
func (s ServiceType) String() string {
	return string(s)
}
