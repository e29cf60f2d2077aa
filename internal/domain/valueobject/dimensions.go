package valueobject

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// DimensionalWeightDivisor converts cubic centimeters into billable kilograms.
	DimensionalWeightDivisor = 5000.0

	// MaxSideCm is the longest side a carrier will accept.
	MaxSideCm = 300.0
)

// ErrMalformedDimensions is returned when a dimension string is not LxWxH.
var ErrMalformedDimensions = errors.New("dimensions must be formatted as LxWxH")

// Dimensions represents the physical dimensions of a parcel.
// All measurements are in centimeters.
type Dimensions struct {
	// Length in centimeters.
	Length float64 `json:"length" yaml:"length"`

	// Width in centimeters.
	Width float64 `json:"width" yaml:"width"`

	// Height in centimeters.
	Height float64 `json:"height" yaml:"height"`
}

// NewDimensions creates a new Dimensions value object.
//
// Parameters:
//   - length: Length in centimeters
//   - width: Width in centimeters
//   - height: Height in centimeters
//
// Returns:
//   - Dimensions: new Dimensions value object
func NewDimensions(length, width, height float64) Dimensions {
	return Dimensions{
		Length: length,
		Width:  width,
		Height: height,
	}
}

// Volume calculates the volume in cubic centimeters.
//
// Returns:
//   - float64: volume in cm³
func (d Dimensions) Volume() float64 {
	return d.Length * d.Width * d.Height
}

// VolumetricWeight calculates the dimensional weight carriers bill for
// bulky parcels.
//
// Returns:
//   - float64: volumetric weight in kg
func (d Dimensions) VolumetricWeight() float64 {
	return d.Volume() / DimensionalWeightDivisor
}

// IsPositive reports whether every side is a finite value greater than zero.
// NaN compares false and is therefore rejected.
//
// Returns:
//   - bool: true if length, width and height are all > 0
func (d Dimensions) IsPositive() bool {
	for _, side := range []float64{d.Length, d.Width, d.Height} {
		if !(side > 0) || math.IsInf(side, 1) {
			return false
		}
	}
	return true
}

// ExceedsMaxSide reports whether any side is longer than MaxSideCm.
func (d Dimensions) ExceedsMaxSide() bool {
	return d.Length > MaxSideCm || d.Width > MaxSideCm || d.Height > MaxSideCm
}

// String returns a formatted string representation.
//
// Returns:
//   - string: formatted dimensions (e.g., "30.0x20.0x10.0 cm")
func (d Dimensions) String() string {
	return fmt.Sprintf("%.1fx%.1fx%.1f cm", d.Length, d.Width, d.Height)
}

// ParseDimensions parses an "LxWxH" string such as "30x20x15".
// It only checks the shape of the input; sign checks belong to IsPositive.
func ParseDimensions(s string) (Dimensions, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 3 {
		return Dimensions{}, ErrMalformedDimensions
	}

	sides := make([]float64, 3)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Dimensions{}, fmt.Errorf("%w: %q", ErrMalformedDimensions, s)
		}
		sides[i] = v
	}

	return NewDimensions(sides[0], sides[1], sides[2]), nil
}
