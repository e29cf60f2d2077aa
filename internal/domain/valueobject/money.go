// Package valueobject contains value objects that represent concepts without identity.
// Value objects are immutable and compared by their attributes rather than identity.
// They encapsulate validation logic and ensure data integrity.
//
// Value Objects follow these principles:
//   - Immutability: Once created, they cannot be changed.
//   - Equality: Two value objects are equal if all their attributes are equal.
//   - Self-validation: They validate their own data upon creation.
//   - Side-effect free: Methods returns new instances rather than modifying state
package valueobject

import (
	"errors"
	"fmt"
	"math"
)

// Currency represents a monetary currency using ISO 4217 codes.
type Currency string

// CurrencyUSD is the only currency quotes are priced in.
const CurrencyUSD Currency = "USD"

var (
	// ErrCurrencyMismatch is returned when combining amounts in different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch in operation")

	// ErrAmountOverflow is raised when a product does not fit in int64 cents.
	ErrAmountOverflow = errors.New("money amount overflows int64")
)

// amountLimit is 2^63, the first float64 outside the int64 range.
const amountLimit = float64(1 << 63)

// Money represents a monetary value with currency.
// It stores amounts in the smallest unit (cents) to avoid floating-point issues.
//
// Example usage:
//
//	base := valueobject.USD(1250)           // $12.50
//	fuel := base.MultiplyRound(0.15)        // $1.88
//	total := base.Add(fuel)                 // $14.38
type Money struct {
	// Amount in smallest currency unit (e.g., cents for USD)
	Amount int64 `json:"amount"`

	// Currency using ISO 4217 code
	Currency Currency `json:"currency"`
}

// NewMoney creates a new Money value object.
//
// Parameters:
//   - amount: Amount in smallest unit (e.g., cents)
//   - currency: ISO 4217 currency code
//
// Returns:
//   - Money: the created Money value object
func NewMoney(amount int64, currency Currency) Money {
	return Money{
		Amount:   amount,
		Currency: currency,
	}
}

// USD is shorthand for NewMoney(cents, CurrencyUSD).
func USD(cents int64) Money {
	return NewMoney(cents, CurrencyUSD)
}

// Zero returns a zero-value Money in the specified currency.
func Zero(currency Currency) Money {
	return NewMoney(0, currency)
}

// Add adds two Money values and returns a new Money.
// Both values must have the same currency.
//
// Parameters:
//   - other: the Money to add
//
// Returns:
//   - Money: the sum of the two Money values
//
// Note: Panics if currencies do not match.
func (m Money) Add(other Money) Money {
	if m.Currency != other.Currency && !m.IsZero() && !other.IsZero() {
		panic(ErrCurrencyMismatch)
	}
	currency := m.Currency
	if m.IsZero() && other.Currency != "" {
		currency = other.Currency
	}
	return NewMoney(m.Amount+other.Amount, currency)
}

// MultiplyRound multiplies the amount by factor and rounds half away from
// zero to the nearest cent.
//
// Parameters:
//   - factor: the multiplication factor
//
// Returns:
//   - Money: the rounded product
//
// Note: Panics with ErrAmountOverflow if the product is NaN or out of range.
func (m Money) MultiplyRound(factor float64) Money {
	product := math.Round(float64(m.Amount) * factor)
	if math.IsNaN(product) || product >= amountLimit || product < -amountLimit {
		panic(ErrAmountOverflow)
	}
	return NewMoney(int64(product), m.Currency)
}

// Max returns the larger of two amounts in the same currency.
func (m Money) Max(other Money) Money {
	if other.GreaterThan(m) {
		return other
	}
	return m
}

// IsZero checks if the Money amount is zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// IsNegative checks if the Money amount is negative.
func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// GreaterThan checks if this Money is greater than another Money.
//
// Parameters:
//   - other: the Money to compare (must have same currency)
//
// Returns:
//   - bool: true if this Money is greater
func (m Money) GreaterThan(other Money) bool {
	if m.Currency != other.Currency {
		panic(ErrCurrencyMismatch)
	}
	return m.Amount > other.Amount
}

// ToFloat converts the Money amount to a float64 representation.
//
// Returns:
//   - float64: Decimal representation (e.g., 19.99)
func (m Money) ToFloat() float64 {
	return float64(m.Amount) / 100.0
}

// String returns a formatted string representation of the Money.
//
// Returns:
//   - string: Formatted string (e.g., "USD 19.99")
func (m Money) String() string {
	return fmt.Sprintf("%s %.2f", m.Currency, m.ToFloat())
}

// Format returns the money formatted with its currency symbol.
//
// Returns:
//   - string: Formatted string with currency symbol (e.g., "$19.99")
func (m Money) Format() string {
	if m.Currency == CurrencyUSD {
		return fmt.Sprintf("$%.2f", m.ToFloat())
	}
	return fmt.Sprintf("%s %.2f", m.Currency, m.ToFloat())
}
