package valueobject

import (
	"errors"
	"regexp"
)

// ErrInvalidPostalCode is returned when a string is not a US ZIP code.
var ErrInvalidPostalCode = errors.New("postal code must be formatted as NNNNN or NNNNN-NNNN")

var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

// PostalCode is a validated US ZIP or ZIP+4 code.
type PostalCode struct {
	value string
}

// ParsePostalCode validates s against the US ZIP format.
// Surrounding whitespace is not trimmed; " 10001" is rejected.
//
// Parameters:
//   - s: the raw postal code
//
// Returns:
//   - PostalCode: the parsed code
//   - error: ErrInvalidPostalCode if the format does not match
func ParsePostalCode(s string) (PostalCode, error) {
	if !zipPattern.MatchString(s) {
		return PostalCode{}, ErrInvalidPostalCode
	}
	return PostalCode{value: s}, nil
}

// MustParsePostalCode is like ParsePostalCode but panics on error.
// Intended for constants and tests.
func MustParsePostalCode(s string) PostalCode {
	pc, err := ParsePostalCode(s)
	if err != nil {
		panic(err)
	}
	return pc
}

// IsValid reports whether the code was produced by ParsePostalCode.
func (p PostalCode) IsValid() bool {
	return zipPattern.MatchString(p.value)
}

// ZIP5 returns the five digit delivery area, dropping any +4 suffix.
func (p PostalCode) ZIP5() string {
	if len(p.value) < 5 {
		return ""
	}
	return p.value[:5]
}

// Prefix returns the three digit sectional center facility prefix.
func (p PostalCode) Prefix() string {
	if len(p.value) < 3 {
		return ""
	}
	return p.value[:3]
}

// Area returns the national area digit (0 in the northeast through 9 on the
// west coast), or -1 for an invalid code.
func (p PostalCode) Area() int {
	if p.value == "" {
		return -1
	}
	return int(p.value[0] - '0')
}

// String returns the code as given.
func (p PostalCode) String() string {
	return p.value
}

// MarshalText implements encoding.TextMarshaler.
func (p PostalCode) MarshalText() ([]byte, error) {
	return []byte(p.value), nil
}
