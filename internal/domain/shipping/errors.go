package shipping

import "errors"

// ErrorKind classifies why a request was rejected.
type ErrorKind string

const (
	KindInvalidWeight        ErrorKind = "INVALID_WEIGHT"
	KindInvalidDimensions    ErrorKind = "INVALID_DIMENSIONS"
	KindInvalidPostalCode    ErrorKind = "INVALID_POSTAL_CODE"
	KindInvalidServiceType   ErrorKind = "INVALID_SERVICE_TYPE"
	KindInvalidDeclaredValue ErrorKind = "INVALID_DECLARED_VALUE"
)

// Sentinel errors for use with errors.Is. Any *ValidationError of the same
// kind matches, whatever its message.
var (
	ErrInvalidWeight        = &ValidationError{Kind: KindInvalidWeight}
	ErrInvalidDimensions    = &ValidationError{Kind: KindInvalidDimensions}
	ErrInvalidPostalCode    = &ValidationError{Kind: KindInvalidPostalCode}
	ErrInvalidServiceType   = &ValidationError{Kind: KindInvalidServiceType}
	ErrInvalidDeclaredValue = &ValidationError{Kind: KindInvalidDeclaredValue}
)

// ErrDistanceUnavailable is returned when the route distance could not be
// resolved, including when the context is cancelled during the lookup.
var ErrDistanceUnavailable = errors.New("route distance unavailable")

// ValidationError reports the first constraint a ShippingRequest violated.
// Every validation error is recoverable by correcting the input.
type ValidationError struct {
	// Kind is the machine readable category.
	Kind ErrorKind

	// Field names the offending request field (e.g., "weight_kg").
	Field string

	// Message is the human readable explanation.
	Message string
}

func newValidationError(kind ErrorKind, field, message string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: message}
}

// Error implements error.
func (e *ValidationError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any ValidationError with the same Kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// IsValidationError reports whether err is caused by bad input.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
