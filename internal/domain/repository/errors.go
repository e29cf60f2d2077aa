// Package repository contains the repository interfaces and related errors.
package repository

import "errors"

// Repository errors define common error conditions across all stores.
// These errors are used to communicate specific failure conditions
// from the data access layer to the application layer.
var (
	// ErrConnectionFailed is returned when the backing store cannot be reached.
	ErrConnectionFailed = errors.New("store connection failed")

	// ErrInvalidInput is returned when a store receives invalid input.
	ErrInvalidInput = errors.New("invalid input provided")
)

// IsUnavailable checks if the error means the store could not be reached.
// Callers use this to fail open instead of rejecting traffic.
//
// Parameters:
//   - err: error to check
//
// Returns:
//   - bool: true if the error indicates a connectivity problem
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}
