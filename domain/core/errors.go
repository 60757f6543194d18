package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Design errors
	ErrInvalidDesign   = errors.New("invalid design")
	ErrInvalidSize     = fmt.Errorf("%w: sample count and dimension must be positive", ErrInvalidDesign)
	ErrUnknownScheme   = fmt.Errorf("%w: unknown design scheme", ErrInvalidDesign)
	ErrUnknownSampler  = fmt.Errorf("%w: unknown sampler kind", ErrInvalidDesign)
	ErrDimensionTooBig = fmt.Errorf("%w: dimension exceeds sampler support", ErrInvalidDesign)

	// Distribution errors
	ErrInvalidDistribution = errors.New("invalid distribution")
	ErrOutOfUnitRange      = errors.New("value outside [0,1]")
	ErrMalformedRow        = errors.New("malformed parameter row")

	// Estimation errors
	ErrLengthMismatch = errors.New("output length does not match design")

	// Lookup errors
	ErrNotFound         = errors.New("resource not found")
	ErrScenarioNotFound = fmt.Errorf("%w: scenario", ErrNotFound)
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewUnitRangeError(row, col int, value float64) error {
	return fmt.Errorf("%w: row %d column %d has %v", ErrOutOfUnitRange, row, col, value)
}

func NewDistributionError(param string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrInvalidDistribution, param, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsDesignError(err error) bool {
	return errors.Is(err, ErrInvalidDesign)
}

func IsDistributionError(err error) bool {
	return errors.Is(err, ErrInvalidDistribution)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrOutOfUnitRange) ||
		errors.Is(err, ErrMalformedRow)
}
