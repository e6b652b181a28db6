package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog validation failures.
var (
	ErrInvalidVehicle      = errors.New("invalid vehicle")
	ErrDuplicateID         = errors.New("duplicate vehicle id")
	ErrUnknownFuelType     = errors.New("unknown fuel type")
	ErrUnknownTransmission = errors.New("unknown transmission")
	ErrUnknownBodyType     = errors.New("unknown body type")
	ErrYearOutOfRange      = errors.New("year out of range")
	ErrNegativeValue       = errors.New("negative value")
	ErrRatingOutOfRange    = errors.New("rating out of range")
	ErrNotFound            = errors.New("vehicle not found")
)

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
