package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// MinModelYear is the earliest year we accept.
const MinModelYear = 1950

// MaxModelYear is the latest year we accept (next-year models are listed early).
const MaxModelYear = 2030

// ValidateVehicle checks a listing before it is admitted to a Catalog.
func ValidateVehicle(v Vehicle) error {
	if strings.TrimSpace(v.ID) == "" {
		return NewValidationError("id", v.ID, ErrInvalidVehicle)
	}
	if strings.TrimSpace(v.Make) == "" {
		return NewValidationError("make", v.Make, ErrInvalidVehicle)
	}
	if strings.TrimSpace(v.Model) == "" {
		return NewValidationError("model", v.Model, ErrInvalidVehicle)
	}
	if v.Year < MinModelYear || v.Year > MaxModelYear {
		return NewValidationError("year", strconv.Itoa(v.Year), ErrYearOutOfRange)
	}
	if v.Price < 0 {
		return NewValidationError("price", strconv.Itoa(v.Price), ErrNegativeValue)
	}
	if v.Mileage < 0 {
		return NewValidationError("mileage", strconv.Itoa(v.Mileage), ErrNegativeValue)
	}
	if v.Rating < 0 || v.Rating > 5 {
		return NewValidationError("rating", fmt.Sprintf("%g", v.Rating), ErrRatingOutOfRange)
	}
	if !v.FuelType.Valid() {
		return NewValidationError("fuelType", string(v.FuelType), ErrUnknownFuelType)
	}
	if !v.Transmission.Valid() {
		return NewValidationError("transmission", string(v.Transmission), ErrUnknownTransmission)
	}
	if !v.BodyType.Valid() {
		return NewValidationError("bodyType", string(v.BodyType), ErrUnknownBodyType)
	}
	return nil
}
