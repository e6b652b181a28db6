// Package listing derives the displayed vehicle sequence from the catalog,
// the user's filter criteria, an optional AI match restriction, and a sort key.
// Everything here is pure: inputs are never mutated.
package listing

import (
	"errors"
	"slices"
	"strconv"

	"github.com/WessleyAI/autosphere/engine/catalog"
)

// ErrNegativePrice is returned when a price bound is below zero.
var ErrNegativePrice = errors.New("negative price bound")

// Criteria is the filter-panel state. Zero values mean "no restriction"; a
// MaxPrice of 0 leaves the upper bound open.
type Criteria struct {
	Search    string             `json:"search"`
	Make      string             `json:"make"`
	MinPrice  int                `json:"minPrice"`
	MaxPrice  int                `json:"maxPrice"`
	BodyTypes []catalog.BodyType `json:"bodyType"`
	FuelTypes []catalog.FuelType `json:"fuelType"`
}

// DefaultCriteria returns criteria that let every listing through.
func DefaultCriteria() Criteria {
	return Criteria{BodyTypes: []catalog.BodyType{}, FuelTypes: []catalog.FuelType{}}
}

// IsDefault reports whether c restricts nothing.
func (c Criteria) IsDefault() bool {
	return c.Search == "" && c.Make == "" && c.MinPrice == 0 && c.MaxPrice == 0 &&
		len(c.BodyTypes) == 0 && len(c.FuelTypes) == 0
}

// Validate rejects negative price bounds and unknown enumeration members.
func (c Criteria) Validate() error {
	if c.MinPrice < 0 {
		return catalog.NewValidationError("minPrice", strconv.Itoa(c.MinPrice), ErrNegativePrice)
	}
	if c.MaxPrice < 0 {
		return catalog.NewValidationError("maxPrice", strconv.Itoa(c.MaxPrice), ErrNegativePrice)
	}
	for _, b := range c.BodyTypes {
		if !b.Valid() {
			return catalog.NewValidationError("bodyType", string(b), catalog.ErrUnknownBodyType)
		}
	}
	for _, f := range c.FuelTypes {
		if !f.Valid() {
			return catalog.NewValidationError("fuelType", string(f), catalog.ErrUnknownFuelType)
		}
	}
	return nil
}

// Clone returns a deep copy of c.
func (c Criteria) Clone() Criteria {
	out := c
	out.BodyTypes = append([]catalog.BodyType{}, c.BodyTypes...)
	out.FuelTypes = append([]catalog.FuelType{}, c.FuelTypes...)
	return out
}

// ToggleBodyType returns a copy of c with b added, or removed if present.
func (c Criteria) ToggleBodyType(b catalog.BodyType) Criteria {
	out := c.Clone()
	out.BodyTypes = toggle(out.BodyTypes, b)
	return out
}

// ToggleFuelType returns a copy of c with f added, or removed if present.
func (c Criteria) ToggleFuelType(f catalog.FuelType) Criteria {
	out := c.Clone()
	out.FuelTypes = toggle(out.FuelTypes, f)
	return out
}

func toggle[T comparable](set []T, v T) []T {
	if i := slices.Index(set, v); i >= 0 {
		return slices.Delete(set, i, i+1)
	}
	return append(set, v)
}
