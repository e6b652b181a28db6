// Package catalog defines the vehicle listing record, its closed attribute
// enumerations, and the immutable catalog every other engine package reads.
package catalog

import "encoding/json"

// Vehicle is a single marketplace listing. Values are never mutated once a
// Catalog has been built from them.
type Vehicle struct {
	ID           string       `json:"id"`
	Make         string       `json:"make"`
	Model        string       `json:"model"`
	Year         int          `json:"year"`
	Price        int          `json:"price"`
	Mileage      int          `json:"mileage"`
	FuelType     FuelType     `json:"fuelType"`
	Transmission Transmission `json:"transmission"`
	BodyType     BodyType     `json:"bodyType"`
	Image        string       `json:"image"`
	Description  string       `json:"description"`
	Features     []string     `json:"features"`
	Rating       float64      `json:"rating"`
}

// FuelType classifies a vehicle's power unit.
type FuelType string

const (
	FuelPetrol   FuelType = "Petrol"
	FuelDiesel   FuelType = "Diesel"
	FuelElectric FuelType = "Electric"
	FuelHybrid   FuelType = "Hybrid"
)

var fuelTypes = []FuelType{FuelPetrol, FuelDiesel, FuelElectric, FuelHybrid}

// FuelTypes returns the fuel types in filter-panel order.
func FuelTypes() []FuelType { return append([]FuelType(nil), fuelTypes...) }

// Valid reports whether f is one of the known fuel types.
func (f FuelType) Valid() bool {
	switch f {
	case FuelPetrol, FuelDiesel, FuelElectric, FuelHybrid:
		return true
	}
	return false
}

// ParseFuelType converts s into a FuelType.
func ParseFuelType(s string) (FuelType, error) {
	f := FuelType(s)
	if !f.Valid() {
		return "", NewValidationError("fuelType", s, ErrUnknownFuelType)
	}
	return f, nil
}

func (f *FuelType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseFuelType(s)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Transmission is the gearbox type.
type Transmission string

const (
	TransmissionAutomatic Transmission = "Automatic"
	TransmissionManual    Transmission = "Manual"
)

// Transmissions returns the known transmissions.
func Transmissions() []Transmission {
	return []Transmission{TransmissionAutomatic, TransmissionManual}
}

// Valid reports whether t is a known transmission.
func (t Transmission) Valid() bool {
	return t == TransmissionAutomatic || t == TransmissionManual
}

// ParseTransmission converts s into a Transmission.
func ParseTransmission(s string) (Transmission, error) {
	t := Transmission(s)
	if !t.Valid() {
		return "", NewValidationError("transmission", s, ErrUnknownTransmission)
	}
	return t, nil
}

func (t *Transmission) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseTransmission(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// BodyType is the body style of a vehicle.
type BodyType string

const (
	BodySedan     BodyType = "Sedan"
	BodySUV       BodyType = "SUV"
	BodyCoupe     BodyType = "Coupe"
	BodyHatchback BodyType = "Hatchback"
	BodyTruck     BodyType = "Truck"
)

var bodyTypes = []BodyType{BodySedan, BodySUV, BodyCoupe, BodyHatchback, BodyTruck}

// BodyTypes returns the body types in filter-panel order.
func BodyTypes() []BodyType { return append([]BodyType(nil), bodyTypes...) }

// Valid reports whether b is one of the known body types.
func (b BodyType) Valid() bool {
	switch b {
	case BodySedan, BodySUV, BodyCoupe, BodyHatchback, BodyTruck:
		return true
	}
	return false
}

// ParseBodyType converts s into a BodyType.
func ParseBodyType(s string) (BodyType, error) {
	b := BodyType(s)
	if !b.Valid() {
		return "", NewValidationError("bodyType", s, ErrUnknownBodyType)
	}
	return b, nil
}

func (b *BodyType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseBodyType(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}
