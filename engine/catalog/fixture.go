package catalog

const imageBase = "https://images.unsplash.com/"
const imageParams = "?auto=format&fit=crop&q=80&w=1200"

// Fixture returns the showroom listings served when no other inventory is
// configured.
func Fixture() []Vehicle {
	return []Vehicle{
		{
			ID:           "1",
			Make:         "Tesla",
			Model:        "Model 3 Performance",
			Year:         2023,
			Price:        42990,
			Mileage:      5000,
			FuelType:     FuelElectric,
			Transmission: TransmissionAutomatic,
			BodyType:     BodySedan,
			Image:        imageBase + "photo-1617788138017-80ad40651399" + imageParams,
			Description:  "The Tesla Model 3 is designed for electric-powered performance, with dual motor AWD, quick acceleration, long range and fast charging.",
			Features:     []string{"Autopilot", "Panoramic Roof", "Premium Audio", "Heated Seats"},
			Rating:       4.8,
		},
		{
			ID:           "2",
			Make:         "BMW",
			Model:        "M4 Competition",
			Year:         2022,
			Price:        78500,
			Mileage:      12000,
			FuelType:     FuelPetrol,
			Transmission: TransmissionAutomatic,
			BodyType:     BodyCoupe,
			Image:        imageBase + "photo-1580273916550-e323be2ae537" + imageParams,
			Description:  "A benchmark luxury coupe that combines aggressive performance, comfort, and cutting-edge technology.",
			Features:     []string{"Leather Interior", "Apple CarPlay", "Surround View Camera", "Adaptive Cruise"},
			Rating:       4.6,
		},
		{
			ID:           "3",
			Make:         "Porsche",
			Model:        "911 GT3",
			Year:         2024,
			Price:        182000,
			Mileage:      850,
			FuelType:     FuelPetrol,
			Transmission: TransmissionAutomatic,
			BodyType:     BodyCoupe,
			Image:        imageBase + "photo-1503376780353-7e6692767b70" + imageParams,
			Description:  "The quintessential sports car. Timeless design, unparalleled driving dynamics, and a legacy of racing excellence.",
			Features:     []string{"Sport Chrono Package", "Bose Sound", "PASM", "Heated Steering Wheel"},
			Rating:       4.9,
		},
		{
			ID:           "4",
			Make:         "Mercedes-Benz",
			Model:        "S63 E Performance AMG",
			Year:         2025,
			Price:        185000,
			Mileage:      15,
			FuelType:     FuelHybrid,
			Transmission: TransmissionAutomatic,
			BodyType:     BodySedan,
			Image:        imageBase + "photo-1618843479313-40f8afb4b4d8" + imageParams,
			Description:  "The pinnacle of luxury performance. The 2025 S63 combines a twin-turbo V8 with high-performance hybrid technology for unrivaled power and comfort.",
			Features:     []string{"Night Vision", "Rear-Axle Steering", "Burmester 4D Sound", "AMG Ride Control+"},
			Rating:       4.9,
		},
		{
			ID:           "5",
			Make:         "Audi",
			Model:        "RS e-tron GT",
			Year:         2024,
			Price:        147000,
			Mileage:      50,
			FuelType:     FuelElectric,
			Transmission: TransmissionAutomatic,
			BodyType:     BodySedan,
			Image:        imageBase + "photo-1614200187524-dc4b892acf16" + imageParams,
			Description:  "Sculpted by the wind, powered by progress. The RS e-tron GT is Audi's electric masterpiece.",
			Features:     []string{"Quattro AWD", "Matrix LED Headlights", "B&O Sound", "Carbon Fiber Trim"},
			Rating:       4.8,
		},
		{
			ID:           "6",
			Make:         "Ford",
			Model:        "F-150 Raptor R",
			Year:         2023,
			Price:        109000,
			Mileage:      3400,
			FuelType:     FuelPetrol,
			Transmission: TransmissionAutomatic,
			BodyType:     BodyTruck,
			Image:        imageBase + "photo-1583121274602-3e2820c69888" + imageParams,
			Description:  "The absolute pinnacle of desert-racing capability and raw truck performance.",
			Features:     []string{"Supercharged V8", "Fox Live Valve Shocks", "37-inch Tires", "Recaro Seats"},
			Rating:       4.9,
		},
	}
}

// FixtureMakes is the brand list offered by the filter panel. It includes
// brands with no current listings.
func FixtureMakes() []string {
	return []string{"Tesla", "BMW", "Porsche", "Rivian", "Audi", "Ford", "Toyota", "Mercedes-Benz"}
}
