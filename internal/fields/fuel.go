package fields

import "fmt"

// Fuel is the enumerated fuel type sent with every request.
type Fuel string

const (
	Petrol   Fuel = "petrol"
	Diesel   Fuel = "diesel"
	Electric Fuel = "electric"
	Hybrid   Fuel = "hybrid"
)

// DefaultFuel is the fuel type of a fresh or reset form.
const DefaultFuel = Petrol

// Fuels returns the fuel types in display order.
func Fuels() []Fuel {
	return []Fuel{Petrol, Diesel, Electric, Hybrid}
}

// Valid reports whether f is one of the four defined fuel types.
func (f Fuel) Valid() bool {
	switch f {
	case Petrol, Diesel, Electric, Hybrid:
		return true
	}
	return false
}

// Label is the display name of the fuel type.
func (f Fuel) Label() string {
	switch f {
	case Petrol:
		return "Petrol"
	case Diesel:
		return "Diesel"
	case Electric:
		return "Electric"
	case Hybrid:
		return "Hybrid"
	}
	return string(f)
}

// ParseFuel converts a raw string into a Fuel.
func ParseFuel(s string) (Fuel, error) {
	f := Fuel(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown fuel type %q: valid types are petrol, diesel, electric, hybrid", s)
	}
	return f, nil
}
