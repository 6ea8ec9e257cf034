package fields

import (
	"fmt"
	"math"
)

// Kind is the numeric type a field is parsed as.
type Kind int

const (
	Decimal Kind = iota
	Integer
)

func (k Kind) String() string {
	if k == Integer {
		return "integer"
	}
	return "decimal"
}

// Field names. The order of All() follows this list.
const (
	Length      = "length"
	Height      = "height"
	Width       = "width"
	Weight      = "weight"
	EnginePower = "engine_power"
	TopSpeed    = "top_speed"
	AxleCount   = "axle_count"
	Seats       = "seats"
	FuelType    = "fuel_type"
)

// Field is the static description of one numeric input.
// Minimum and Maximum are UI hints; hard limits live in the validator.
type Field struct {
	Name        string
	Label       string
	Unit        string
	Placeholder string
	Step        float64
	Minimum     float64
	Maximum     float64 // math.Inf(1) when unbounded
	Kind        Kind
}

// Bounded reports whether the field declares a finite maximum.
func (f Field) Bounded() bool { return !math.IsInf(f.Maximum, 1) }

// HumanName is the field name with its first underscore replaced by a space,
// as used in validation messages ("engine power", "axle count").
func (f Field) HumanName() string { return humanName(f.Name) }

var unbounded = math.Inf(1)

var table = []Field{
	{Name: Length, Label: "Vehicle Length", Unit: "m", Placeholder: "e.g., 4.5", Step: 0.1, Minimum: 0.1, Maximum: unbounded, Kind: Decimal},
	{Name: Height, Label: "Vehicle Height", Unit: "m", Placeholder: "e.g., 1.8", Step: 0.1, Minimum: 0.1, Maximum: unbounded, Kind: Decimal},
	{Name: Width, Label: "Vehicle Width", Unit: "m", Placeholder: "e.g., 2.0", Step: 0.1, Minimum: 0.1, Maximum: unbounded, Kind: Decimal},
	{Name: Weight, Label: "Vehicle Weight", Unit: "kg", Placeholder: "e.g., 1500", Step: 1, Minimum: 1, Maximum: unbounded, Kind: Decimal},
	{Name: EnginePower, Label: "Engine Power", Unit: "HP", Placeholder: "e.g., 150", Step: 1, Minimum: 1, Maximum: unbounded, Kind: Decimal},
	{Name: TopSpeed, Label: "Top Speed", Unit: "km/h", Placeholder: "e.g., 180", Step: 1, Minimum: 1, Maximum: unbounded, Kind: Decimal},
	{Name: AxleCount, Label: "Axle Count", Placeholder: "e.g., 2", Step: 1, Minimum: 1, Maximum: 10, Kind: Integer},
	{Name: Seats, Label: "Number of Seats", Placeholder: "e.g., 5", Step: 1, Minimum: 1, Maximum: 100, Kind: Integer},
}

// All returns the numeric fields in form order. The slice is a copy.
func All() []Field {
	out := make([]Field, len(table))
	copy(out, table)
	return out
}

// Names returns the numeric field names in form order.
func Names() []string {
	out := make([]string, len(table))
	for i, f := range table {
		out[i] = f.Name
	}
	return out
}

// Lookup returns the field with the given name.
func Lookup(name string) (Field, bool) {
	for _, f := range table {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Check verifies the table invariants: unique names and Minimum <= Maximum.
func Check() error {
	seen := make(map[string]bool, len(table))
	for i, f := range table {
		if f.Name == "" {
			return fmt.Errorf("field[%d]: name is required", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("field[%d]: duplicate name %q", i, f.Name)
		}
		seen[f.Name] = true
		if f.Minimum > f.Maximum {
			return fmt.Errorf("field %q: minimum %g exceeds maximum %g", f.Name, f.Minimum, f.Maximum)
		}
	}
	return nil
}

func humanName(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '_' {
			return name[:i] + " " + name[i+1:]
		}
	}
	return name
}
