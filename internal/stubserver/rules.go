package stubserver

// Vehicle labels produced by the rule-based model, in sorted class order.
var classes = []string{"Bike", "Bus", "Car", "SUV", "Truck"}

// featureColumns is the feature vector layout the model advertises.
var featureColumns = []string{
	"length", "height", "width", "weight",
	"engine_power", "top_speed", "axle_count",
	"seats", "fuel_type_diesel", "fuel_type_electric",
	"fuel_type_hybrid", "fuel_type_petrol",
}

// vehicle is one decoded prediction input.
type vehicle struct {
	Length      float64
	Height      float64
	Width       float64
	Weight      float64
	EnginePower float64
	TopSpeed    float64
	AxleCount   int
	Seats       int
	Fuel        string
}

// fuelEncoding one-hot encodes the fuel type as diesel, electric, hybrid,
// petrol. Unknown fuels encode as all zeros.
func fuelEncoding(fuel string) [4]float64 {
	var enc [4]float64
	switch fuel {
	case "diesel":
		enc[0] = 1
	case "electric":
		enc[1] = 1
	case "hybrid":
		enc[2] = 1
	case "petrol":
		enc[3] = 1
	}
	return enc
}

// Features returns the model input vector for v.
func (v vehicle) Features() []float64 {
	enc := fuelEncoding(v.Fuel)
	return []float64{
		v.Length, v.Height, v.Width, v.Weight,
		v.EnginePower, v.TopSpeed, float64(v.AxleCount), float64(v.Seats),
		enc[0], enc[1], enc[2], enc[3],
	}
}

// classifyVehicle applies the labelling rules the demo model was trained
// on. The first matching rule wins; the fallback is Car with low confidence.
func classifyVehicle(v vehicle) (string, float64) {
	switch {
	case v.Length < 3 && v.Seats <= 2:
		return "Bike", 0.92
	case v.Length < 5.5 && v.Weight < 2500 && v.Seats <= 7:
		return "Car", 0.85
	case v.Length >= 5 && v.Length <= 6 && v.Weight < 3000 && v.Seats <= 7:
		return "SUV", 0.78
	case v.Length > 8 && v.Seats > 20:
		return "Bus", 0.9
	case v.Weight > 7500:
		return "Truck", 0.88
	default:
		return "Car", 0.55
	}
}
