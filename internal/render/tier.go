package render

// Tier buckets a confidence value for display.
type Tier string

const (
	TierHigh   Tier = "High Confidence"
	TierMedium Tier = "Medium Confidence"
	TierLow    Tier = "Low Confidence"
)

// Tier thresholds are inclusive lower bounds.
const (
	highThreshold   = 0.8
	mediumThreshold = 0.6
)

// TierOf returns the tier for a confidence in [0,1].
func TierOf(confidence float64) Tier {
	switch {
	case confidence >= highThreshold:
		return TierHigh
	case confidence >= mediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// Percent formats a confidence in [0,1] as a percentage with one decimal,
// e.g. 0.8543 -> "85.4%".
func Percent(confidence float64) string {
	return formatFixed(confidence*100, 1) + "%"
}

var glyphs = map[string]string{
	"Bike":       "🏍",
	"Motorcycle": "🏍",
	"Car":        "🚗",
	"SUV":        "🚙",
	"Bus":        "🚌",
	"Truck":      "🚛",
	"Van":        "🚐",
}

// Glyph returns a pictogram for a vehicle label, defaulting to a car.
func Glyph(label string) string {
	if g, ok := glyphs[label]; ok {
		return g
	}
	return glyphs["Car"]
}
