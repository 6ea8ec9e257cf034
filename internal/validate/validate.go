package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dshills/vehicleclass/internal/classify"
	"github.com/dshills/vehicleclass/internal/fields"
	"github.com/dshills/vehicleclass/internal/form"
)

// Violation is a single validation failure tied to one field.
type Violation struct {
	Field   string
	Message string
}

func (v *Violation) Error() string { return v.Message }

// Result is the outcome of one validation pass. Validation stops at the
// first failing rule, so Violations holds at most one entry.
type Result struct {
	Violations []Violation
}

// OK reports whether no rule failed.
func (r Result) OK() bool { return len(r.Violations) == 0 }

// First returns the first violation, or nil when the result is OK.
func (r Result) First() *Violation {
	if r.OK() {
		return nil
	}
	v := r.Violations[0]
	return &v
}

// upperBound is a hard domain limit applied after the presence rules.
type upperBound struct {
	field   string
	max     float64
	message string
}

// upperBounds run in this order. width, engine_power, top_speed and
// axle_count have no hard limit.
var upperBounds = []upperBound{
	{fields.Length, 20, "Vehicle length seems too large (max 20m)"},
	{fields.Height, 5, "Vehicle height seems too large (max 5m)"},
	{fields.Weight, 100000, "Vehicle weight seems too large (max 100,000kg)"},
	{fields.Seats, 100, "Number of seats seems too large (max 100)"},
}

// Check applies the presence, positivity and upper-bound rules to snap.
func Check(snap form.Snapshot) Result {
	_, v := parse(snap)
	if v != nil {
		return Result{Violations: []Violation{*v}}
	}
	return Result{}
}

// BuildRequest converts a valid snapshot into the numeric request. It
// returns the first violation when snap is not valid.
func BuildRequest(snap form.Snapshot) (classify.Request, error) {
	nums, v := parse(snap)
	if v != nil {
		return classify.Request{}, v
	}
	return classify.Request{
		Length:      nums[fields.Length],
		Height:      nums[fields.Height],
		Width:       nums[fields.Width],
		Weight:      nums[fields.Weight],
		EnginePower: nums[fields.EnginePower],
		TopSpeed:    nums[fields.TopSpeed],
		AxleCount:   int(nums[fields.AxleCount]),
		Seats:       int(nums[fields.Seats]),
		FuelType:    snap.Fuel,
	}, nil
}

// maxIntFloat bounds integer field values that convert safely to int.
const maxIntFloat = float64(math.MaxInt)

func parse(snap form.Snapshot) (map[string]float64, *Violation) {
	all := fields.All()
	nums := make(map[string]float64, len(all))
	for _, f := range all {
		n, ok := ParseValue(f, snap.Value(f.Name))
		if !ok || n <= 0 {
			return nil, &Violation{
				Field:   f.Name,
				Message: fmt.Sprintf("Please enter a valid %s", f.HumanName()),
			}
		}
		nums[f.Name] = n
	}

	for _, b := range upperBounds {
		if nums[b.field] > b.max {
			return nil, &Violation{Field: b.field, Message: b.message}
		}
	}

	// Integer fields without a hard limit must still fit the request's int.
	for _, f := range all {
		if f.Kind == fields.Integer && nums[f.Name] >= maxIntFloat {
			return nil, &Violation{
				Field:   f.Name,
				Message: fmt.Sprintf("Please enter a valid %s", f.HumanName()),
			}
		}
	}

	if !snap.Fuel.Valid() {
		return nil, &Violation{Field: fields.FuelType, Message: "Please select a valid fuel type"}
	}
	return nums, nil
}

// ParseValue parses raw text for field f. Integer fields are truncated
// toward zero. ok is false for empty, malformed, NaN or infinite input.
func ParseValue(f fields.Field, raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	if f.Kind == fields.Integer {
		n = math.Trunc(n)
	}
	return n, true
}
