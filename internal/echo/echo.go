package echo

import (
	"fmt"
	"math"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dshills/vehicleclass/internal/classify"
)

// tolerance absorbs float formatting noise in the service's echo.
const tolerance = 1e-9

// Mismatch is one field whose echoed value differs from what was sent.
type Mismatch struct {
	Field string
	Sent  string
	Echo  string
}

type line struct {
	field string
	sent  float64
	echo  float64
}

func pairs(req classify.Request, e classify.Echo) []line {
	return []line{
		{"length", req.Length, e.Length},
		{"height", req.Height, e.Height},
		{"width", req.Width, e.Width},
		{"weight", req.Weight, e.Weight},
		{"engine_power", req.EnginePower, e.EnginePower},
		{"top_speed", req.TopSpeed, e.TopSpeed},
		{"axle_count", float64(req.AxleCount), e.AxleCount},
		{"seats", float64(req.Seats), e.Seats},
	}
}

// Compare returns the fields whose echoed value is not numerically equal to
// the submitted one. An echo without fuel_type is not a mismatch.
func Compare(req classify.Request, e classify.Echo) []Mismatch {
	var out []Mismatch
	for _, p := range pairs(req, e) {
		if math.Abs(p.sent-p.echo) > tolerance {
			out = append(out, Mismatch{Field: p.field, Sent: formatNumber(p.sent), Echo: formatNumber(p.echo)})
		}
	}
	if e.FuelType != "" && e.FuelType != string(req.FuelType) {
		out = append(out, Mismatch{Field: "fuel_type", Sent: string(req.FuelType), Echo: e.FuelType})
	}
	return out
}

// Diff renders the submitted request and the echo as "field: value" lines
// and returns a patch in diff-match-patch text format. It returns "" when
// they agree.
func Diff(req classify.Request, e classify.Echo) string {
	if len(Compare(req, e)) == 0 {
		return ""
	}
	sent, echoed := Lines(req, e)

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(sent, echoed)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)
	return dmp.PatchToText(dmp.PatchMake(sent, diffs))
}

// Lines returns the canonical text form of the request and the echo.
func Lines(req classify.Request, e classify.Echo) (sent, echoed string) {
	var sb, eb strings.Builder
	for _, p := range pairs(req, e) {
		fmt.Fprintf(&sb, "%s: %s\n", p.field, formatNumber(p.sent))
		fmt.Fprintf(&eb, "%s: %s\n", p.field, formatNumber(p.echo))
	}
	fuel := e.FuelType
	if fuel == "" {
		fuel = string(req.FuelType)
	}
	fmt.Fprintf(&sb, "fuel_type: %s\n", req.FuelType)
	fmt.Fprintf(&eb, "fuel_type: %s\n", fuel)
	return sb.String(), eb.String()
}

func formatNumber(f float64) string {
	return fmt.Sprintf("%g", f)
}
