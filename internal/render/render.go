package render

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dshills/vehicleclass/internal/classify"
)

// Renderer formats a Prediction into bytes for output.
type Renderer interface {
	Render(p *classify.Prediction) ([]byte, error)
}

// Formats lists the supported format names.
var Formats = []string{"text", "md", "json"}

// NewRenderer returns a Renderer for the given format string.
// Supported formats: "text" (default), "md", "json". Timestamps are shown in
// the local time zone.
func NewRenderer(format string) (Renderer, error) {
	return newRenderer(format, time.Local)
}

func newRenderer(format string, loc *time.Location) (Renderer, error) {
	switch format {
	case "", "text":
		return &textRenderer{loc: loc}, nil
	case "md":
		return &markdownRenderer{loc: loc}, nil
	case "json":
		return &jsonRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q: supported formats are text, md, json", format)
	}
}

// summaryItem is one row of the input summary.
type summaryItem struct {
	Label string
	Value string
}

// view is the template model shared by the text and markdown renderers.
type view struct {
	Glyph         string
	Label         string
	HasConfidence bool
	Percent       string
	Tier          Tier
	Bar           string
	Summary       []summaryItem
	ClassifiedAt  string
}

const barWidth = 20

func newView(p *classify.Prediction, loc *time.Location) view {
	v := view{
		Glyph: Glyph(p.Label),
		Label: p.Label,
		Summary: []summaryItem{
			{"Length", formatNumber(p.InputData.Length) + "m"},
			{"Height", formatNumber(p.InputData.Height) + "m"},
			{"Width", formatNumber(p.InputData.Width) + "m"},
			{"Weight", formatNumber(p.InputData.Weight) + "kg"},
			{"Power", formatNumber(p.InputData.EnginePower) + "HP"},
			{"Seats", formatNumber(p.InputData.Seats)},
		},
		ClassifiedAt: "unknown",
	}
	if p.HasConfidence() {
		c := *p.Confidence
		v.HasConfidence = true
		v.Percent = Percent(c)
		v.Tier = TierOf(c)
		v.Bar = bar(c)
	}
	if !p.Timestamp.IsZero() {
		v.ClassifiedAt = p.Timestamp.In(loc).Format("2006-01-02 15:04:05 MST")
	}
	return v
}

func bar(c float64) string {
	filled := int(c*barWidth + 0.5)
	out := make([]rune, barWidth)
	for i := range out {
		if i < filled {
			out[i] = '█'
		} else {
			out[i] = '░'
		}
	}
	return string(out)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFixed(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
