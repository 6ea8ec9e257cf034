package render

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/dshills/vehicleclass/internal/classify"
)

type jsonRenderer struct{}

// jsonResult is the prediction plus its derived display fields.
type jsonResult struct {
	*classify.Prediction
	ConfidencePercent string `json:"confidence_percent,omitempty"`
	Tier              Tier   `json:"tier,omitempty"`
}

func (r *jsonRenderer) Render(p *classify.Prediction) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("no prediction to render")
	}
	out := jsonResult{Prediction: p}
	if p.HasConfidence() {
		out.ConfidencePercent = Percent(*p.Confidence)
		out.Tier = TierOf(*p.Confidence)
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("rendering json: %w", err)
	}
	return append(b, '\n'), nil
}
