package render

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/dshills/vehicleclass/internal/classify"
)

type textRenderer struct {
	loc *time.Location
}

var textTemplate = template.Must(template.New("text").Parse(`{{ .Glyph }}  {{ .Label }}
Predicted Vehicle Type
{{ if .HasConfidence }}
Model Confidence: {{ .Percent }} ({{ .Tier }})
[{{ .Bar }}]
{{ end }}
Input Summary
{{ range .Summary }}  {{ printf "%-8s" (print .Label ":") }} {{ .Value }}
{{ end }}
Classified at: {{ .ClassifiedAt }}
`))

func (r *textRenderer) Render(p *classify.Prediction) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("no prediction to render")
	}
	var buf bytes.Buffer
	if err := textTemplate.Execute(&buf, newView(p, r.loc)); err != nil {
		return nil, fmt.Errorf("rendering text: %w", err)
	}
	return buf.Bytes(), nil
}
