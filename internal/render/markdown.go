package render

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/dshills/vehicleclass/internal/classify"
)

type markdownRenderer struct {
	loc *time.Location
}

var mdTemplate = template.Must(template.New("result").Parse(`# Classification Result

**{{ .Glyph }} {{ .Label }}** (predicted vehicle type)
{{ if .HasConfidence }}
**Confidence:** {{ .Percent }} · {{ .Tier }}
{{ end }}
---

## Input Summary

| Field | Value |
|---|---|
{{ range .Summary }}| {{ .Label }} | {{ .Value }} |
{{ end }}
*Classified at: {{ .ClassifiedAt }}*
`))

func (r *markdownRenderer) Render(p *classify.Prediction) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("no prediction to render")
	}
	var buf bytes.Buffer
	if err := mdTemplate.Execute(&buf, newView(p, r.loc)); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}
