package classify

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/vehicleclass/internal/fields"
)

// Request is the numeric payload sent to POST /predict.
type Request struct {
	Length      float64     `json:"length"`
	Height      float64     `json:"height"`
	Width       float64     `json:"width"`
	Weight      float64     `json:"weight"`
	EnginePower float64     `json:"engine_power"`
	TopSpeed    float64     `json:"top_speed"`
	AxleCount   int         `json:"axle_count"`
	Seats       int         `json:"seats"`
	FuelType    fields.Fuel `json:"fuel_type"`
}

// Echo is the service's copy of the submitted payload. Numbers are decoded
// as float64 so integer fields echoed as 2.0 still round-trip.
type Echo struct {
	Length      float64 `json:"length"`
	Height      float64 `json:"height"`
	Width       float64 `json:"width"`
	Weight      float64 `json:"weight"`
	EnginePower float64 `json:"engine_power"`
	TopSpeed    float64 `json:"top_speed"`
	AxleCount   float64 `json:"axle_count"`
	Seats       float64 `json:"seats"`
	FuelType    string  `json:"fuel_type,omitempty"`
}

// Prediction is a successful classification. It is never mutated after the
// client returns it.
type Prediction struct {
	Label      string    `json:"prediction"`
	Confidence *float64  `json:"confidence,omitempty"`
	InputData  Echo      `json:"input_data"`
	Timestamp  Timestamp `json:"timestamp"`
}

// HasConfidence reports whether the service returned a confidence value.
func (p *Prediction) HasConfidence() bool { return p != nil && p.Confidence != nil }

// Health is the body of GET /health.
type Health struct {
	Status      string    `json:"status"`
	ModelLoaded bool      `json:"model_loaded"`
	APIVersion  string    `json:"api_version,omitempty"`
	Timestamp   Timestamp `json:"timestamp"`
}

// Healthy reports whether the service declared itself healthy.
func (h *Health) Healthy() bool { return h != nil && h.Status == "healthy" }

// ModelInfo is the body of GET /model-info.
type ModelInfo struct {
	ModelType    string   `json:"model_type"`
	FeatureCount int      `json:"feature_count"`
	Features     []string `json:"features"`
	Classes      []string `json:"classes,omitempty"`
}

// Timestamp accepts RFC 3339, zone-less ISO-8601 (read as UTC) or an epoch
// number in seconds or milliseconds.
type Timestamp struct {
	time.Time
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
const epochMillisThreshold = 1e12

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		return t.parseString(s)
	}
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("timestamp: %q is neither a string nor a number", data)
	}
	t.Time = fromEpoch(n)
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.UTC().Format(time.RFC3339Nano))), nil
}

func (t *Timestamp) parseString(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range isoLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		t.Time = fromEpoch(n)
		return nil
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

func fromEpoch(n float64) time.Time {
	if math.Abs(n) >= epochMillisThreshold {
		return time.UnixMilli(int64(n)).UTC()
	}
	sec, frac := math.Modf(n)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}
