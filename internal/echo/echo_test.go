package echo

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/vehicleclass/internal/classify"
	"github.com/dshills/vehicleclass/internal/fields"
)

func request() classify.Request {
	return classify.Request{
		Length: 4.5, Height: 1.8, Width: 2, Weight: 1500,
		EnginePower: 150, TopSpeed: 180, AxleCount: 2, Seats: 5,
		FuelType: fields.Diesel,
	}
}

func faithfulEcho() classify.Echo {
	return classify.Echo{
		Length: 4.5, Height: 1.8, Width: 2, Weight: 1500,
		EnginePower: 150, TopSpeed: 180, AxleCount: 2, Seats: 5,
		FuelType: "diesel",
	}
}

func TestCompare_FaithfulEcho(t *testing.T) {
	if got := Compare(request(), faithfulEcho()); len(got) != 0 {
		t.Errorf("expected no mismatches, got %v", got)
	}
	if got := Diff(request(), faithfulEcho()); got != "" {
		t.Errorf("expected empty diff, got %q", got)
	}
}

func TestCompare_MissingFuelIsNotMismatch(t *testing.T) {
	e := faithfulEcho()
	e.FuelType = ""
	if got := Compare(request(), e); len(got) != 0 {
		t.Errorf("expected no mismatches, got %v", got)
	}
}

func TestCompare_ReportsChangedFields(t *testing.T) {
	e := faithfulEcho()
	e.Seats = 50
	e.FuelType = "petrol"

	want := []Mismatch{
		{Field: "seats", Sent: "5", Echo: "50"},
		{Field: "fuel_type", Sent: "diesel", Echo: "petrol"},
	}
	if diff := cmp.Diff(want, Compare(request(), e)); diff != "" {
		t.Errorf("mismatches (-want +got):\n%s", diff)
	}
}

func TestDiff_ProducesPatch(t *testing.T) {
	e := faithfulEcho()
	e.Length = 45
	out := Diff(request(), e)
	if out == "" {
		t.Fatal("expected a non-empty patch")
	}
	if !strings.HasPrefix(out, "@@") {
		t.Errorf("patch does not look like diff-match-patch text: %q", out)
	}
	if !strings.Contains(out, "length") {
		t.Errorf("patch does not mention the changed field: %q", out)
	}
}

func TestLines_Canonical(t *testing.T) {
	sent, echoed := Lines(request(), faithfulEcho())
	if sent != echoed {
		t.Errorf("faithful echo renders differently:\n%s\nvs\n%s", sent, echoed)
	}
	if !strings.Contains(sent, "axle_count: 2\n") {
		t.Errorf("unexpected canonical text: %q", sent)
	}
}
