package vehiclenlp

import (
	"slices"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input     string
		wantMakes []string
		wantMax   int
		wantMin   int
		wantYears []int
		wantBody  []string
		wantFuel  []string
	}{
		{"cheap electric car under $50k", nil, 50000, 0, nil, nil, []string{"Electric"}},
		{"a family SUV", nil, 0, 0, nil, []string{"SUV"}, nil},
		{"something like a Tesla Model 3", []string{"Tesla"}, 0, 0, nil, nil, nil},
		{"2024 Porsche or a merc", []string{"Porsche", "Mercedes-Benz"}, 0, 0, []int{2024}, nil, nil},
		{"pickup truck over 100,000", nil, 0, 100000, nil, []string{"Truck"}, nil},
		{"hybrid sedan below 2000", nil, 2000, 0, nil, []string{"Sedan"}, []string{"Hybrid"}},
		{"Mercedes-Benz S-Class", []string{"Mercedes-Benz"}, 0, 0, nil, nil, nil},
		{"fastest car with a budget of 1.5m", nil, 1500000, 0, nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			h := Parse(tt.input)
			if !slices.Equal(h.Makes, tt.wantMakes) {
				t.Errorf("Makes = %v, want %v", h.Makes, tt.wantMakes)
			}
			if h.MaxPrice != tt.wantMax {
				t.Errorf("MaxPrice = %d, want %d", h.MaxPrice, tt.wantMax)
			}
			if h.MinPrice != tt.wantMin {
				t.Errorf("MinPrice = %d, want %d", h.MinPrice, tt.wantMin)
			}
			if !slices.Equal(h.Years, tt.wantYears) {
				t.Errorf("Years = %v, want %v", h.Years, tt.wantYears)
			}
			if !slices.Equal(h.BodyTypes, tt.wantBody) {
				t.Errorf("BodyTypes = %v, want %v", h.BodyTypes, tt.wantBody)
			}
			if !slices.Equal(h.FuelTypes, tt.wantFuel) {
				t.Errorf("FuelTypes = %v, want %v", h.FuelTypes, tt.wantFuel)
			}
		})
	}
}

func TestParseModels(t *testing.T) {
	h := Parse("is the F-150 Raptor better than a Rivian R1T?")
	want := []string{"Ford F-150", "Ford Raptor", "Rivian R1T"}
	if !slices.Equal(h.Models, want) {
		t.Fatalf("Models = %v, want %v", h.Models, want)
	}
	if !slices.Equal(h.Makes, []string{"Rivian", "Ford"}) {
		t.Fatalf("Makes = %v", h.Makes)
	}
}

func TestParseWordBoundaries(t *testing.T) {
	h := Parse("prevent gasket leaks on my Macintosh")
	if !h.Empty() {
		t.Fatalf("expected no hints, got %+v", h)
	}
}

func TestParseEmpty(t *testing.T) {
	if h := Parse("   "); !h.Empty() {
		t.Fatalf("expected empty hints, got %+v", h)
	}
}

func TestHintsString(t *testing.T) {
	h := Parse("electric BMW under 80k")
	want := "brands: BMW; price at most $80000; fuel: Electric"
	if got := h.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if got := (Hints{}).String(); got != "" {
		t.Fatalf("empty String() = %q", got)
	}
}
