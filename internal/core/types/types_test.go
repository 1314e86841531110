package types

import (
	"encoding/json"
	"testing"
)

func TestQuantity_Construction(t *testing.T) {
	if got := NewQuantityFromFloat64(0.5); got != Quantity(5000) {
		t.Errorf("0.5: want 5000 scaled, got %d", got)
	}
	// Rounds half away from zero at the 4th decimal.
	if got := NewQuantityFromFloat64(0.00005); got != Quantity(1) {
		t.Errorf("0.00005: want 1 scaled, got %d", got)
	}
	if got := NewQuantityFromInt(3); got != Quantity(30000) {
		t.Errorf("3: want 30000 scaled, got %d", got)
	}
}

func TestQuantity_MulInt(t *testing.T) {
	perUnit := NewQuantityFromFloat64(0.25)
	if got := perUnit.MulInt(12); got != NewQuantityFromInt(3) {
		t.Errorf("0.25 * 12: want 3, got %s", got)
	}
}

func TestQuantity_CeilUnits(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{0.5, 1},
		{1.0001, 2},
		{3, 3},
		{0, 0},
	}
	for _, tt := range tests {
		if got := NewQuantityFromFloat64(tt.in).CeilUnits(); got != NewQuantityFromInt(tt.want) {
			t.Errorf("ceil(%v): want %d, got %s", tt.in, tt.want, got)
		}
	}
}

func TestQuantity_String(t *testing.T) {
	if got := NewQuantityFromFloat64(2.5).String(); got != "2.5000" {
		t.Errorf("want 2.5000, got %s", got)
	}
	if got := NewQuantityFromFloat64(-0.1).String(); got != "-0.1000" {
		t.Errorf("want -0.1000, got %s", got)
	}
}

func TestQuantity_JSONRoundTrip(t *testing.T) {
	q := NewQuantityFromFloat64(12.3456)

	data, err := json.Marshal(q)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "12.3456" {
		t.Errorf("marshal: want 12.3456, got %s", data)
	}

	var back Quantity
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != q {
		t.Errorf("round trip: want %s, got %s", q, back)
	}

	// Strings and short fractions are accepted on input.
	if err := json.Unmarshal([]byte(`"7.5"`), &back); err != nil {
		t.Fatal(err)
	}
	if back != NewQuantityFromFloat64(7.5) {
		t.Errorf("string input: want 7.5000, got %s", back)
	}

	// Extra fractional digits are truncated, not rounded.
	if err := json.Unmarshal([]byte("0.00009"), &back); err != nil {
		t.Fatal(err)
	}
	if back != Quantity(0) {
		t.Errorf("truncation: want 0, got %d", back)
	}
}
