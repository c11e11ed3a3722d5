package angle

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{359.5, 359.5},
		{360, 0},
		{720.25, 0.25},
		{-90, 270},
		{-1e-15, 0},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(-3, 0, 90); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	if got := Clamp(91, 0, 90); got != 90 {
		t.Errorf("expected 90, got %v", got)
	}
	if got := Clamp(45, 0, 90); got != 45 {
		t.Errorf("expected 45, got %v", got)
	}
}
