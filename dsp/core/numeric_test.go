package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		lo    float64
		hi    float64
		want  float64
	}{
		{name: "inside", value: 0.5, lo: 0, hi: 1, want: 0.5},
		{name: "below", value: -1, lo: 0, hi: 1, want: 0},
		{name: "above", value: 2, lo: 0, hi: 1, want: 1},
		{name: "swapped", value: 2, lo: 1, hi: 0, want: 1},
		{name: "cutoff", value: 30000, lo: 1, hi: 24000, want: 24000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.value, tt.lo, tt.hi); got != tt.want {
				t.Fatalf("Clamp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(0.25) {
		t.Fatal("0.25 should be finite")
	}

	if IsFinite(math.NaN()) || IsFinite(math.Inf(1)) || IsFinite(math.Inf(-1)) {
		t.Fatal("NaN and Inf must not be finite")
	}
}

func TestFlushDenormals(t *testing.T) {
	if got := FlushDenormals(1e-35); got != 0 {
		t.Fatalf("FlushDenormals(1e-35) = %v, want 0", got)
	}

	if got := FlushDenormals(-0.5); got != -0.5 {
		t.Fatalf("FlushDenormals(-0.5) = %v, want -0.5", got)
	}
}
