package core

import (
	"math"
	"testing"
)

func TestNormalizeVector(t *testing.T) {
	t.Run("unit length after normalization", func(t *testing.T) {
		v := NormalizeVector([]float32{3, 4})

		var magnitude float64
		for _, val := range v {
			magnitude += float64(val) * float64(val)
		}
		magnitude = math.Sqrt(magnitude)

		if math.Abs(magnitude-1.0) > 1e-6 {
			t.Errorf("normalized magnitude = %v, want 1.0", magnitude)
		}
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		v := NormalizeVector([]float32{0, 0, 0})
		for i, val := range v {
			if val != 0 {
				t.Errorf("element %d = %v, want 0", i, val)
			}
		}
	})

	t.Run("empty vector", func(t *testing.T) {
		v := NormalizeVector(nil)
		if len(v) != 0 {
			t.Errorf("len = %d, want 0", len(v))
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []float32{3, 4}
		NormalizeVector(in)
		if in[0] != 3 || in[1] != 4 {
			t.Errorf("input mutated: %v", in)
		}
	})
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{"identical vectors", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0.0},
		{"empty", nil, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
	}

	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
