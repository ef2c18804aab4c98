package ai

import (
	"math"
	"testing"
)

func TestL2Normalize_UnitNorm(t *testing.T) {
	v := []float32{3, 4} // 3-4-5 triangle
	got := l2Normalize(v)

	var sumSq float64
	for _, x := range got {
		sumSq += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSq)
	if math.Abs(norm-1) > 1e-4 {
		t.Errorf("‖v‖ = %v, want 1 ± 1e-4", norm)
	}
	if math.Abs(float64(got[0])-0.6) > 1e-6 || math.Abs(float64(got[1])-0.8) > 1e-6 {
		t.Errorf("normalized vector = %v, want [0.6 0.8]", got)
	}
}

func TestL2Normalize_ZeroVectorUnchanged(t *testing.T) {
	v := []float32{0, 0, 0}
	got := l2Normalize(v)
	for i, x := range got {
		if x != v[i] {
			t.Errorf("zero vector should be returned unchanged, got %v", got)
		}
	}
}
