package testutil

import (
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t at the first index where got and want
// differ by more than eps, or if their lengths differ.
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d samples, want %d", len(got), len(want))
	}
	for i, w := range want {
		if d := math.Abs(got[i] - w); d > eps || math.IsNaN(d) {
			t.Fatalf("sample %d: got %v, want %v (|diff| %g > %g)", i, got[i], w, d, eps)
		}
	}
}

// RequireFinite fails t at the first NaN or Inf sample.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("sample %d: non-finite value %v", i, v)
		}
	}
}
