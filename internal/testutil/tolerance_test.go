package testutil

import "testing"

func TestRequireHelpersPass(t *testing.T) {
	RequireSliceNearlyEqual(t, []float64{1, 2}, []float64{1 + 1e-12, 2}, 1e-9)
	RequireSliceNearlyEqual(t, nil, nil, 0)
	RequireFinite(t, []float64{0, -1, 1e300})
}
