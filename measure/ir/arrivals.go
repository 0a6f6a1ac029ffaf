package ir

import "math"

// Arrivals returns the indices where |ir| rises to at least threshold
// from below it. A sample already above threshold at index 0 counts as an
// arrival.
func Arrivals(ir []float64, threshold float64) []int {
	var out []int

	above := false
	for i, v := range ir {
		hit := math.Abs(v) >= threshold
		if hit && !above {
			out = append(out, i)
		}

		above = hit
	}

	return out
}
