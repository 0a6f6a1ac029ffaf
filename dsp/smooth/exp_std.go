//go:build !fastmath

package smooth

import "math"

func expNeg(x float64) float64 {
	return math.Exp(-x)
}
