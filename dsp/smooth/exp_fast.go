//go:build fastmath

package smooth

import "github.com/meko-christian/algo-approx"

// expNeg uses the fast approximation; coefficients are computed at control
// rate so the small error only shifts the time constant slightly.
func expNeg(x float64) float64 {
	return approx.FastExp(-x)
}
