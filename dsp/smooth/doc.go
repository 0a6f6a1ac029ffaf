// Package smooth implements the one-pole parameter smoother that sits
// between control-rate targets and the per-sample processing path.
//
// Each step moves the current value a fixed fraction of the remaining
// distance toward the target:
//
//	current += coef * (target - current)
//
// A coefficient of 1 snaps immediately; smaller coefficients give a longer
// exponential glide. [Coefficient] derives the fraction from a time
// constant in milliseconds and the sample rate.
package smooth
