// Package interp provides the fractional-read kernels used by the delay
// lines while their smoothed length glides between integer values.
//
// Available methods, from cheapest to highest quality:
//
//   - [Linear2]:  2-point linear interpolation (default)
//   - [Hermite4]: 4-point cubic Hermite
//
// The [Mode] enum selects the kernel at construction time.
package interp
