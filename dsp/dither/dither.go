// Package dither converts the float output of the delay network into the
// integer samples written to fixed-point files.
package dither

import "fmt"

// DitherType selects the probability distribution of the dither noise.
type DitherType int

const (
	// DitherNone truncates without noise.
	DitherNone DitherType = iota
	// DitherRectangular adds uniform noise.
	DitherRectangular
	// DitherTriangular adds triangular (TPDF) noise, the default.
	DitherTriangular

	ditherTypeCount
)

var ditherTypeNames = [ditherTypeCount]string{"none", "rectangular", "triangular"}

// String returns the name of the dither type.
func (dt DitherType) String() string {
	if dt.Valid() {
		return ditherTypeNames[dt]
	}
	return fmt.Sprintf("DitherType(%d)", int(dt))
}

// Valid reports whether dt is a known dither type.
func (dt DitherType) Valid() bool {
	return dt >= 0 && dt < ditherTypeCount
}

// ParseDitherType is the inverse of String.
func ParseDitherType(s string) (DitherType, error) {
	for dt := DitherNone; dt < ditherTypeCount; dt++ {
		if ditherTypeNames[dt] == s {
			return dt, nil
		}
	}
	return DitherNone, fmt.Errorf("dither: unknown dither type %q", s)
}
