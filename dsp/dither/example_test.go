package dither_test

import (
	"fmt"

	"github.com/cwbudde/algo-multidelay/dsp/dither"
)

func ExampleQuantizer_QuantizeBlock() {
	q, err := dither.NewQuantizer(
		dither.WithBitDepth(8),
		dither.WithDitherType(dither.DitherNone),
	)
	if err != nil {
		panic(err)
	}

	codes := make([]int, 5)
	q.QuantizeBlock(codes, []float64{0, 0.5, 1, -1, 3})
	fmt.Println(codes, q.Clipped())
	// Output: [0 64 127 -127 127] 1
}
