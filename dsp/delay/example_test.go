package delay_test

import (
	"fmt"

	"github.com/cwbudde/algo-multidelay/dsp/delay"
)

func ExampleLine() {
	line, err := delay.NewLine(48000, 3)
	if err != nil {
		panic(err)
	}

	out := make([]float64, 5)
	for i, x := range []float64{1, 0, 0, 0, 0} {
		out[i] = line.Process(x)
	}
	fmt.Println(out)

	// Output:
	// [0 0 0 1 0]
}

func ExampleReverseLine() {
	line, err := delay.NewReverseLine(64, 4)
	if err != nil {
		panic(err)
	}

	for i := 1; i <= 4; i++ {
		line.Write(float64(i))
	}
	line.ResetHeadSeparation()

	out := make([]float64, 4)
	for i := range out {
		out[i] = line.ReadReverse()
	}
	fmt.Println(out)

	// Output:
	// [4 3 2 1]
}
