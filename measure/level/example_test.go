package level_test

import (
	"fmt"

	"github.com/cwbudde/algo-multidelay/measure/level"
)

func ExampleCalculate() {
	l := level.Calculate([]float64{0.5, -0.5, 0.5, -0.5})
	fmt.Printf("peak %.1f dBFS, rms %.1f dBFS, crest %.1f dB\n", l.PeakDB(), l.RMSDB(), l.CrestDB())
	// Output: peak -6.0 dBFS, rms -6.0 dBFS, crest 0.0 dB
}
