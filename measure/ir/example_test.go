package ir_test

import (
	"fmt"
	"io"

	"github.com/cwbudde/algo-multidelay/dsp/bank"
	"github.com/cwbudde/algo-multidelay/measure/ir"
	"github.com/sirupsen/logrus"
)

func ExampleCapture() {
	log := logrus.New()
	log.SetOutput(io.Discard)

	b, err := bank.New(
		bank.WithSampleRate(1000),
		bank.WithMaxDelayMs(50),
		bank.WithTaps(2),
		bank.WithTapDelaysMs([]float64{5, 9}),
		bank.WithFeedback(0.5),
		bank.WithLogger(log),
	)
	if err != nil {
		panic(err)
	}

	resp, err := ir.Capture(b, 20, 8)
	if err != nil {
		panic(err)
	}

	fmt.Println(ir.Arrivals(resp.Left, 0.1))
	fmt.Println(resp.Left[5], resp.Left[10], resp.Left[18])
	// Output:
	// [0 5 9 15 18]
	// 0.5 0.25 0.25
}

func ExampleAnalyzer_MagnitudeResponse() {
	// A single echo of equal level cancels the frequency whose half
	// period equals the echo delay.
	h := []float64{1, 0, 0, 0, 1}

	mag, err := ir.NewAnalyzer(8000).MagnitudeResponse(h, 16)
	if err != nil {
		panic(err)
	}

	fmt.Printf("DC %.1f, 1 kHz %.1f\n", mag[0], mag[2])
	// Output:
	// DC 2.0, 1 kHz 0.0
}
