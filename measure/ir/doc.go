// Package ir captures and analyzes impulse responses of stereo block
// processors such as a delay bank.
//
// [Capture] renders a unit impulse through a [Processor]. The resulting
// response is inspected with:
//
//   - [Arrivals]: sample indices where echoes start
//   - [Analyzer.SchroederIntegral]: backward-integrated energy decay in dB
//   - [Analyzer.DecayTime]: time for the network's echoes to fall by 60 dB
//   - [Analyzer.MagnitudeResponse]: comb-filter magnitude over frequency
//
// # Usage
//
//	resp, err := ir.Capture(bank, 48000, 256)
//	analyzer := ir.NewAnalyzer(48000)
//	m, err := analyzer.Analyze(resp.Left)
//	fmt.Printf("decay = %.2f s, first echo at %d\n", m.DecayTime, m.FirstArrival)
package ir
