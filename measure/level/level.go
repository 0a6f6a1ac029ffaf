// Package level measures signal levels: peak, RMS, DC offset and crest
// factor, in one pass or streamed block by block.
package level

import "math"

// Level summarizes one channel.
type Level struct {
	Frames  int
	DC      float64
	RMS     float64
	Peak    float64 // max |x|
	PeakPos int
	Crest   float64 // peak / RMS, 0 for silence
	Energy  float64 // sum of squares
}

// PeakDB returns the peak level in dBFS.
func (l Level) PeakDB() float64 { return AmpToDB(l.Peak) }

// RMSDB returns the RMS level in dBFS.
func (l Level) RMSDB() float64 { return AmpToDB(l.RMS) }

// CrestDB returns the crest factor in dB.
func (l Level) CrestDB() float64 {
	if l.Crest == 0 {
		return 0
	}

	return AmpToDB(l.Crest)
}

// AmpToDB converts an amplitude to decibels: 20 * log10(|value|).
// Zero maps to -Inf.
func AmpToDB(value float64) float64 {
	a := math.Abs(value)
	if a == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(a)
}

// Calculate measures signal in one pass.
func Calculate(signal []float64) Level {
	var m Meter
	m.Update(signal)

	return m.Result()
}

// Meter accumulates levels over successive blocks. The zero value is
// ready to use. Update does not allocate.
type Meter struct {
	n       int
	sum     float64
	sumSq   float64
	peak    float64
	peakPos int
}

// Update adds a block of samples.
func (m *Meter) Update(samples []float64) {
	for i, x := range samples {
		m.sum += x
		m.sumSq += x * x

		if a := math.Abs(x); a > m.peak {
			m.peak = a
			m.peakPos = m.n + i
		}
	}

	m.n += len(samples)
}

// Result returns the levels of everything seen since the last Reset.
func (m *Meter) Result() Level {
	if m.n == 0 {
		return Level{}
	}

	nf := float64(m.n)
	rms := math.Sqrt(m.sumSq / nf)

	var crest float64
	if rms > 0 {
		crest = m.peak / rms
	}

	return Level{
		Frames:  m.n,
		DC:      m.sum / nf,
		RMS:     rms,
		Peak:    m.peak,
		PeakPos: m.peakPos,
		Crest:   crest,
		Energy:  m.sumSq,
	}
}

// Reset clears the meter.
func (m *Meter) Reset() {
	*m = Meter{}
}
