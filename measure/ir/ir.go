package ir

import (
	"errors"
	"math"
)

// Errors returned by the analysis functions.
var (
	ErrEmptyIR           = errors.New("ir: impulse response is empty")
	ErrInvalidSampleRate = errors.New("ir: sample rate must be positive")
	ErrNoDecay           = errors.New("ir: insufficient decay for decay time estimate")
)

// DefaultArrivalThreshold is the absolute level Analyze uses to detect
// echo onsets (-60 dBFS).
const DefaultArrivalThreshold = 1e-3

// Metrics summarizes the response of a delay network to a unit impulse.
type Metrics struct {
	DecayTime    float64 // seconds to fall 60 dB, from the -5..-35 dB (or -25 dB) slope
	EarlyDecay   float64 // same, extrapolated from the 0..-10 dB slope
	CenterTime   float64 // energy centroid in seconds
	PeakIndex    int     // sample index of the absolute maximum
	FirstArrival int     // first echo onset after the direct sound, -1 if none
	Arrivals     int     // echo onsets after the direct sound
}

// Analyzer computes metrics at a fixed sample rate.
type Analyzer struct {
	SampleRate float64
}

// NewAnalyzer returns an analyzer for responses sampled at sampleRate.
func NewAnalyzer(sampleRate float64) *Analyzer {
	return &Analyzer{SampleRate: sampleRate}
}

// Analyze computes all metrics of ir. The direct sound is the first
// onset; echoes are the onsets after it.
func (a *Analyzer) Analyze(ir []float64) (Metrics, error) {
	if len(ir) == 0 {
		return Metrics{}, ErrEmptyIR
	}

	if a.SampleRate <= 0 {
		return Metrics{}, ErrInvalidSampleRate
	}

	peak := findPeak(ir)
	schroeder := schroederIntegral(ir[peak:])

	m := Metrics{
		PeakIndex:    peak,
		CenterTime:   a.centerTime(ir),
		EarlyDecay:   a.decayTime(schroeder, 0, -10),
		FirstArrival: -1,
	}

	m.DecayTime = a.decayTime(schroeder, -5, -35)
	if m.DecayTime == 0 {
		m.DecayTime = a.decayTime(schroeder, -5, -25)
	}

	onsets := Arrivals(ir, DefaultArrivalThreshold)
	if len(onsets) > 1 {
		m.FirstArrival = onsets[1]
		m.Arrivals = len(onsets) - 1
	}

	return m, nil
}

// SchroederIntegral returns the backward-integrated energy of ir in dB
// relative to its total energy:
//
//	S(t) = 10*log10( sum_{i>=t} h²(i) / sum_i h²(i) )
//
// Sparse echo trains become a staircase whose overall slope is the decay
// rate of the feedback loop.
func (a *Analyzer) SchroederIntegral(ir []float64) ([]float64, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyIR
	}

	return schroederIntegral(ir), nil
}

func schroederIntegral(ir []float64) []float64 {
	n := len(ir)
	result := make([]float64, n)

	var cumSum float64
	for i := n - 1; i >= 0; i-- {
		cumSum += ir[i] * ir[i]
		result[i] = cumSum
	}

	total := result[0]
	if total <= 0 {
		return result
	}

	for i := range result {
		ratio := result[i] / total
		if ratio <= 0 {
			result[i] = -200
		} else {
			result[i] = 10 * math.Log10(ratio)
		}
	}

	return result
}

// DecayTime returns the time in seconds for the response energy to fall by
// 60 dB, extrapolated from the -5..-35 dB range of the Schroeder curve, or
// from -5..-25 dB when the response does not reach -35 dB.
func (a *Analyzer) DecayTime(ir []float64) (float64, error) {
	if len(ir) == 0 {
		return 0, ErrEmptyIR
	}

	if a.SampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}

	schroeder := schroederIntegral(ir)

	if rt := a.decayTime(schroeder, -5, -35); rt > 0 {
		return rt, nil
	}

	if rt := a.decayTime(schroeder, -5, -25); rt > 0 {
		return rt, nil
	}

	return 0, ErrNoDecay
}

// decayTime fits a line to the Schroeder curve between startDB and endDB
// and extrapolates it to -60 dB.
func (a *Analyzer) decayTime(schroeder []float64, startDB, endDB float64) float64 {
	if len(schroeder) == 0 || a.SampleRate <= 0 {
		return 0
	}

	startIdx, endIdx := -1, -1

	for i, v := range schroeder {
		if startIdx < 0 && v <= startDB {
			startIdx = i
		}

		if startIdx >= 0 && v <= endDB {
			endIdx = i
			break
		}
	}

	if startIdx < 0 || endIdx <= startIdx {
		return 0
	}

	var sumX, sumY, sumXX, sumXY float64

	for i := startIdx; i <= endIdx; i++ {
		x := float64(i - startIdx)
		y := schroeder[i]
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}

	nf := float64(endIdx - startIdx + 1)

	denom := nf*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}

	// dB per sample
	slope := (nf*sumXY - sumX*sumY) / denom
	if slope >= 0 {
		return 0
	}

	return -60 / (slope * a.SampleRate)
}

// CenterTime returns the energy centroid of ir in seconds.
func (a *Analyzer) CenterTime(ir []float64) (float64, error) {
	if len(ir) == 0 {
		return 0, ErrEmptyIR
	}

	if a.SampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}

	return a.centerTime(ir), nil
}

func (a *Analyzer) centerTime(ir []float64) float64 {
	var num, den float64

	for i, v := range ir {
		e := v * v
		num += float64(i) / a.SampleRate * e
		den += e
	}

	if den <= 0 {
		return 0
	}

	return num / den
}

// ExpectedDecayTime returns the 60 dB decay time of a single feedback loop
// of delay samples with coefficient feedback. It returns +Inf when
// |feedback| >= 1 and 0 when feedback is 0.
func ExpectedDecayTime(delaySamples, feedback, sampleRate float64) float64 {
	g := math.Abs(feedback)

	switch {
	case g >= 1:
		return math.Inf(1)
	case g == 0 || sampleRate <= 0:
		return 0
	}

	perPassDB := -20 * math.Log10(g)

	return 60 / perPassDB * delaySamples / sampleRate
}

func findPeak(ir []float64) int {
	peakIdx := 0
	peakVal := 0.0

	for i, v := range ir {
		if av := math.Abs(v); av > peakVal {
			peakVal = av
			peakIdx = i
		}
	}

	return peakIdx
}
