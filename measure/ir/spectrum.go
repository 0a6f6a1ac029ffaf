package ir

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-multidelay/dsp/core"
	vecmath "github.com/cwbudde/algo-vecmath"
)

// MagnitudeResponse returns the linear magnitude of ir at fftSize/2+1
// bins from DC to Nyquist. fftSize is rounded up to a power of two. A
// response longer than fftSize is truncated with a raised-cosine fade over
// its last eighth.
func (a *Analyzer) MagnitudeResponse(ir []float64, fftSize int) ([]float64, error) {
	if len(ir) == 0 {
		return nil, ErrEmptyIR
	}

	if fftSize < 2 {
		return nil, fmt.Errorf("%w: fft size %d", ErrInvalidLength, fftSize)
	}

	fftSize = core.NextPowerOfTwo(fftSize)

	frame := make([]float64, fftSize)
	n := copy(frame, ir)

	if len(ir) > fftSize {
		vecmath.MulBlockInPlace(frame, fadeOut(fftSize))
	}

	in := make([]complex128, fftSize)
	for i := range n {
		in[i] = complex(frame[i], 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("ir: fft plan: %w", err)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("ir: fft: %w", err)
	}

	bins := fftSize/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)

	for i := range bins {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	mag := make([]float64, bins)
	vecmath.Magnitude(mag, re, im)

	return mag, nil
}

// BinFrequency returns the centre frequency in Hz of bin k of an fftSize
// transform.
func (a *Analyzer) BinFrequency(k, fftSize int) float64 {
	return float64(k) * a.SampleRate / float64(core.NextPowerOfTwo(fftSize))
}

// fadeOut is 1 over the first 7/8 of n and a half cosine down to 0 over
// the rest.
func fadeOut(n int) []float64 {
	w := make([]float64, n)
	taper := max(1, n/8)
	start := n - taper

	for i := range w {
		if i < start {
			w[i] = 1
			continue
		}

		x := float64(i-start+1) / float64(taper)
		w[i] = 0.5 * (1 + math.Cos(math.Pi*x))
	}

	return w
}

// MagnitudeDB converts linear magnitudes to dB, flooring at floorDB.
func MagnitudeDB(mag []float64, floorDB float64) []float64 {
	out := make([]float64, len(mag))
	for i, m := range mag {
		if m <= 0 {
			out[i] = floorDB
			continue
		}

		out[i] = max(floorDB, 20*math.Log10(m))
	}

	return out
}
