package dither

import (
	"math"
	"math/rand/v2"
)

// Quantizer maps samples in [-1, 1] onto signed integers of a fixed bit
// depth, adding dither noise first and optionally shaping the error. A
// Quantizer carries per-channel state; use one per channel.
type Quantizer struct {
	bitDepth        int
	ditherType      DitherType
	ditherAmplitude float64
	limit           bool
	shaper          errorFeedback
	rng             *rand.Rand

	scale   float64
	limitLo int
	limitHi int
	clipped uint64
}

// NewQuantizer returns a quantizer. The default is 16-bit TPDF dither of
// 1 LSB with limiting and no noise shaping.
func NewQuantizer(opts ...Option) (*Quantizer, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	q := &Quantizer{
		bitDepth:        cfg.bitDepth,
		ditherType:      cfg.ditherType,
		ditherAmplitude: cfg.ditherAmplitude,
		limit:           cfg.limit,
		shaper:          newErrorFeedback(cfg.feedback),
		rng:             cfg.rng,
	}

	if q.rng == nil {
		q.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	full := math.Exp2(float64(q.bitDepth - 1))
	q.scale = full - 1
	q.limitLo = -int(full)
	q.limitHi = int(full) - 1

	return q, nil
}

// Quantize converts one sample to an integer in
// [-2^(bits-1), 2^(bits-1)-1]. Full scale 1.0 maps to the largest
// positive code.
func (q *Quantizer) Quantize(input float64) int {
	shaped := q.shaper.shape(q.scale * input)
	result := int(math.Round(shaped + q.noise()))

	if q.limit {
		if result < q.limitLo {
			result = q.limitLo
			q.clipped++
		} else if result > q.limitHi {
			result = q.limitHi
			q.clipped++
		}
	}

	q.shaper.record(float64(result) - shaped)

	return result
}

// QuantizeBlock quantizes src into dst and returns the number of samples
// written, the shorter of the two lengths.
func (q *Quantizer) QuantizeBlock(dst []int, src []float64) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = q.Quantize(src[i])
	}

	return n
}

// ProcessSample quantizes input and maps the code back to a float, for
// previewing the quantized signal.
func (q *Quantizer) ProcessSample(input float64) float64 {
	return float64(q.Quantize(input)) / q.scale
}

// ProcessInPlace runs ProcessSample over buf.
func (q *Quantizer) ProcessInPlace(buf []float64) {
	for i, v := range buf {
		buf[i] = q.ProcessSample(v)
	}
}

// Reset clears the noise-shaping history and the clip counter.
func (q *Quantizer) Reset() {
	q.shaper.reset()
	q.clipped = 0
}

func (q *Quantizer) noise() float64 {
	switch q.ditherType {
	case DitherRectangular:
		return q.ditherAmplitude * (q.rng.Float64() - 0.5)
	case DitherTriangular:
		return q.ditherAmplitude * (q.rng.Float64() - q.rng.Float64())
	default:
		return 0
	}
}

// BitDepth returns the target bit depth.
func (q *Quantizer) BitDepth() int { return q.bitDepth }

// DitherType returns the dither noise type.
func (q *Quantizer) DitherType() DitherType { return q.ditherType }

// DitherAmplitude returns the dither amplitude in LSB.
func (q *Quantizer) DitherAmplitude() float64 { return q.ditherAmplitude }

// Limit reports whether output is clamped to the code range.
func (q *Quantizer) Limit() bool { return q.limit }

// Clipped returns how many samples were clamped since the last Reset.
func (q *Quantizer) Clipped() uint64 { return q.clipped }
