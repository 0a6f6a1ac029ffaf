package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-multidelay/dsp/core"
	"github.com/cwbudde/algo-multidelay/dsp/interp"
	"github.com/cwbudde/algo-multidelay/dsp/smooth"
)

// LineOption configures a [Line].
type LineOption func(*lineConfig) error

type lineConfig struct {
	mode      interp.Mode
	coef      float64
	threshold float64
}

func defaultLineConfig() lineConfig {
	return lineConfig{
		mode: interp.Linear,
		coef: 1,
	}
}

// WithInterpolation selects the kernel used while the smoothed length is
// fractional (default [interp.Linear]).
func WithInterpolation(mode interp.Mode) LineOption {
	return func(cfg *lineConfig) error {
		if !mode.Valid() {
			return fmt.Errorf("delay: invalid interpolation mode: %d", mode)
		}
		cfg.mode = mode
		return nil
	}
}

// WithSmoothing sets the per-sample smoother coefficient in (0, 1]
// (default 1, i.e. retuning snaps).
func WithSmoothing(coef float64) LineOption {
	return func(cfg *lineConfig) error {
		if coef <= 0 || coef > 1 || math.IsNaN(coef) {
			return fmt.Errorf("delay: smoothing coefficient must be in (0, 1]: %f", coef)
		}
		cfg.coef = coef
		return nil
	}
}

// WithRetuneThreshold ignores target changes whose relative size is at or
// below threshold (default 0, every change is applied).
func WithRetuneThreshold(threshold float64) LineOption {
	return func(cfg *lineConfig) error {
		if threshold < 0 || !core.IsFinite(threshold) {
			return fmt.Errorf("delay: retune threshold must be >= 0 and finite: %f", threshold)
		}
		cfg.threshold = threshold
		return nil
	}
}

// Line is a circular delay line whose read offset follows a smoothed
// delay length.
type Line struct {
	buf       Buffer
	write     int
	target    float64
	length    smooth.Smoother
	mode      interp.Mode
	threshold float64
}

// NewLine returns a line with capacity C samples, resting at initialDelay
// (clamped to [1, C-1]).
func NewLine(capacity int, initialDelay float64, opts ...LineOption) (*Line, error) {
	cfg := defaultLineConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if math.IsNaN(initialDelay) {
		return nil, fmt.Errorf("delay: initial delay must not be NaN")
	}

	l := &Line{
		mode:      cfg.mode,
		threshold: cfg.threshold,
	}
	if err := l.buf.init(capacity); err != nil {
		return nil, err
	}
	l.target = l.clampLength(initialDelay)
	l.length.Init(cfg.coef, l.target)
	return l, nil
}

// Capacity returns C.
func (l *Line) Capacity() int { return l.buf.Len() }

// MaxDelay returns the longest valid delay length, C-1.
func (l *Line) MaxDelay() float64 { return float64(l.buf.Len() - 1) }

// Delay returns the current smoothed delay length in samples.
func (l *Line) Delay() float64 { return l.length.Value() }

// Target returns the delay length the line is gliding toward.
func (l *Line) Target() float64 { return l.target }

// WriteIndex returns the slot the next Write stores into.
func (l *Line) WriteIndex() int { return l.write }

// SetSmoothing changes the smoother coefficient.
func (l *Line) SetSmoothing(coef float64) {
	l.length.SetCoefficient(coef)
}

// SetDelayTarget requests a new delay length. Out-of-range requests are
// clamped to [1, C-1]; changes within the retune threshold are ignored.
// It returns the target in effect afterwards.
func (l *Line) SetDelayTarget(samples float64) float64 {
	samples = l.clampLength(samples)
	if l.threshold > 0 && math.Abs(samples-l.target) <= l.threshold*l.target {
		return l.target
	}
	l.target = samples
	l.length.SetTarget(samples)
	return l.target
}

// SetDelay clamps samples and jumps to it without smoothing.
func (l *Line) SetDelay(samples float64) float64 {
	l.target = l.clampLength(samples)
	l.length.Reset(l.target)
	return l.target
}

// Advance moves the smoothed length one step toward the target.
func (l *Line) Advance() {
	l.length.Next()
}

// Write stores sample at the write position and advances it.
func (l *Line) Write(sample float64) {
	l.buf.samples[l.write] = sample
	l.write++
	if l.write == len(l.buf.samples) {
		l.write = 0
	}
}

// Read returns the sample at (write index - smoothed length) mod C. Whole
// lengths are read exactly; fractional ones are interpolated. Hermite
// needs a newer neighbor, so lengths below 2 fall back to linear.
func (l *Line) Read() float64 {
	d := l.length.Value()
	whole := int(d)
	frac := d - float64(whole)
	pos := l.write - whole

	x0 := l.buf.At(pos)
	if frac == 0 {
		return x0
	}
	x1 := l.buf.At(pos - 1)
	if l.mode == interp.Hermite && whole >= 2 {
		return interp.Hermite4(frac, l.buf.At(pos+1), x0, x1, l.buf.At(pos-2))
	}
	return interp.Linear2(frac, x0, x1)
}

// Process advances the smoother, reads the delayed sample and writes
// input, in that order.
func (l *Line) Process(input float64) float64 {
	l.Advance()
	out := l.Read()
	l.Write(input)
	return out
}

// ProcessInPlace runs Process over buf.
func (l *Line) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = l.Process(buf[i])
	}
}

// Reset clears the storage and rewinds the write position. The smoothed
// length jumps to the current target. Not real-time safe.
func (l *Line) Reset() {
	l.buf.Clear()
	l.write = 0
	l.length.Reset(l.target)
}

func (l *Line) clampLength(samples float64) float64 {
	if math.IsNaN(samples) {
		return l.target
	}
	return core.Clamp(samples, 1, l.MaxDelay())
}
