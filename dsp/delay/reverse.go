package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-multidelay/dsp/core"
)

// DefaultReverseThreshold is the relative length change a [ReverseLine]
// ignores before repositioning its reverse head.
const DefaultReverseThreshold = 0.005

// ReverseOption configures a [ReverseLine].
type ReverseOption func(*reverseConfig) error

type reverseConfig struct {
	threshold float64
}

// WithReverseThreshold sets the relative hysteresis of SetDelayTime
// (default [DefaultReverseThreshold]).
func WithReverseThreshold(threshold float64) ReverseOption {
	return func(cfg *reverseConfig) error {
		if threshold < 0 || !core.IsFinite(threshold) {
			return fmt.Errorf("delay: reverse threshold must be >= 0 and finite: %f", threshold)
		}
		cfg.threshold = threshold
		return nil
	}
}

// ReverseLine keeps a forward write head and a reverse read head in one
// Buffer. The reverse head starts at the newest sample, walks backward for
// one window of separation samples, then re-anchors to the newest sample
// again, so every window is the latest stretch of input played backwards.
//
// While the reverse head walks back the write head keeps moving forward,
// so a window reaches samples up to 2*separation-1 old. Delay lengths are
// therefore limited to C/2.
type ReverseLine struct {
	buf        Buffer
	write      int
	reverse    int
	active     float64
	separation int
	remaining  int
	threshold  float64
}

// NewReverseLine returns a reverse line with capacity C samples and an
// initial delay length clamped to [1, C/2].
func NewReverseLine(capacity int, initialDelay float64, opts ...ReverseOption) (*ReverseLine, error) {
	cfg := reverseConfig{threshold: DefaultReverseThreshold}
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

	r := &ReverseLine{threshold: cfg.threshold}
	if err := r.buf.init(capacity); err != nil {
		return nil, err
	}
	r.apply(r.clampLength(initialDelay))
	return r, nil
}

// Capacity returns C.
func (r *ReverseLine) Capacity() int { return r.buf.Len() }

// MaxDelay returns the longest valid delay length, C/2.
func (r *ReverseLine) MaxDelay() float64 { return float64(r.buf.Len() / 2) }

// Delay returns the active delay length.
func (r *ReverseLine) Delay() float64 { return r.active }

// Separation returns the window length in whole samples.
func (r *ReverseLine) Separation() int { return r.separation }

// Threshold returns the relative hysteresis of SetDelayTime.
func (r *ReverseLine) Threshold() float64 { return r.threshold }

// WriteIndex returns the slot the next Write stores into.
func (r *ReverseLine) WriteIndex() int { return r.write }

// ReverseIndex returns the slot the next ReadReverse returns.
func (r *ReverseLine) ReverseIndex() int { return r.reverse }

// Write stores sample at the write head and advances it.
func (r *ReverseLine) Write(sample float64) {
	r.buf.samples[r.write] = sample
	r.write++
	if r.write == len(r.buf.samples) {
		r.write = 0
	}
}

// ReadReverse returns the sample under the reverse head, then moves the
// head one slot backward. At the end of a window the head re-anchors to
// the newest written sample.
func (r *ReverseLine) ReadReverse() float64 {
	v := r.buf.samples[r.reverse]
	r.reverse--
	if r.reverse < 0 {
		r.reverse = len(r.buf.samples) - 1
	}
	r.remaining--
	if r.remaining <= 0 {
		r.ResetHeadSeparation()
	}
	return v
}

// ReadForwardFeedback returns the sample one window behind the write head:
// the slot a loop of the active length would overwrite next.
func (r *ReverseLine) ReadForwardFeedback() float64 {
	return r.buf.At(r.write - r.separation)
}

// SetDelayTime requests a new delay length, clamped to [1, C/2]. The
// request is applied, and the reverse head repositioned, only when its
// relative distance from the active length exceeds the threshold. It
// reports whether the request was applied.
func (r *ReverseLine) SetDelayTime(samples float64) bool {
	if math.IsNaN(samples) {
		return false
	}
	samples = r.clampLength(samples)
	if math.Abs(samples-r.active) <= r.threshold*r.active {
		return false
	}
	r.apply(samples)
	return true
}

// ResetHeadSeparation re-anchors the reverse head to the newest written
// sample and restarts the window.
func (r *ReverseLine) ResetHeadSeparation() {
	r.reverse = r.buf.Wrap(r.write - 1)
	r.remaining = r.separation
}

// ClearBuffer zeroes the storage. Not real-time safe: the host must ensure
// no Write or read runs concurrently.
func (r *ReverseLine) ClearBuffer() {
	r.buf.Clear()
}

// Reset clears the storage, rewinds the write head and re-anchors the
// reverse head. Not real-time safe.
func (r *ReverseLine) Reset() {
	r.buf.Clear()
	r.write = 0
	r.ResetHeadSeparation()
}

func (r *ReverseLine) apply(samples float64) {
	r.active = samples
	r.separation = max(1, int(math.Round(samples)))
	r.ResetHeadSeparation()
}

func (r *ReverseLine) clampLength(samples float64) float64 {
	return core.Clamp(samples, 1, r.MaxDelay())
}
