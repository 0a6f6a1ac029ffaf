package bank

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-multidelay/dsp/control"
	"github.com/cwbudde/algo-multidelay/dsp/delay"
	"github.com/cwbudde/algo-multidelay/dsp/interp"
	"github.com/sirupsen/logrus"
)

const (
	defaultTaps          = 8
	defaultSampleRate    = 48000.0
	defaultMaxDelayMs    = 5000.0
	defaultMinDelayMs    = 100.0
	defaultFeedback      = 0.4
	defaultTapWeight     = 0.5
	defaultWetGain       = 1.0
	defaultSmoothingMs   = 50.0
	defaultMaxBlockSize  = 1024
	defaultRandomSeed    = 1
	maxTaps              = 1024
	maxSupportedDelaySec = 60.0
)

// Mode selects the tap topology.
type Mode int

const (
	// Forward taps are independent smoothed delay lines with feedback.
	Forward Mode = iota
	// Reverse taps play windows of their input backwards and are chained.
	Reverse
)

// String returns "forward" or "reverse".
func (m Mode) String() string {
	switch m {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode is the inverse of String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "forward", "":
		return Forward, nil
	case "reverse":
		return Reverse, nil
	default:
		return Forward, fmt.Errorf("bank: unknown mode %q", s)
	}
}

// Option mutates bank construction parameters.
type Option func(*config) error

type randomDelays struct {
	seed  uint64
	minMs float64
	maxMs float64
}

type config struct {
	taps             int
	sampleRate       float64
	maxDelayMs       float64
	feedback         float64
	tapWeight        float64
	tapWeights       []float64
	wetGain          float64
	mode             Mode
	interp           interp.Mode
	smoothingMs      float64
	retuneThreshold  float64
	reverseThreshold float64
	queueCapacity    int
	maxBlockSize     int
	delaysMs         []float64
	random           *randomDelays
	log              logrus.FieldLogger
}

func defaultConfig() config {
	return config{
		taps:             defaultTaps,
		sampleRate:       defaultSampleRate,
		maxDelayMs:       defaultMaxDelayMs,
		feedback:         defaultFeedback,
		tapWeight:        defaultTapWeight,
		wetGain:          defaultWetGain,
		mode:             Forward,
		interp:           interp.Linear,
		smoothingMs:      defaultSmoothingMs,
		reverseThreshold: delay.DefaultReverseThreshold,
		queueCapacity:    control.DefaultQueueCapacity,
		maxBlockSize:     defaultMaxBlockSize,
		log:              logrus.StandardLogger(),
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// WithTaps sets the number of stereo taps.
func WithTaps(n int) Option {
	return func(cfg *config) error {
		if n < 1 || n > maxTaps {
			return fmt.Errorf("bank: taps must be in [1, %d]: %d", maxTaps, n)
		}

		cfg.taps = n

		return nil
	}
}

// WithSampleRate sets the sample rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *config) error {
		if sampleRate <= 0 || !finite(sampleRate) {
			return fmt.Errorf("bank: sample rate must be > 0 and finite: %f", sampleRate)
		}

		cfg.sampleRate = sampleRate

		return nil
	}
}

// WithMaxDelayMs sets the longest delay any tap can reach. It sizes the
// delay buffers.
func WithMaxDelayMs(ms float64) Option {
	return func(cfg *config) error {
		if ms <= 0 || ms > maxSupportedDelaySec*1000 || !finite(ms) {
			return fmt.Errorf("bank: max delay must be in (0, %g] ms: %f", maxSupportedDelaySec*1000, ms)
		}

		cfg.maxDelayMs = ms

		return nil
	}
}

// WithFeedback sets the initial shared feedback coefficient. It is not
// range checked: keeping |feedback| < 1 is the operator's job.
func WithFeedback(feedback float64) Option {
	return func(cfg *config) error {
		if !finite(feedback) {
			return fmt.Errorf("bank: feedback must be finite: %f", feedback)
		}

		cfg.feedback = feedback

		return nil
	}
}

// WithTapWeight sets the attenuation applied to every tap on the wet bus.
func WithTapWeight(weight float64) Option {
	return func(cfg *config) error {
		if !finite(weight) {
			return fmt.Errorf("bank: tap weight must be finite: %f", weight)
		}

		cfg.tapWeight = weight

		return nil
	}
}

// WithTapWeights sets an individual wet-bus weight per tap. The slice
// length must match the tap count.
func WithTapWeights(weights []float64) Option {
	return func(cfg *config) error {
		for i, w := range weights {
			if !finite(w) {
				return fmt.Errorf("bank: tap %d weight must be finite: %f", i, w)
			}
		}

		cfg.tapWeights = append([]float64(nil), weights...)

		return nil
	}
}

// WithWetGain sets the initial gain of the summed wet bus.
func WithWetGain(gain float64) Option {
	return func(cfg *config) error {
		if !finite(gain) {
			return fmt.Errorf("bank: wet gain must be finite: %f", gain)
		}

		cfg.wetGain = gain

		return nil
	}
}

// WithMode selects forward or reverse taps.
func WithMode(mode Mode) Option {
	return func(cfg *config) error {
		if mode != Forward && mode != Reverse {
			return fmt.Errorf("bank: invalid mode: %d", mode)
		}

		cfg.mode = mode

		return nil
	}
}

// WithInterpolation selects the read kernel of forward taps while their
// length glides through fractional values.
func WithInterpolation(mode interp.Mode) Option {
	return func(cfg *config) error {
		if !mode.Valid() {
			return fmt.Errorf("bank: invalid interpolation mode: %d", mode)
		}

		cfg.interp = mode

		return nil
	}
}

// WithSmoothingMs sets the time constant forward taps use to glide to a
// new delay length. Zero makes retuning instantaneous.
func WithSmoothingMs(ms float64) Option {
	return func(cfg *config) error {
		if ms < 0 || !finite(ms) {
			return fmt.Errorf("bank: smoothing time must be >= 0 and finite: %f", ms)
		}

		cfg.smoothingMs = ms

		return nil
	}
}

// WithRetuneThreshold sets the relative change below which forward taps
// ignore a new delay target. The default 0 applies every change.
func WithRetuneThreshold(threshold float64) Option {
	return func(cfg *config) error {
		if threshold < 0 || !finite(threshold) {
			return fmt.Errorf("bank: retune threshold must be >= 0 and finite: %f", threshold)
		}

		cfg.retuneThreshold = threshold

		return nil
	}
}

// WithReverseThreshold sets the relative change below which reverse taps
// keep their head position.
func WithReverseThreshold(threshold float64) Option {
	return func(cfg *config) error {
		if threshold < 0 || !finite(threshold) {
			return fmt.Errorf("bank: reverse threshold must be >= 0 and finite: %f", threshold)
		}

		cfg.reverseThreshold = threshold

		return nil
	}
}

// WithQueueCapacity sets the control queue size. It is rounded up to a
// power of two.
func WithQueueCapacity(capacity int) Option {
	return func(cfg *config) error {
		if capacity < 1 {
			return fmt.Errorf("bank: queue capacity must be >= 1: %d", capacity)
		}

		cfg.queueCapacity = capacity

		return nil
	}
}

// WithMaxBlockSize sets the scratch size of the wet buses. Longer buffers
// passed to Process are handled in chunks of this size.
func WithMaxBlockSize(frames int) Option {
	return func(cfg *config) error {
		if frames < 1 {
			return fmt.Errorf("bank: max block size must be >= 1: %d", frames)
		}

		cfg.maxBlockSize = frames

		return nil
	}
}

// WithTapDelaysMs sets the initial delay of every tap explicitly. The
// slice length must match the tap count. Values are clamped to the valid
// range of the tap's line.
func WithTapDelaysMs(delaysMs []float64) Option {
	return func(cfg *config) error {
		for i, ms := range delaysMs {
			if !finite(ms) {
				return fmt.Errorf("bank: tap %d delay must be finite: %f", i, ms)
			}
		}

		cfg.delaysMs = append([]float64(nil), delaysMs...)
		cfg.random = nil

		return nil
	}
}

// WithRandomTapDelays draws every tap's initial delay uniformly from
// [minMs, maxMs] with a PCG generator seeded by seed. Without explicit or
// random delays a bank uses seed 1 over [100 ms, max delay].
func WithRandomTapDelays(seed uint64, minMs, maxMs float64) Option {
	return func(cfg *config) error {
		if minMs < 0 || maxMs < minMs || !finite(minMs) || !finite(maxMs) {
			return fmt.Errorf("bank: random delay range invalid: [%f, %f]", minMs, maxMs)
		}

		cfg.random = &randomDelays{seed: seed, minMs: minMs, maxMs: maxMs}
		cfg.delaysMs = nil

		return nil
	}
}

// WithLogger sets the logger used during construction.
func WithLogger(log logrus.FieldLogger) Option {
	return func(cfg *config) error {
		if log == nil {
			return fmt.Errorf("bank: logger must not be nil")
		}

		cfg.log = log

		return nil
	}
}
