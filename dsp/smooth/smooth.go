package smooth

import "math"

// DefaultSnapEpsilon is the distance below which a smoother jumps to its
// target so that integer targets are reached exactly.
const DefaultSnapEpsilon = 1e-6

// Step returns the next value of a one-pole approach from current toward
// target. coef is clamped to (0, 1]; NaN is treated as 1.
func Step(current, target, coef float64) float64 {
	coef = clampCoef(coef)
	if coef >= 1 {
		return target
	}
	return current + coef*(target-current)
}

// Coefficient returns the per-sample coefficient for a one-pole smoother
// with time constant timeMs at sampleRate. Non-positive times and rates
// return 1 (no smoothing).
func Coefficient(timeMs, sampleRate float64) float64 {
	if timeMs <= 0 || sampleRate <= 0 || math.IsNaN(timeMs) || math.IsNaN(sampleRate) {
		return 1
	}
	tauSamples := timeMs / 1000 * sampleRate
	return clampCoef(1 - expNeg(1/tauSamples))
}

func clampCoef(coef float64) float64 {
	switch {
	case math.IsNaN(coef), coef >= 1:
		return 1
	case coef <= 0:
		// Zero would freeze the value forever.
		return math.SmallestNonzeroFloat64
	default:
		return coef
	}
}

// Smoother tracks one smoothed parameter.
type Smoother struct {
	current float64
	target  float64
	coef    float64
	snap    float64
}

// New returns a smoother resting at initial.
func New(coef, initial float64) *Smoother {
	s := &Smoother{}
	s.Init(coef, initial)
	return s
}

// Init (re)initializes s in place, resting at initial. It is the
// allocation-free form of New for smoothers embedded in larger structs.
func (s *Smoother) Init(coef, initial float64) {
	s.coef = clampCoef(coef)
	s.current = initial
	s.target = initial
	s.snap = DefaultSnapEpsilon
}

// SetTarget sets the value the smoother glides toward.
func (s *Smoother) SetTarget(target float64) {
	s.target = target
}

// SetCoefficient updates the per-sample coefficient.
func (s *Smoother) SetCoefficient(coef float64) {
	s.coef = clampCoef(coef)
}

// SetSnapEpsilon changes the snap distance. Negative values disable
// snapping.
func (s *Smoother) SetSnapEpsilon(eps float64) {
	s.snap = eps
}

// Next advances one step and returns the new current value.
func (s *Smoother) Next() float64 {
	if s.current == s.target {
		return s.current
	}
	s.current = Step(s.current, s.target, s.coef)
	if math.Abs(s.target-s.current) <= s.snap {
		s.current = s.target
	}
	return s.current
}

// Reset jumps to value and makes it the target.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
}

// Value returns the current smoothed value.
func (s *Smoother) Value() float64 { return s.current }

// Target returns the target value.
func (s *Smoother) Target() float64 { return s.target }

// Coefficient returns the per-sample coefficient.
func (s *Smoother) Coefficient() float64 { return s.coef }

// Settled reports whether the current value has reached the target.
func (s *Smoother) Settled() bool { return s.current == s.target }
