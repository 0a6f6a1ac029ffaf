package control

import "fmt"

// ParamID identifies the parameter an [Event] addresses. The zero value
// is invalid so that a zeroed Event is never applied by accident.
type ParamID uint8

const (
	// ParamFeedback sets the shared feedback coefficient. The value is
	// applied as-is; keeping |feedback| < 1 is the operator's job.
	ParamFeedback ParamID = iota + 1
	// ParamTapDelayMs sets one tap's delay target in milliseconds.
	ParamTapDelayMs
	// ParamTapDelayNorm sets one tap's delay target as a fraction in
	// [0, 1] of the bank's delay range.
	ParamTapDelayNorm
	// ParamAllTapsDelayMs sets every tap's delay target in milliseconds.
	ParamAllTapsDelayMs
	// ParamWetGain sets the gain of the summed wet bus.
	ParamWetGain

	paramCount
)

var paramNames = [paramCount]string{
	"", "feedback", "tap_delay_ms", "tap_delay_norm", "all_taps_delay_ms", "wet_gain",
}

// String returns the parameter name used in presets and logs.
func (p ParamID) String() string {
	if p.Valid() {
		return paramNames[p]
	}
	return fmt.Sprintf("ParamID(%d)", uint8(p))
}

// Valid reports whether p is a known parameter.
func (p ParamID) Valid() bool {
	return p > 0 && p < paramCount
}

// ParseParamID maps a name produced by String back to its ParamID.
func ParseParamID(name string) (ParamID, error) {
	for p := ParamID(1); p < paramCount; p++ {
		if paramNames[p] == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("control: unknown parameter %q", name)
}

// PerTap reports whether events for p address a single tap.
func (p ParamID) PerTap() bool {
	return p == ParamTapDelayMs || p == ParamTapDelayNorm
}

// Event is one decoded parameter change. Tap is only meaningful for
// per-tap parameters.
type Event struct {
	Param ParamID
	Tap   int
	Value float64
}

// Feedback returns an event setting the shared feedback coefficient.
func Feedback(v float64) Event {
	return Event{Param: ParamFeedback, Value: v}
}

// TapDelayMs returns an event retuning one tap, in milliseconds.
func TapDelayMs(tap int, ms float64) Event {
	return Event{Param: ParamTapDelayMs, Tap: tap, Value: ms}
}

// TapDelayNorm returns an event retuning one tap by a normalized value.
func TapDelayNorm(tap int, v float64) Event {
	return Event{Param: ParamTapDelayNorm, Tap: tap, Value: v}
}

// AllTapsDelayMs returns an event retuning every tap, in milliseconds.
func AllTapsDelayMs(ms float64) Event {
	return Event{Param: ParamAllTapsDelayMs, Value: ms}
}

// WetGain returns an event setting the wet bus gain.
func WetGain(g float64) Event {
	return Event{Param: ParamWetGain, Value: g}
}

// String formats the event for logs.
func (e Event) String() string {
	if e.Param.PerTap() {
		return fmt.Sprintf("%s[%d]=%g", e.Param, e.Tap, e.Value)
	}
	return fmt.Sprintf("%s=%g", e.Param, e.Value)
}
