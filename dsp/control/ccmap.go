package control

import (
	"fmt"
	"sort"
)

// MaxCCValue is the largest 7-bit continuous-controller value.
const MaxCCValue = 127

// CCBinding maps the 0..127 range of one continuous controller linearly
// onto [Min, Max] of a parameter.
type CCBinding struct {
	Param ParamID
	Tap   int
	Min   float64
	Max   float64
}

// CCMap translates continuous-controller messages into events. It is used
// on the control goroutine only and is not safe for concurrent mutation.
type CCMap struct {
	bindings map[uint8]CCBinding
}

// NewCCMap returns an empty map.
func NewCCMap() *CCMap {
	return &CCMap{bindings: make(map[uint8]CCBinding)}
}

// DefaultCCMap returns the stock layout: CC 1 drives feedback over
// [0, 0.95], CC 7 drives wet gain over [0, 1], and CC 20+i drives the
// normalized delay of tap i for as many taps as fit below CC 128.
func DefaultCCMap(taps int) *CCMap {
	m := NewCCMap()
	_ = m.Bind(1, CCBinding{Param: ParamFeedback, Min: 0, Max: 0.95})
	_ = m.Bind(7, CCBinding{Param: ParamWetGain, Min: 0, Max: 1})
	for i := 0; i < taps && 20+i <= MaxCCValue; i++ {
		_ = m.Bind(uint8(20+i), CCBinding{Param: ParamTapDelayNorm, Tap: i, Min: 0, Max: 1})
	}
	return m
}

// Bind assigns a binding to controller number cc, replacing any previous
// one.
func (m *CCMap) Bind(cc uint8, b CCBinding) error {
	if cc > MaxCCValue {
		return fmt.Errorf("control: controller number %d out of range [0, %d]", cc, MaxCCValue)
	}
	if !b.Param.Valid() {
		return fmt.Errorf("control: controller %d bound to invalid parameter %s", cc, b.Param)
	}
	if b.Param.PerTap() && b.Tap < 0 {
		return fmt.Errorf("control: controller %d bound to negative tap %d", cc, b.Tap)
	}
	m.bindings[cc] = b
	return nil
}

// Unbind removes the binding of cc.
func (m *CCMap) Unbind(cc uint8) {
	delete(m.bindings, cc)
}

// Binding returns the binding of cc.
func (m *CCMap) Binding(cc uint8) (CCBinding, bool) {
	b, ok := m.bindings[cc]
	return b, ok
}

// Controllers returns the bound controller numbers in ascending order.
func (m *CCMap) Controllers() []uint8 {
	ccs := make([]uint8, 0, len(m.bindings))
	for cc := range m.bindings {
		ccs = append(ccs, cc)
	}
	sort.Slice(ccs, func(i, j int) bool { return ccs[i] < ccs[j] })
	return ccs
}

// Event converts a controller message into an event. Values above 127 are
// clamped. It returns false for an unbound controller.
func (m *CCMap) Event(cc, value uint8) (Event, bool) {
	b, ok := m.bindings[cc]
	if !ok {
		return Event{}, false
	}
	if value > MaxCCValue {
		value = MaxCCValue
	}
	t := float64(value) / MaxCCValue
	return Event{Param: b.Param, Tap: b.Tap, Value: b.Min + t*(b.Max-b.Min)}, true
}
