// Package preset loads delay-network settings and control automation
// from YAML.
//
// A preset file looks like:
//
//	taps: 8
//	mode: forward
//	feedback: 0.4
//	delays:
//	  seed: 7
//	  min_ms: 100
//	  max_ms: 2000
//	automation:
//	  - {at_ms: 1500, param: feedback, value: 0.6}
//	  - {at_ms: 3000, param: tap_delay_ms, tap: 2, value: 750}
//	  - {at_ms: 4000, cc: 74, value: 64}
//	controllers:
//	  - {cc: 74, param: tap_delay_ms, tap: 0, min: 50, max: 500}
//	  - {cc: 7, param: none}
//
// Automation entries name either a parameter or a MIDI continuous
// controller. Controller entries carry the raw 0..127 value and are
// resolved through [Preset.CCMap]: the stock layout of
// [control.DefaultCCMap] with the controllers section applied on top.
// Binding a controller to param "none" removes it.
//
// Keys left out keep the values of [Default].
package preset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/cwbudde/algo-multidelay/dsp/bank"
	"github.com/cwbudde/algo-multidelay/dsp/control"
	"github.com/cwbudde/algo-multidelay/dsp/interp"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("preset: invalid")

// Delays selects the initial tap delays: an explicit list, or a seeded
// random draw from [MinMs, MaxMs] when Ms is empty.
type Delays struct {
	Ms    []float64 `yaml:"ms,omitempty"`
	Seed  uint64    `yaml:"seed"`
	MinMs float64   `yaml:"min_ms"`
	MaxMs float64   `yaml:"max_ms"`
}

// Automation is one control event scheduled at a point of the render.
// Exactly one of Param and CC is set.
type Automation struct {
	AtMs  float64 `yaml:"at_ms"`
	Param string  `yaml:"param,omitempty"`
	CC    *uint8  `yaml:"cc,omitempty"`
	Tap   int     `yaml:"tap,omitempty"`
	Value float64 `yaml:"value"`
}

// UnboundParam is the controller param name that removes a binding.
const UnboundParam = "none"

// Controller binds one continuous controller to a parameter range.
type Controller struct {
	CC    uint8   `yaml:"cc"`
	Param string  `yaml:"param"`
	Tap   int     `yaml:"tap,omitempty"`
	Min   float64 `yaml:"min,omitempty"`
	Max   float64 `yaml:"max,omitempty"`
}

// Preset holds every setting of one render.
type Preset struct {
	// SampleRate of the bank; 0 follows the input file.
	SampleRate       float64      `yaml:"sample_rate"`
	Taps             int          `yaml:"taps"`
	Mode             string       `yaml:"mode"`
	Interpolation    string       `yaml:"interpolation"`
	Feedback         float64      `yaml:"feedback"`
	TapWeight        float64      `yaml:"tap_weight"`
	WetGain          float64      `yaml:"wet_gain"`
	MaxDelayMs       float64      `yaml:"max_delay_ms"`
	SmoothingMs      float64      `yaml:"smoothing_ms"`
	RetuneThreshold  float64      `yaml:"retune_threshold"`
	ReverseThreshold float64      `yaml:"reverse_threshold"`
	QueueCapacity    int          `yaml:"queue_capacity"`
	Delays           Delays       `yaml:"delays"`
	Automation       []Automation `yaml:"automation,omitempty"`
	Controllers      []Controller `yaml:"controllers,omitempty"`
}

// Default returns the settings of the original multi-delay program:
// forward taps with 0.4 feedback and 0.5 tap weight, each tap at a random
// delay between 100 ms and 5 s.
func Default() Preset {
	return Preset{
		Taps:             8,
		Mode:             bank.Forward.String(),
		Interpolation:    interp.Linear.String(),
		Feedback:         0.4,
		TapWeight:        0.5,
		WetGain:          1,
		MaxDelayMs:       5000,
		SmoothingMs:      50,
		ReverseThreshold: 0.005,
		QueueCapacity:    control.DefaultQueueCapacity,
		Delays: Delays{
			Seed:  1,
			MinMs: 100,
			MaxMs: 5000,
		},
	}
}

// Load reads and validates a preset file.
func Load(path string) (Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Preset{}, fmt.Errorf("preset: %w", err)
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return Preset{}, fmt.Errorf("preset %s: %w", path, err)
	}

	return p, nil
}

// Parse decodes and validates YAML held in memory.
func Parse(data []byte) (Preset, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads YAML from r on top of [Default] and validates the result.
// Unknown keys are rejected.
func Decode(r io.Reader) (Preset, error) {
	p := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Preset{}, fmt.Errorf("preset: decode: %w", err)
	}

	if err := p.Validate(); err != nil {
		return Preset{}, err
	}

	return p, nil
}

// Marshal encodes p as YAML.
func (p Preset) Marshal() ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("preset: encode: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("preset: encode: %w", err)
	}

	return buf.Bytes(), nil
}

// Validate checks the fields the bank does not check itself and the
// consistency between them.
func (p Preset) Validate() error {
	if p.SampleRate < 0 {
		return fmt.Errorf("%w: sample_rate must be >= 0, got %g", ErrInvalid, p.SampleRate)
	}

	if p.Taps < 1 {
		return fmt.Errorf("%w: taps must be positive, got %d", ErrInvalid, p.Taps)
	}

	if _, err := bank.ParseMode(p.Mode); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if _, err := interp.ParseMode(p.Interpolation); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if n := len(p.Delays.Ms); n != 0 && n != p.Taps {
		return fmt.Errorf("%w: %d delays listed for %d taps", ErrInvalid, n, p.Taps)
	}

	if len(p.Delays.Ms) == 0 && (p.Delays.MinMs < 0 || p.Delays.MaxMs < p.Delays.MinMs) {
		return fmt.Errorf("%w: random delay range [%g, %g] ms", ErrInvalid, p.Delays.MinMs, p.Delays.MaxMs)
	}

	m, err := p.CCMap()
	if err != nil {
		return err
	}

	for i, a := range p.Automation {
		if a.AtMs < 0 {
			return fmt.Errorf("%w: automation %d: at_ms must be >= 0, got %g", ErrInvalid, i, a.AtMs)
		}

		if _, err := p.event(m, i, a); err != nil {
			return err
		}
	}

	return nil
}

// CCMap returns the controller layout of p: [control.DefaultCCMap] for
// p.Taps with the controllers section applied in order.
func (p Preset) CCMap() (*control.CCMap, error) {
	m := control.DefaultCCMap(p.Taps)

	for i, c := range p.Controllers {
		if c.Param == UnboundParam {
			m.Unbind(c.CC)
			continue
		}

		id, err := control.ParseParamID(c.Param)
		if err != nil {
			return nil, fmt.Errorf("%w: controller %d: %w", ErrInvalid, i, err)
		}

		if id.PerTap() && c.Tap >= p.Taps {
			return nil, fmt.Errorf("%w: controller %d: tap %d out of range [0, %d)", ErrInvalid, i, c.Tap, p.Taps)
		}

		b := control.CCBinding{Param: id, Tap: c.Tap, Min: c.Min, Max: c.Max}
		if err := m.Bind(c.CC, b); err != nil {
			return nil, fmt.Errorf("%w: controller %d: %w", ErrInvalid, i, err)
		}
	}

	return m, nil
}

// event resolves automation entry i to the event it submits.
func (p Preset) event(m *control.CCMap, i int, a Automation) (control.Event, error) {
	if a.CC != nil {
		if a.Param != "" {
			return control.Event{}, fmt.Errorf("%w: automation %d: param and cc are mutually exclusive", ErrInvalid, i)
		}

		if a.Value < 0 || a.Value > control.MaxCCValue || a.Value != math.Trunc(a.Value) {
			return control.Event{}, fmt.Errorf("%w: automation %d: controller value %g not an integer in [0, %d]", ErrInvalid, i, a.Value, control.MaxCCValue)
		}

		ev, ok := m.Event(*a.CC, uint8(a.Value))
		if !ok {
			return control.Event{}, fmt.Errorf("%w: automation %d: controller %d is not bound", ErrInvalid, i, *a.CC)
		}

		return ev, nil
	}

	id, err := control.ParseParamID(a.Param)
	if err != nil {
		return control.Event{}, fmt.Errorf("%w: automation %d: %w", ErrInvalid, i, err)
	}

	if id.PerTap() && (a.Tap < 0 || a.Tap >= p.Taps) {
		return control.Event{}, fmt.Errorf("%w: automation %d: tap %d out of range [0, %d)", ErrInvalid, i, a.Tap, p.Taps)
	}

	return control.Event{Param: id, Tap: a.Tap, Value: a.Value}, nil
}

// BankOptions translates p into bank options. sampleRate is used when
// p.SampleRate is 0.
func (p Preset) BankOptions(sampleRate float64, log logrus.FieldLogger) ([]bank.Option, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if p.SampleRate > 0 {
		sampleRate = p.SampleRate
	}

	mode, _ := bank.ParseMode(p.Mode)
	im, _ := interp.ParseMode(p.Interpolation)

	opts := []bank.Option{
		bank.WithSampleRate(sampleRate),
		bank.WithTaps(p.Taps),
		bank.WithMode(mode),
		bank.WithInterpolation(im),
		bank.WithFeedback(p.Feedback),
		bank.WithTapWeight(p.TapWeight),
		bank.WithWetGain(p.WetGain),
		bank.WithMaxDelayMs(p.MaxDelayMs),
		bank.WithSmoothingMs(p.SmoothingMs),
		bank.WithRetuneThreshold(p.RetuneThreshold),
		bank.WithReverseThreshold(p.ReverseThreshold),
		bank.WithQueueCapacity(p.QueueCapacity),
	}

	if len(p.Delays.Ms) > 0 {
		opts = append(opts, bank.WithTapDelaysMs(p.Delays.Ms))
	} else {
		hi := min(p.Delays.MaxMs, p.MaxDelayMs)
		opts = append(opts, bank.WithRandomTapDelays(p.Delays.Seed, min(p.Delays.MinMs, hi), hi))
	}

	if log != nil {
		opts = append(opts, bank.WithLogger(log))
	}

	return opts, nil
}

// TimedEvent is an automation entry resolved to a frame position.
type TimedEvent struct {
	Frame int
	Event control.Event
}

// Schedule returns the automation resolved to frames at sampleRate,
// ordered by time. Entries at the same time keep their file order.
func (p Preset) Schedule(sampleRate float64) ([]TimedEvent, error) {
	m, err := p.CCMap()
	if err != nil {
		return nil, err
	}

	out := make([]TimedEvent, 0, len(p.Automation))

	for i, a := range p.Automation {
		ev, err := p.event(m, i, a)
		if err != nil {
			return nil, err
		}

		out = append(out, TimedEvent{
			Frame: int(a.AtMs * sampleRate / 1000),
			Event: ev,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Frame < out[j].Frame })

	return out, nil
}
