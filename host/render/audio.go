package render

import (
	"errors"
	"time"

	"github.com/cwbudde/algo-multidelay/dsp/core"
)

var (
	// ErrUnknownFormat is returned for file extensions no decoder handles.
	ErrUnknownFormat = errors.New("render: unknown audio format")
	// ErrInvalidFile is returned when a decoder rejects the stream.
	ErrInvalidFile = errors.New("render: invalid audio file")
	// ErrNoChannels is returned for streams without audio channels.
	ErrNoChannels = errors.New("render: stream has no channels")
	// ErrSampleRate is returned when the bank and the input disagree on
	// the sample rate.
	ErrSampleRate = errors.New("render: sample rate mismatch")
	// ErrBitDepth is returned for output bit depths the WAV writer does
	// not support.
	ErrBitDepth = errors.New("render: unsupported output bit depth")
)

// Audio is a decoded stereo signal. Left and Right have equal length.
type Audio struct {
	SampleRate int
	Left       []float64
	Right      []float64
}

// NewAudio returns silent audio of the given length.
func NewAudio(sampleRate, frames int) *Audio {
	return &Audio{
		SampleRate: sampleRate,
		Left:       make([]float64, frames),
		Right:      make([]float64, frames),
	}
}

// Frames returns the number of stereo frames.
func (a *Audio) Frames() int { return len(a.Left) }

// Duration returns the playing time.
func (a *Audio) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}

	return time.Duration(float64(a.Frames()) / float64(a.SampleRate) * float64(time.Second))
}

// deinterleave splits interleaved samples into stereo. Mono is copied to
// both sides; channels past the second are ignored.
func deinterleave(samples []float64, channels, sampleRate int) (*Audio, error) {
	if channels < 1 {
		return nil, ErrNoChannels
	}

	frames := len(samples) / channels
	a := NewAudio(sampleRate, frames)

	if channels == 2 {
		core.Deinterleave(a.Left, a.Right, samples)
		return a, nil
	}

	for i := range frames {
		a.Left[i] = samples[i*channels]
		if channels == 1 {
			a.Right[i] = a.Left[i]
		} else {
			a.Right[i] = samples[i*channels+1]
		}
	}

	return a, nil
}
