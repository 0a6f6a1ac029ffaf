package render

import (
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-multidelay/dsp/dither"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteFile writes a as a stereo PCM WAV file. Quantizer options apply to
// both channels; the default is 16-bit TPDF dither. It returns the number
// of clipped samples.
func WriteFile(path string, a *Audio, opts ...dither.Option) (uint64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("render: %w", err)
	}

	clipped, err := Encode(f, a, opts...)
	if err != nil {
		f.Close()
		return clipped, fmt.Errorf("%s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return clipped, fmt.Errorf("render: %w", err)
	}

	return clipped, nil
}

// Encode writes a as a stereo PCM WAV stream to w.
func Encode(w io.WriteSeeker, a *Audio, opts ...dither.Option) (uint64, error) {
	left, err := dither.NewQuantizer(opts...)
	if err != nil {
		return 0, fmt.Errorf("render: %w", err)
	}

	right, err := dither.NewQuantizer(opts...)
	if err != nil {
		return 0, fmt.Errorf("render: %w", err)
	}

	bitDepth := left.BitDepth()
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return 0, fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
	}

	frames := a.Frames()
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  a.SampleRate,
		},
		Data:           make([]int, 2*frames),
		SourceBitDepth: bitDepth,
	}

	for i := range frames {
		buf.Data[2*i] = left.Quantize(a.Left[i])
		buf.Data[2*i+1] = right.Quantize(a.Right[i])
	}

	enc := wav.NewEncoder(w, a.SampleRate, bitDepth, 2, 1)
	if err := enc.Write(buf); err != nil {
		return 0, fmt.Errorf("render: wav: %w", err)
	}

	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("render: wav: %w", err)
	}

	return left.Clipped() + right.Clipped(), nil
}
