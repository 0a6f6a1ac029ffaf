package render

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// Format names a container the decoder understands.
type Format string

// Supported input formats.
const (
	FormatWAV  Format = "wav"
	FormatAIFF Format = "aiff"
	FormatMP3  Format = "mp3"
	FormatOgg  Format = "ogg"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV, nil
	case ".aif", ".aiff":
		return FormatAIFF, nil
	case ".mp3":
		return FormatMP3, nil
	case ".ogg", ".oga":
		return FormatOgg, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// DecodeFile decodes the audio file at path, choosing the decoder by
// extension.
func DecodeFile(path string) (*Audio, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	defer f.Close()

	a, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return a, nil
}

// Decode reads a whole stream of the given format into stereo float64
// samples in [-1, 1).
func Decode(r io.ReadSeeker, format Format) (*Audio, error) {
	switch format {
	case FormatWAV:
		return decodeWAV(r)
	case FormatAIFF:
		return decodeAIFF(r)
	case FormatMP3:
		return decodeMP3(r)
	case FormatOgg:
		return decodeOgg(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func decodeWAV(r io.ReadSeeker) (*Audio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a PCM WAV stream", ErrInvalidFile)
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("render: wav: %w", err)
	}

	format := dec.Format()
	bitDepth := int(dec.SampleBitDepth())

	if bitDepth == 0 || format == nil {
		return nil, fmt.Errorf("%w: unknown wav layout", ErrInvalidFile)
	}

	bytesPerSample := (bitDepth-1)/8 + 1
	buf := &audio.IntBuffer{
		Format:         format,
		Data:           make([]int, int(dec.PCMLen())/bytesPerSample),
		SourceBitDepth: bitDepth,
	}

	n, err := dec.PCMBuffer(buf)
	if err != nil {
		return nil, fmt.Errorf("render: wav: %w", err)
	}

	buf.Data = buf.Data[:n]

	return fromFloatBuffer(buf.AsFloatBuffer(), bitDepth)
}

func decodeAIFF(r io.ReadSeeker) (*Audio, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not an AIFF stream", ErrInvalidFile)
	}

	dec.ReadInfo()

	format := dec.Format()
	bitDepth := int(dec.BitDepth)

	if bitDepth == 0 || format == nil {
		return nil, fmt.Errorf("%w: unknown aiff layout", ErrInvalidFile)
	}

	chunk := &audio.IntBuffer{Format: format, Data: make([]int, 4096)}

	var all []int

	for {
		n, err := dec.PCMBuffer(chunk)
		all = append(all, chunk.Data[:n]...)

		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("render: aiff: %w", err)
		}

		if n == 0 || err == io.EOF {
			break
		}
	}

	buf := &audio.IntBuffer{Format: format, Data: all, SourceBitDepth: bitDepth}

	return fromFloatBuffer(buf.AsFloatBuffer(), bitDepth)
}

func fromFloatBuffer(buf *audio.FloatBuffer, bitDepth int) (*Audio, error) {
	scale := 1 / math.Exp2(float64(bitDepth-1))
	for i := range buf.Data {
		buf.Data[i] *= scale
	}

	return deinterleave(buf.Data, buf.Format.NumChannels, buf.Format.SampleRate)
}

// go-mp3 always yields interleaved 16-bit little-endian stereo.
func decodeMP3(r io.Reader) (*Audio, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: mp3: %w", ErrInvalidFile, err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("render: mp3: %w", err)
	}

	samples := make([]float64, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		samples[i] = float64(v) / 32768
	}

	return deinterleave(samples, 2, dec.SampleRate())
}

func decodeOgg(r io.Reader) (*Audio, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: ogg: %w", ErrInvalidFile, err)
	}

	samples := make([]float64, len(data))
	for i, v := range data {
		samples[i] = float64(v)
	}

	return deinterleave(samples, format.Channels, format.SampleRate)
}
