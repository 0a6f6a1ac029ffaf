package ir

import (
	"errors"
	"fmt"
)

// ErrInvalidLength is returned for non-positive capture or block lengths.
var ErrInvalidLength = errors.New("ir: length must be positive")

// Processor renders one stereo buffer. outL and outR may alias inL and
// inR.
type Processor interface {
	Process(inL, inR, outL, outR []float64)
}

// Response is a captured stereo impulse response.
type Response struct {
	Left  []float64
	Right []float64
}

// Capture feeds a unit impulse into both channels of p followed by
// silence, in blocks of blockSize frames, and records length frames of
// output.
func Capture(p Processor, length, blockSize int) (Response, error) {
	if length <= 0 || blockSize <= 0 {
		return Response{}, fmt.Errorf("%w: length=%d blockSize=%d", ErrInvalidLength, length, blockSize)
	}

	resp := Response{
		Left:  make([]float64, length),
		Right: make([]float64, length),
	}

	inL := make([]float64, blockSize)
	inR := make([]float64, blockSize)

	for start := 0; start < length; start += blockSize {
		end := min(start+blockSize, length)
		n := end - start

		clear(inL)
		clear(inR)

		if start == 0 {
			inL[0] = 1
			inR[0] = 1
		}

		p.Process(inL[:n], inR[:n], resp.Left[start:end], resp.Right[start:end])
	}

	return resp, nil
}
