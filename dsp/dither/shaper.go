package dither

// errorFeedback subtracts weighted past quantization errors from the
// input. A zero-order shaper passes input through.
type errorFeedback struct {
	coeffs  []float64
	history []float64
	pos     int
}

func newErrorFeedback(coeffs []float64) errorFeedback {
	return errorFeedback{
		coeffs:  coeffs,
		history: make([]float64, len(coeffs)),
	}
}

func (s *errorFeedback) shape(input float64) float64 {
	order := len(s.coeffs)
	if order == 0 {
		return input
	}

	// history[pos] is the newest error.
	for i, c := range s.coeffs {
		input -= c * s.history[(s.pos-i+order)%order]
	}

	return input
}

func (s *errorFeedback) record(err float64) {
	order := len(s.coeffs)
	if order == 0 {
		return
	}

	s.pos = (s.pos + 1) % order
	s.history[s.pos] = err
}

func (s *errorFeedback) reset() {
	clear(s.history)
	s.pos = 0
}
