package core

// Deinterleave splits interleaved stereo frames into left and right.
// Frames beyond the shorter destination are ignored; it returns the number
// of frames written.
func Deinterleave(left, right, interleaved []float64) int {
	n := min(len(left), len(right), len(interleaved)/2)
	for i := 0; i < n; i++ {
		left[i] = interleaved[2*i]
		right[i] = interleaved[2*i+1]
	}
	return n
}

