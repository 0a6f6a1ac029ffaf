package core

// MsToSamples converts a duration in milliseconds to a (fractional)
// number of samples at sampleRate.
func MsToSamples(ms, sampleRate float64) float64 {
	return ms * sampleRate / 1000
}

// SamplesToMs converts a sample count at sampleRate to milliseconds.
func SamplesToMs(samples, sampleRate float64) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return samples * 1000 / sampleRate
}

// NextPowerOfTwo returns the smallest power of two >= n (1 for n <= 1).
func NextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
