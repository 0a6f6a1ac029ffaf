package delay

import (
	"errors"
	"fmt"
)

// ErrCapacity is returned when a buffer is too small to hold a delay.
var ErrCapacity = errors.New("delay: capacity must be >= 2")

// Buffer is a fixed-capacity circular sample store.
type Buffer struct {
	samples []float64
}

// NewBuffer returns a zeroed buffer holding capacity samples.
func NewBuffer(capacity int) (*Buffer, error) {
	b := &Buffer{}
	if err := b.init(capacity); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Buffer) init(capacity int) error {
	if capacity < 2 {
		return fmt.Errorf("%w: %d", ErrCapacity, capacity)
	}
	b.samples = make([]float64, capacity)
	return nil
}

// Len returns the capacity C.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Wrap maps any integer index, including negative ones, into [0, C).
func (b *Buffer) Wrap(i int) int {
	c := len(b.samples)
	i %= c
	if i < 0 {
		i += c
	}
	return i
}

// At returns the sample at index i modulo C.
func (b *Buffer) At(i int) float64 {
	return b.samples[b.Wrap(i)]
}

// Set stores v at index i modulo C.
func (b *Buffer) Set(i int, v float64) {
	b.samples[b.Wrap(i)] = v
}

// Clear zeroes the storage.
func (b *Buffer) Clear() {
	clear(b.samples)
}
