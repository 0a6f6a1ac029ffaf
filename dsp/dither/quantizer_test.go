package dither

import (
	"math"
	"math/rand/v2"
	"testing"
)

func seeded(seed uint64) Option {
	return WithRNG(rand.New(rand.NewPCG(seed, 0)))
}

func TestNewQuantizerValidation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"bit depth too small", []Option{WithBitDepth(1)}},
		{"bit depth too large", []Option{WithBitDepth(33)}},
		{"bad dither type", []Option{WithDitherType(DitherType(99))}},
		{"negative amplitude", []Option{WithDitherAmplitude(-1)}},
		{"NaN amplitude", []Option{WithDitherAmplitude(math.NaN())}},
		{"Inf feedback", []Option{WithErrorFeedback([]float64{math.Inf(1)})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewQuantizer(tt.opts...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewQuantizerDefaults(t *testing.T) {
	q, err := NewQuantizer(nil)
	if err != nil {
		t.Fatal(err)
	}

	if q.BitDepth() != 16 {
		t.Errorf("BitDepth() = %d, want 16", q.BitDepth())
	}
	if q.DitherType() != DitherTriangular {
		t.Errorf("DitherType() = %v, want triangular", q.DitherType())
	}
	if q.DitherAmplitude() != 1 {
		t.Errorf("DitherAmplitude() = %v, want 1", q.DitherAmplitude())
	}
	if !q.Limit() {
		t.Error("Limit() should be true by default")
	}
}

func TestQuantizeWithoutDither(t *testing.T) {
	q, err := NewQuantizer(WithDitherType(DitherNone))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{0.5, 16384},
		{2, 32767},
		{-2, -32768},
	}
	for _, tt := range tests {
		if got := q.Quantize(tt.in); got != tt.want {
			t.Errorf("Quantize(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if q.Clipped() != 2 {
		t.Errorf("Clipped() = %d, want 2", q.Clipped())
	}

	q.Reset()
	if q.Clipped() != 0 {
		t.Error("Reset should clear the clip counter")
	}
}

func TestQuantizeWithoutLimit(t *testing.T) {
	q, err := NewQuantizer(WithDitherType(DitherNone), WithLimit(false))
	if err != nil {
		t.Fatal(err)
	}

	if got := q.Quantize(2); got != 65534 {
		t.Errorf("Quantize(2) = %d, want 65534", got)
	}
	if q.Clipped() != 0 {
		t.Errorf("Clipped() = %d, want 0", q.Clipped())
	}
}

func TestQuantizeBitDepths(t *testing.T) {
	for _, bits := range []int{8, 16, 24} {
		q, err := NewQuantizer(WithBitDepth(bits), WithDitherType(DitherNone))
		if err != nil {
			t.Fatal(err)
		}

		hi := 1<<(bits-1) - 1
		if got := q.Quantize(1); got != hi {
			t.Errorf("%d bit: Quantize(1) = %d, want %d", bits, got, hi)
		}
		if got := q.Quantize(-10); got != -hi-1 {
			t.Errorf("%d bit: Quantize(-10) = %d, want %d", bits, got, -hi-1)
		}
	}
}

func TestTriangularDitherBounded(t *testing.T) {
	q, err := NewQuantizer(seeded(1))
	if err != nil {
		t.Fatal(err)
	}

	for i := range 10000 {
		x := math.Sin(float64(i) * 0.01)
		scaled := x * 32767
		if diff := math.Abs(float64(q.Quantize(x)) - scaled); diff > 1.5 {
			t.Fatalf("sample %d: |q - x| = %v LSB, want <= 1.5", i, diff)
		}
	}
}

func TestTriangularDitherUnbiased(t *testing.T) {
	q, err := NewQuantizer(seeded(2))
	if err != nil {
		t.Fatal(err)
	}

	const n = 100000
	x := 0.3 / 32767
	sum := 0
	for range n {
		sum += q.Quantize(x)
	}

	if mean := float64(sum) / n; math.Abs(mean-0.3) > 0.02 {
		t.Errorf("mean code = %v, want 0.3 LSB", mean)
	}
}

func TestDitherDeterministicWithSeed(t *testing.T) {
	a, _ := NewQuantizer(seeded(7))
	b, _ := NewQuantizer(seeded(7))

	for i := range 1000 {
		x := 0.001 * float64(i%13)
		if qa, qb := a.Quantize(x), b.Quantize(x); qa != qb {
			t.Fatalf("sample %d: %d != %d", i, qa, qb)
		}
	}
}

func TestRectangularDitherBounded(t *testing.T) {
	q, err := NewQuantizer(WithDitherType(DitherRectangular), seeded(3))
	if err != nil {
		t.Fatal(err)
	}

	for range 1000 {
		if got := q.Quantize(0); got < -1 || got > 1 {
			t.Fatalf("Quantize(0) = %d, want within one LSB", got)
		}
	}
}

func TestErrorFeedbackPreservesMean(t *testing.T) {
	q, err := NewQuantizer(WithDitherType(DitherNone), WithErrorFeedback([]float64{1}))
	if err != nil {
		t.Fatal(err)
	}

	const n = 1000
	x := 0.3 / 32767
	sum := 0
	for range n {
		sum += q.Quantize(x)
	}

	if mean := float64(sum) / n; math.Abs(mean-0.3) > 0.01 {
		t.Errorf("mean code = %v, want 0.3 LSB", mean)
	}
}

func TestQuantizeBlock(t *testing.T) {
	q, err := NewQuantizer(WithDitherType(DitherNone))
	if err != nil {
		t.Fatal(err)
	}

	dst := make([]int, 3)
	if n := q.QuantizeBlock(dst, []float64{0, 1, -1, 0.5}); n != 3 {
		t.Fatalf("QuantizeBlock wrote %d samples, want 3", n)
	}

	want := []int{0, 32767, -32767}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("dst[%d] = %d, want %d", i, dst[i], want[i])
		}
	}
}

func TestProcessInPlaceRoundTrip(t *testing.T) {
	q, err := NewQuantizer(WithDitherType(DitherNone))
	if err != nil {
		t.Fatal(err)
	}

	buf := []float64{0, 0.25, -0.5, 1}
	want := append([]float64(nil), buf...)
	q.ProcessInPlace(buf)

	for i := range buf {
		if math.Abs(buf[i]-want[i]) > 1.0/32767 {
			t.Errorf("buf[%d] = %v, want %v within one LSB", i, buf[i], want[i])
		}
	}
}
