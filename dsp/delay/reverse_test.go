package delay

import (
	"testing"
)

func newRamp(t *testing.T, capacity int, delay float64, n int, opts ...ReverseOption) *ReverseLine {
	t.Helper()
	r, err := NewReverseLine(capacity, delay, opts...)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= n; i++ {
		r.Write(float64(i))
	}
	r.ResetHeadSeparation()
	return r
}

func TestNewReverseLineValidation(t *testing.T) {
	if _, err := NewReverseLine(1, 1); err == nil {
		t.Fatal("expected error for capacity=1")
	}
	if _, err := NewReverseLine(64, 4, WithReverseThreshold(-1)); err == nil {
		t.Fatal("expected error for negative threshold")
	}

	r, err := NewReverseLine(64, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if r.Delay() != 32 || r.Separation() != 32 {
		t.Fatalf("delay=%v separation=%d, want 32", r.Delay(), r.Separation())
	}
	if r.Threshold() != DefaultReverseThreshold {
		t.Fatalf("threshold = %v, want default", r.Threshold())
	}
}

func TestReadReversePlaysWindowBackwards(t *testing.T) {
	r := newRamp(t, 64, 4, 8)

	want := []float64{8, 7, 6, 5, 8, 7, 6, 5}
	for i, w := range want {
		if got := r.ReadReverse(); got != w {
			t.Fatalf("read %d: got %v want %v", i, got, w)
		}
	}
}

func TestReadReverseInterleavedWithWrites(t *testing.T) {
	r := newRamp(t, 64, 4, 8)

	// The reverse head keeps walking back while new samples arrive; each
	// new window starts at the newest sample written when the last one ended.
	var got []float64
	for i := 9; i <= 16; i++ {
		got = append(got, r.ReadReverse())
		r.Write(float64(i))
	}
	want := []float64{8, 7, 6, 5, 11, 10, 9, 8}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("read %d: got %v want %v (all %v)", i, got[i], want[i], got)
		}
	}
}

func TestReverseHeadMovesOppositeToWriteHead(t *testing.T) {
	r := newRamp(t, 64, 16, 20)

	w0, r0 := r.WriteIndex(), r.ReverseIndex()
	r.ReadReverse()
	r.Write(0)
	if r.WriteIndex() != w0+1 {
		t.Fatalf("write index %d, want %d", r.WriteIndex(), w0+1)
	}
	if r.ReverseIndex() != r0-1 {
		t.Fatalf("reverse index %d, want %d", r.ReverseIndex(), r0-1)
	}
}

func TestReverseHeadWrapsBackward(t *testing.T) {
	r, err := NewReverseLine(8, 4)
	if err != nil {
		t.Fatal(err)
	}
	r.Write(1)
	r.ResetHeadSeparation()
	if r.ReverseIndex() != 0 {
		t.Fatalf("reverse index %d, want 0", r.ReverseIndex())
	}
	r.ReadReverse()
	if r.ReverseIndex() != 7 {
		t.Fatalf("reverse index after wrap %d, want 7", r.ReverseIndex())
	}
}

func TestSetDelayTimeWithinThresholdIsNoop(t *testing.T) {
	r := newRamp(t, 48000, 1000, 3000)
	for i := 0; i < 10; i++ {
		r.ReadReverse()
	}
	head := r.ReverseIndex()

	for _, req := range []float64{1000, 1001, 1004.9, 995.1, 999.99} {
		if r.SetDelayTime(req) {
			t.Fatalf("SetDelayTime(%v) applied within threshold", req)
		}
		if r.ReverseIndex() != head {
			t.Fatalf("SetDelayTime(%v) moved reverse head %d -> %d", req, head, r.ReverseIndex())
		}
		if r.Delay() != 1000 {
			t.Fatalf("SetDelayTime(%v) changed delay to %v", req, r.Delay())
		}
	}
}

func TestSetDelayTimeBeyondThresholdRepositions(t *testing.T) {
	r := newRamp(t, 48000, 1000, 3000)
	for i := 0; i < 10; i++ {
		r.ReadReverse()
	}

	if !r.SetDelayTime(1100) {
		t.Fatal("10% change was not applied")
	}
	if r.Delay() != 1100 || r.Separation() != 1100 {
		t.Fatalf("delay=%v separation=%d, want 1100", r.Delay(), r.Separation())
	}
	if r.ReverseIndex() != r.WriteIndex()-1 {
		t.Fatalf("reverse head %d not re-anchored behind write head %d", r.ReverseIndex(), r.WriteIndex())
	}
}

func TestSetDelayTimeClamps(t *testing.T) {
	r, err := NewReverseLine(100, 10, WithReverseThreshold(0))
	if err != nil {
		t.Fatal(err)
	}
	r.SetDelayTime(1e6)
	if r.Delay() != 50 {
		t.Fatalf("delay = %v, want 50", r.Delay())
	}
	r.SetDelayTime(-1)
	if r.Delay() != 1 {
		t.Fatalf("delay = %v, want 1", r.Delay())
	}
}

func TestReadForwardFeedback(t *testing.T) {
	r := newRamp(t, 64, 5, 20)

	// Five writes ago the write head stored 16.
	if got := r.ReadForwardFeedback(); got != 16 {
		t.Fatalf("got %v want 16", got)
	}
	r.Write(21)
	if got := r.ReadForwardFeedback(); got != 17 {
		t.Fatalf("got %v want 17", got)
	}
}

func TestClearBufferAndReset(t *testing.T) {
	r := newRamp(t, 16, 4, 10)
	r.ClearBuffer()
	for i := 0; i < 8; i++ {
		if got := r.ReadReverse(); got != 0 {
			t.Fatalf("after ClearBuffer read %d = %v", i, got)
		}
	}
	if r.WriteIndex() != 10 {
		t.Fatalf("ClearBuffer moved write head to %d", r.WriteIndex())
	}

	r.Reset()
	if r.WriteIndex() != 0 || r.ReverseIndex() != 15 {
		t.Fatalf("after Reset write=%d reverse=%d", r.WriteIndex(), r.ReverseIndex())
	}
}
