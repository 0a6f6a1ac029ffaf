package delay

import (
	"errors"
	"testing"
)

func TestNewBufferValidation(t *testing.T) {
	for _, c := range []int{-1, 0, 1} {
		if _, err := NewBuffer(c); !errors.Is(err, ErrCapacity) {
			t.Fatalf("NewBuffer(%d) err = %v, want ErrCapacity", c, err)
		}
	}
}

func TestBufferWrap(t *testing.T) {
	b, err := NewBuffer(8)
	if err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct{ in, want int }{
		{in: 0, want: 0},
		{in: 7, want: 7},
		{in: 8, want: 0},
		{in: 17, want: 1},
		{in: -1, want: 7},
		{in: -9, want: 7},
	} {
		if got := b.Wrap(tc.in); got != tc.want {
			t.Errorf("Wrap(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestBufferSetAtClear(t *testing.T) {
	b, err := NewBuffer(4)
	if err != nil {
		t.Fatal(err)
	}

	b.Set(-1, 0.5)
	if got := b.At(3); got != 0.5 {
		t.Fatalf("At(3) = %v, want 0.5", got)
	}
	if got := b.At(7); got != 0.5 {
		t.Fatalf("At(7) = %v, want 0.5", got)
	}

	b.Clear()
	for i := 0; i < b.Len(); i++ {
		if got := b.At(i); got != 0 {
			t.Fatalf("after Clear At(%d) = %v, want 0", i, got)
		}
	}
}
