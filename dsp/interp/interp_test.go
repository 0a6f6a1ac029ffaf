package interp

import (
	"math"
	"testing"
)

func TestHermite4IdentityOnLinearRamp(t *testing.T) {
	xm1, x0, x1, x2 := -1.0, 0.0, 1.0, 2.0
	for _, tc := range []struct {
		t float64
		w float64
	}{
		{t: 0.0, w: 0.0},
		{t: 0.25, w: 0.25},
		{t: 0.5, w: 0.5},
		{t: 1.0, w: 1.0},
	} {
		got := Hermite4(tc.t, xm1, x0, x1, x2)
		if math.Abs(got-tc.w) > 1e-12 {
			t.Fatalf("Hermite4(%v) = %v, want %v", tc.t, got, tc.w)
		}
	}
}

func TestLinear2Endpoints(t *testing.T) {
	if got := Linear2(0, 3, 7); got != 3 {
		t.Fatalf("Linear2(0) = %v, want 3", got)
	}
	if got := Linear2(1, 3, 7); got != 7 {
		t.Fatalf("Linear2(1) = %v, want 7", got)
	}
	if got := Linear2(0.25, 3, 7); got != 4 {
		t.Fatalf("Linear2(0.25) = %v, want 4", got)
	}
}

func TestModeString(t *testing.T) {
	if Linear.String() != "linear" || Hermite.String() != "hermite" {
		t.Fatalf("unexpected names: %s %s", Linear, Hermite)
	}
	if Mode(9).Valid() {
		t.Fatal("Mode(9) must be invalid")
	}
	if Mode(9).String() != "Mode(9)" {
		t.Fatalf("Mode(9).String() = %q", Mode(9).String())
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Linear, Hermite} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if m, err := ParseMode(""); err != nil || m != Linear {
		t.Fatalf("ParseMode(\"\") = %v, %v, want linear", m, err)
	}
	if _, err := ParseMode("sinc"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
