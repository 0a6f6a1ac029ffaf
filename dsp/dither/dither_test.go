package dither

import "testing"

func TestDitherTypeNames(t *testing.T) {
	for dt := DitherNone; dt < ditherTypeCount; dt++ {
		got, err := ParseDitherType(dt.String())
		if err != nil || got != dt {
			t.Errorf("ParseDitherType(%q) = %v, %v", dt.String(), got, err)
		}
	}

	if _, err := ParseDitherType("gaussian"); err == nil {
		t.Error("expected error for unknown type")
	}

	if DitherType(-1).Valid() || DitherType(3).Valid() {
		t.Error("out-of-range types reported valid")
	}

	if got := DitherType(9).String(); got != "DitherType(9)" {
		t.Errorf("String() = %q", got)
	}
}
