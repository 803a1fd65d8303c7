package geneticmap

import "testing"

func TestFromScaled(t *testing.T) {
	if got := FromScaled(2550); got != 25.50 {
		t.Fatalf("expected 25.50, got %v", got)
	}
	if got := ToScaled(25.5); got != 2550 {
		t.Fatalf("expected 2550, got %d", got)
	}
}

func TestParsePosition(t *testing.T) {
	got, err := ParsePosition("2550", ScaledCentimorgan)
	if err != nil || got != 25.5 {
		t.Fatalf("scaled: got %v, %v", got, err)
	}
	got, err = ParsePosition(" 12.75 ", Centimorgan)
	if err != nil || got != 12.75 {
		t.Fatalf("cM: got %v, %v", got, err)
	}
	if _, err := ParsePosition("n/a", Centimorgan); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParseUnit(t *testing.T) {
	cases := map[string]Unit{"": Centimorgan, "cM": Centimorgan, "cMx100": ScaledCentimorgan, "scaled": ScaledCentimorgan}
	for in, want := range cases {
		got, err := ParseUnit(in)
		if err != nil || got != want {
			t.Fatalf("ParseUnit(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseUnit("bp"); err == nil {
		t.Fatalf("expected error for unknown unit")
	}
}
