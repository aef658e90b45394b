package target

import "testing"

func TestLookupKnownProfiles(t *testing.T) {
	cases := []struct {
		name  string
		width int
	}{
		{"x86", 4},
		{"X86_64", 8},
		{"amd64", 8},
		{" arm ", 4},
		{"aarch64", 8},
	}
	for _, tc := range cases {
		p, err := Lookup(tc.name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", tc.name, err)
		}
		if p.PointerWidth != tc.width {
			t.Fatalf("Lookup(%q) width=%d, want %d", tc.name, p.PointerWidth, tc.width)
		}
	}
}

func TestLookupUnknownProfile(t *testing.T) {
	if _, err := Lookup("mips"); err == nil {
		t.Fatal("expected error for unknown architecture")
	}
}

func TestWithPointerWidth(t *testing.T) {
	p := X86_64().WithPointerWidth(4)
	if p.PointerWidth != 4 {
		t.Fatalf("override ignored: %d", p.PointerWidth)
	}
	if X86_64().WithPointerWidth(0).PointerWidth != 8 {
		t.Fatal("zero override must keep the profile width")
	}
}
