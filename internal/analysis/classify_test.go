package analysis

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		v    uint32
		want WordClass
	}{
		{0x00000000, ClassNull},
		{0xFFFFFFFF, ClassTerminator},
		{0x82000000, ClassCodePointer},
		{0x829A0860, ClassCodePointer},
		{0x82FFFFFF, ClassCodePointer},
		{0x48454C4F, ClassASCII}, // "HELO"
		{0x2E746578, ClassASCII}, // ".tex"
		{0x00000001, ClassData},
		{0x83000000, ClassData},
		{0x7F000000, ClassData}, // 0x7F byte is not printable
	}
	for _, tt := range tests {
		if got := Classify(tt.v, testBase); got != tt.want {
			t.Errorf("Classify(%#08x) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestASCII(t *testing.T) {
	if got := ASCII(0x48454C4F); got != "HELO" {
		t.Errorf("ASCII(0x48454C4F) = %q, want HELO", got)
	}
	if got := ASCII(0x4C756121); got != "Lua!" {
		t.Errorf("ASCII(0x4C756121) = %q, want Lua!", got)
	}
}

func TestWordClassString(t *testing.T) {
	tests := []struct {
		c    WordClass
		want string
	}{
		{ClassCodePointer, "code ptr"},
		{ClassNull, "NULL"},
		{ClassTerminator, "-1/terminator"},
		{ClassASCII, "ascii"},
		{ClassData, "data"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int(tt.c), got, tt.want)
		}
	}
}
