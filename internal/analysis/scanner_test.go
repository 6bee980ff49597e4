package analysis

import (
	"encoding/binary"
	"testing"
)

const testBase uint32 = 0x82000000

// words packs big-endian 32-bit values into a byte buffer.
func words(vs ...uint32) []byte {
	b := make([]byte, len(vs)*4)
	for i, v := range vs {
		binary.BigEndian.PutUint32(b[i*4:], v)
	}
	return b
}

func TestPlausible(t *testing.T) {
	tests := []struct {
		v    uint32
		base uint32
		want bool
	}{
		{0x82000000, testBase, true},
		{0x829A0860, testBase, true},
		{0x82FFFFFF, testBase, true},
		{0x83000000, testBase, false},
		{0x81FFFFFF, testBase, false},
		{0x00000000, testBase, false},
		{0xFFFFFFFF, testBase, false},
		{0x90000200, 0x90000100, true},
		{0x90000000, 0x90000100, false},
	}
	for _, tt := range tests {
		if got := Plausible(tt.v, tt.base); got != tt.want {
			t.Errorf("Plausible(%#x, %#x) = %v, want %v", tt.v, tt.base, got, tt.want)
		}
	}
}

func TestScanFindsTerminatedRun(t *testing.T) {
	data := words(
		0x82000100, 0x82000200, 0x82000300,
		0x82000400, 0x82000500, 0x82000600,
		0x00000000,
	)

	got := ScanPointerTables(data, ScanOptions{BaseAddress: testBase})
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	c := got[0]
	if c.Offset != 0 {
		t.Errorf("Offset = %#x, want 0", c.Offset)
	}
	if c.Count != 7 {
		t.Errorf("Count = %d, want 7 (six pointers plus the terminator)", c.Count)
	}
	if c.Preview != [4]uint32{0x82000100, 0x82000200, 0x82000300, 0x82000400} {
		t.Errorf("Preview = %08X", c.Preview)
	}
}

func TestScanAllOnesTerminator(t *testing.T) {
	data := words(
		0x82000100, 0x82000200, 0x82000300, 0x82000400,
		0xFFFFFFFF,
	)

	got := ScanPointerTables(data, ScanOptions{BaseAddress: testBase})
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Count != 5 {
		t.Errorf("Count = %d, want 5", got[0].Count)
	}
}

func TestScanUnterminatedRunStopsUncounted(t *testing.T) {
	// Three pointers then junk: the junk closes the run without being
	// counted, and the run dies under the minimum length.
	data := words(0x82000100, 0x82000200, 0x82000300, 0x12345678)

	got := ScanPointerTables(data, ScanOptions{BaseAddress: testBase})
	if len(got) != 0 {
		t.Fatalf("got %d candidates, want 0", len(got))
	}
}

func TestScanRejectsSparseSeed(t *testing.T) {
	// Only two of the four seed words are plausible.
	data := words(0x82000100, 0x11111111, 0x82000200, 0x22222222, 0x00000000)

	got := ScanPointerTables(data, ScanOptions{BaseAddress: testBase})
	if len(got) != 0 {
		t.Fatalf("got %d candidates, want 0", len(got))
	}
}

func TestScanProximityDedup(t *testing.T) {
	// Two terminated runs 40 bytes apart: far enough to count separately.
	// The junk between them keeps the gap from reading as one run.
	data := words(
		0x82000100, 0x82000200, 0x82000300, 0x82000400, 0xFFFFFFFF, // run at 0
		0x11111111, 0x22222222, 0x33333333, 0x44444444, 0x55555555, // filler
		0x82000500, 0x82000600, 0x82000700, 0x82000800, 0xFFFFFFFF, // run at 40
	)

	got := ScanPointerTables(data, ScanOptions{BaseAddress: testBase})
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].Offset != 0 || got[1].Offset != 40 {
		t.Errorf("offsets = %#x, %#x, want 0 and 0x28", got[0].Offset, got[1].Offset)
	}

	// With the dedup distance stretched past the gap the second run folds
	// into the first discovery.
	got = ScanPointerTables(data, ScanOptions{BaseAddress: testBase, Proximity: 48})
	if len(got) != 1 {
		t.Fatalf("proximity 48: got %d candidates, want 1", len(got))
	}
}

func TestScanWindowBound(t *testing.T) {
	// The run sits past the scan window and must not be reported.
	data := append(
		words(0, 0, 0, 0, 0, 0, 0, 0),
		words(0x82000100, 0x82000200, 0x82000300, 0x82000400, 0x00000000)...,
	)

	got := ScanPointerTables(data, ScanOptions{BaseAddress: testBase, Window: 16})
	if len(got) != 0 {
		t.Fatalf("got %d candidates, want 0 inside a 16-byte window", len(got))
	}

	// The same data with the window opened up finds it.
	got = ScanPointerTables(data, ScanOptions{BaseAddress: testBase})
	if len(got) != 1 {
		t.Fatalf("full window: got %d candidates, want 1", len(got))
	}
}

func TestScanStartOffset(t *testing.T) {
	data := append(
		words(0x82000100, 0x82000200, 0x82000300, 0x82000400, 0xFFFFFFFF),
		words(0x82000500, 0x82000600, 0x82000700, 0x82000800, 0x00000000)...,
	)

	got := ScanPointerTables(data, ScanOptions{BaseAddress: testBase, Start: 20})
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Offset != 20 {
		t.Errorf("Offset = %#x, want 0x14", got[0].Offset)
	}
}

func TestScanRunBound(t *testing.T) {
	// Sixteen plausible words with no terminator; a 32-byte bound caps the
	// count at the words inside it.
	vs := make([]uint32, 16)
	for i := range vs {
		vs[i] = testBase + uint32(i)*0x10
	}
	data := words(vs...)

	got := ScanPointerTables(data, ScanOptions{BaseAddress: testBase, RunBound: 32, Proximity: 64})
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Count != 8 {
		t.Errorf("Count = %d, want 8 under a 32-byte run bound", got[0].Count)
	}
}

func TestScanEmptyInput(t *testing.T) {
	if got := ScanPointerTables(nil, ScanOptions{BaseAddress: testBase}); len(got) != 0 {
		t.Fatalf("got %d candidates from empty input", len(got))
	}
	if got := ScanPointerTables(words(0x82000100), ScanOptions{BaseAddress: testBase}); len(got) != 0 {
		t.Fatalf("got %d candidates from a buffer too small to seed", len(got))
	}
}
