package analysis

import (
	"encoding/binary"
	"testing"
)

func TestLocateAddresses(t *testing.T) {
	const target uint32 = 0x829A0860

	data := make([]byte, 0x200)
	binary.BigEndian.PutUint32(data[0x40:], target)
	binary.LittleEndian.PutUint32(data[0x100:], target)

	got := LocateAddresses(data, []uint32{target})
	want := []AddressMatch{
		{Target: target, Order: BigEndian, Offset: 0x40},
		{Target: target, Order: LittleEndian, Offset: 0x100},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d matches, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLocateAddressesFirstOccurrence(t *testing.T) {
	const target uint32 = 0x820214FC

	data := make([]byte, 0x100)
	binary.BigEndian.PutUint32(data[0x20:], target)
	binary.BigEndian.PutUint32(data[0x80:], target)

	got := LocateAddresses(data, []uint32{target})
	if len(got) != 1 {
		t.Fatalf("got %d matches, want 1", len(got))
	}
	if got[0].Offset != 0x20 {
		t.Errorf("Offset = %#x, want the first occurrence at 0x20", got[0].Offset)
	}
	if got[0].Order != BigEndian {
		t.Errorf("Order = %v, want BE", got[0].Order)
	}
}

func TestLocateAddressesAbsent(t *testing.T) {
	data := make([]byte, 64)
	if got := LocateAddresses(data, []uint32{0x829A7DC8}); len(got) != 0 {
		t.Fatalf("got %d matches in a zero buffer", len(got))
	}
	if got := LocateAddresses(data, nil); len(got) != 0 {
		t.Fatalf("got %d matches with no targets", len(got))
	}
}

func TestLocateAddressesMultipleTargets(t *testing.T) {
	data := make([]byte, 0x80)
	binary.BigEndian.PutUint32(data[0x10:], 0x82020010)
	binary.BigEndian.PutUint32(data[0x30:], 0x820214FC)

	got := LocateAddresses(data, []uint32{0x82020010, 0x820214FC, 0x829A0860})
	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2", len(got))
	}
	if got[0].Target != 0x82020010 || got[1].Target != 0x820214FC {
		t.Errorf("targets out of input order: %+v", got)
	}
}

func TestByteOrderString(t *testing.T) {
	if BigEndian.String() != "BE" || LittleEndian.String() != "LE" {
		t.Errorf("ByteOrder strings = %q, %q", BigEndian.String(), LittleEndian.String())
	}
}
