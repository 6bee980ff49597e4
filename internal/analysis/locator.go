package analysis

import (
	"bytes"
	"encoding/binary"
)

// ByteOrder tags which encoding of a target address matched.
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

func (o ByteOrder) String() string {
	if o == LittleEndian {
		return "LE"
	}
	return "BE"
}

// AddressMatch records the first occurrence of one encoding of a target
// address in the buffer.
type AddressMatch struct {
	Target uint32
	Order  ByteOrder
	Offset uint32
}

// LocateAddresses searches the full buffer for the literal 4-byte encoding
// of each target, big-endian and little-endian independently. Only the
// first occurrence per (target, order) pair is reported; an encoding that
// never occurs simply contributes nothing.
func LocateAddresses(data []byte, targets []uint32) []AddressMatch {
	var matches []AddressMatch
	var enc [4]byte
	for _, target := range targets {
		binary.BigEndian.PutUint32(enc[:], target)
		if pos := bytes.Index(data, enc[:]); pos >= 0 {
			matches = append(matches, AddressMatch{Target: target, Order: BigEndian, Offset: uint32(pos)})
		}
		binary.LittleEndian.PutUint32(enc[:], target)
		if pos := bytes.Index(data, enc[:]); pos >= 0 {
			matches = append(matches, AddressMatch{Target: target, Order: LittleEndian, Offset: uint32(pos)})
		}
	}
	return matches
}
