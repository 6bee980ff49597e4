// Package xex decodes the XEX2 container prefix: the fixed header and the
// variable-length directory of typed optional-header records. Everything is
// a read-only view over one in-memory buffer; the package performs no I/O.
package xex

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// Magic is the required tag in the first four bytes of an image.
const Magic = "XEX2"

const (
	fixedHeaderSize = 0x18
	directoryBase   = 0x18
	recordSize      = 8

	keyMask  = 0xFFFFFF00
	sizeMask = 0xFF
)

// Kind discriminates how an optional-header record stores its payload.
type Kind int

const (
	// KindNone means the associated word is itself the value.
	KindNone Kind = iota
	// KindInline means the associated word is a 4-byte inline value.
	KindInline
	// KindOffset means the associated word is a file offset to out-of-line
	// data of unspecified size.
	KindOffset
	// KindSized means the associated word is a file offset to out-of-line
	// data whose size the identifier's low byte declares in words.
	KindSized
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInline:
		return "inline"
	case KindOffset:
		return "offset"
	case KindSized:
		return "sized"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Header is the fixed-layout XEX2 prefix. All fields are big-endian in the
// file.
type Header struct {
	ModuleFlags        uint32 `json:"module_flags"`
	PEDataOffset       uint32 `json:"pe_data_offset"`
	Reserved           uint32 `json:"reserved"`
	SecurityInfoOffset uint32 `json:"security_info_offset"`
	OptionalCount      uint32 `json:"optional_header_count"`
}

// Entry is one optional-header directory record. The raw identifier and
// associated words are kept verbatim so key and kind can always be
// recomputed from them.
type Entry struct {
	ID         uint32
	Associated uint32
}

// Key returns the masked directory key (identifier with the low byte
// cleared).
func (e Entry) Key() uint32 { return e.ID & keyMask }

// Kind derives the storage kind from the identifier's low byte.
func (e Entry) Kind() Kind {
	switch e.ID & sizeMask {
	case 0x00:
		return KindNone
	case 0x01:
		return KindInline
	case 0xFF:
		return KindOffset
	default:
		return KindSized
	}
}

// Size returns the byte size of the out-of-line data a KindSized entry
// points at, and zero for every other kind.
func (e Entry) Size() uint32 {
	if e.Kind() != KindSized {
		return 0
	}
	return (e.ID & sizeMask) * 4
}

// Value returns the inline value carried by KindNone and KindInline
// entries.
func (e Entry) Value() (uint32, bool) {
	if k := e.Kind(); k == KindNone || k == KindInline {
		return e.Associated, true
	}
	return 0, false
}

// Offset returns the file offset carried by KindOffset and KindSized
// entries.
func (e Entry) Offset() (uint32, bool) {
	if k := e.Kind(); k == KindOffset || k == KindSized {
		return e.Associated, true
	}
	return 0, false
}

// Directory maps masked identifier keys to records. Colliding keys resolve
// last-seen-wins, matching the sequential read order of the file.
type Directory map[uint32]Entry

// File is the parsed view of one XEX2 image. It borrows the caller's buffer
// for the duration of the analysis and holds no other state.
type File struct {
	Header    Header
	Directory Directory

	data []byte
}

// Parse decodes the fixed header and the optional-header directory.
//
// A magic mismatch fails with ErrBadMagic and no partial state. A declared
// record count that runs past the buffer fails with ErrTruncated; in that
// case the returned File still carries the fixed header and the records
// that did fit, so callers can choose to proceed with a partial directory.
func Parse(data []byte) (*File, error) {
	if len(data) < len(Magic) || string(data[:len(Magic)]) != Magic {
		return nil, ErrBadMagic
	}
	if len(data) < fixedHeaderSize {
		return nil, errors.Wrap(ErrTruncated, "fixed header")
	}

	f := &File{
		Header: Header{
			ModuleFlags:        be32(data, 0x04),
			PEDataOffset:       be32(data, 0x08),
			Reserved:           be32(data, 0x0C),
			SecurityInfoOffset: be32(data, 0x10),
			OptionalCount:      be32(data, 0x14),
		},
		data: data,
	}

	declared := int64(f.Header.OptionalCount)
	avail := (int64(len(data)) - directoryBase) / recordSize
	n := declared
	if n > avail {
		n = avail
	}
	f.Directory = make(Directory, n)
	for i := int64(0); i < n; i++ {
		off := uint32(directoryBase + i*recordSize)
		e := Entry{ID: be32(data, off), Associated: be32(data, off+4)}
		f.Directory[e.Key()] = e
	}
	if declared > avail {
		return f, errors.Wrapf(ErrTruncated,
			"directory declares %d records, buffer holds %d", declared, avail)
	}
	return f, nil
}

// Entry looks up a directory record by its masked key.
func (f *File) Entry(key uint32) (Entry, bool) {
	e, ok := f.Directory[key]
	return e, ok
}

// EntryPoint returns the guest entry-point address when the image declares
// one.
func (f *File) EntryPoint() (uint32, bool) {
	if e, ok := f.Entry(HdrEntryPoint); ok {
		return e.Value()
	}
	return 0, false
}

// BaseAddress returns the declared guest image base, falling back to
// DefaultBaseAddress when the directory does not carry the tag.
func (f *File) BaseAddress() uint32 {
	if e, ok := f.Entry(HdrImageBaseAddress); ok {
		if v, ok := e.Value(); ok {
			return v
		}
	}
	return DefaultBaseAddress
}

// EntryData returns the out-of-line bytes an offset-type record points at.
// Parse does not bounds-check these offsets; the check happens here, when a
// consumer actually dereferences one.
func (f *File) EntryData(e Entry) ([]byte, error) {
	off, ok := e.Offset()
	if !ok {
		return nil, errors.Errorf("entry %#010x carries no out-of-line data", e.ID)
	}
	end := uint64(off) + uint64(e.Size())
	if uint64(off) > uint64(len(f.data)) || end > uint64(len(f.data)) {
		return nil, errors.Wrapf(ErrTruncated,
			"entry %#010x: %d bytes at %#x", e.ID, e.Size(), off)
	}
	return f.data[off:end], nil
}

func be32(data []byte, off uint32) uint32 {
	return binary.BigEndian.Uint32(data[off : off+4])
}
