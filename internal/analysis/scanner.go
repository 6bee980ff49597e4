// Package analysis implements the heuristic half of the pipeline: a
// windowed sweep for function-pointer tables in raw image bytes, a literal
// address locator, and the word classification the report views share. All
// of it is synchronous, allocation-light, and free of I/O; callers hand in
// a buffer and get structured results back.
package analysis

import (
	"encoding/binary"
	"fmt"

	"xexfind/internal/logging"
)

// Sweep policy defaults. These are tuning knobs, not format facts; every
// one of them is overridable through ScanOptions.
const (
	DefaultWindow    uint32 = 0x100000
	DefaultRunBound  uint32 = 8000
	DefaultProximity uint32 = 32
	DefaultMinRun           = 4
)

const (
	seedWords     = 4
	seedThreshold = 3
)

// ScanOptions configures one pointer-table sweep. Zero-valued Window,
// RunBound, Proximity, and MinRun fall back to the package defaults; Start
// and BaseAddress are taken as given.
type ScanOptions struct {
	Start       uint32 // file offset the sweep begins at
	BaseAddress uint32 // guest image base; its top byte defines plausibility
	Window      uint32 // bytes to sweep from Start
	RunBound    uint32 // max bytes a run may extend from its seed
	Proximity   uint32 // candidates closer than this count as one discovery
	MinRun      int    // runs shorter than this are discarded
}

func (o ScanOptions) withDefaults() ScanOptions {
	if o.Window == 0 {
		o.Window = DefaultWindow
	}
	if o.RunBound == 0 {
		o.RunBound = DefaultRunBound
	}
	if o.Proximity == 0 {
		o.Proximity = DefaultProximity
	}
	if o.MinRun == 0 {
		o.MinRun = DefaultMinRun
	}
	return o
}

// CandidateTable is a byte region that plausibly holds a contiguous array
// of guest code pointers.
type CandidateTable struct {
	Offset  uint32    // file offset of the seed
	Count   int       // estimated entry count, terminator included
	Preview [4]uint32 // first four words read at the seed
}

// Plausible reports whether v lands in the window of guest code addresses
// implied by base: same top byte, low 24 bits free.
func Plausible(v, base uint32) bool {
	return v >= base && v <= base|0x00FFFFFF
}

// ScanPointerTables sweeps a window of the buffer for runs of big-endian
// words that look like guest code pointers. A 4-byte-aligned cursor seeds a
// candidate when at least 3 of the 4 words ahead of it are plausible; the
// run then extends forward, admitting plausible words and closing on the
// first zero or all-ones terminator (which is counted) or on any other word
// (which is not). Seeds landing within Proximity bytes of an accepted
// candidate are dropped as already covered, and runs shorter than MinRun
// are discarded. Candidates come back in seed order, ascending by offset.
//
// This is triage, not verification: coincidental numeric patterns will
// match, tables with out-of-range pointers will not, and an empty result is
// a valid result.
func ScanPointerTables(data []byte, opts ScanOptions) []CandidateTable {
	o := opts.withDefaults()
	var found []CandidateTable

	limit := int64(o.Start) + int64(o.Window)
	for off := int64(o.Start); off+seedWords*4 <= int64(len(data)) && off < limit; off += 4 {
		var words [seedWords]uint32
		plausible := 0
		for j := range words {
			words[j] = binary.BigEndian.Uint32(data[off+int64(j)*4:])
			if Plausible(words[j], o.BaseAddress) {
				plausible++
			}
		}
		if plausible < seedThreshold {
			continue
		}
		if nearAccepted(found, off, int64(o.Proximity)) {
			continue
		}
		count := extendRun(data, off, int64(o.RunBound), o.BaseAddress)
		if count < o.MinRun {
			continue
		}
		found = append(found, CandidateTable{
			Offset:  uint32(off),
			Count:   count,
			Preview: words,
		})
	}

	if logging.IsDebug() {
		lg := logging.NewLogger()
		lg.Debug("pointer-table sweep done",
			"candidates", len(found),
			"start", fmt.Sprintf("%#x", o.Start),
			"window", fmt.Sprintf("%#x", o.Window),
			"base", fmt.Sprintf("%#x", o.BaseAddress))
	}
	return found
}

// nearAccepted is a linear scan over prior candidates. Quadratic in the
// candidate count, which stays in the tens on real images.
func nearAccepted(found []CandidateTable, off, proximity int64) bool {
	for _, c := range found {
		d := off - int64(c.Offset)
		if d < 0 {
			d = -d
		}
		if d < proximity {
			return true
		}
	}
	return false
}

// extendRun walks forward from the seed counting run members. A zero or
// all-ones word closes the run and is counted as its final entry; any word
// that is neither plausible nor a terminator closes it uncounted.
func extendRun(data []byte, seed, bound int64, base uint32) int {
	count := 0
	for off := seed; off+4 <= int64(len(data)) && off < seed+bound; off += 4 {
		v := binary.BigEndian.Uint32(data[off:])
		switch {
		case v == 0 || v == 0xFFFFFFFF:
			return count + 1
		case Plausible(v, base):
			count++
		default:
			return count
		}
	}
	return count
}
