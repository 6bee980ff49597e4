package cmd

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"

	"xexfind/internal/analysis"
	"xexfind/internal/xex"
)

// detailWords caps how many words of a candidate the detail views annotate.
const detailWords = 20

// Report is the structured result every output mode renders from.
type Report struct {
	Path             string      `json:"path" jsonschema:"title=Path,description=Analyzed file path"`
	Digest           string      `json:"digest" jsonschema:"title=Digest,description=SHA-256 of the input file"`
	Size             int         `json:"size"`
	Header           xex.Header  `json:"header"`
	PartialDirectory bool        `json:"partial_directory,omitempty"`
	BaseAddress      string      `json:"base_address"`
	EntryPoint       string      `json:"entry_point,omitempty"`
	OptionalHeaders  []EntryInfo `json:"optional_headers"`
	Tables           []TableInfo `json:"candidate_tables"`
	Matches          []MatchInfo `json:"address_matches"`

	base       uint32
	candidates []analysis.CandidateTable
}

// EntryInfo is one optional-header record prepared for display.
type EntryInfo struct {
	Key    string `json:"key"`
	Name   string `json:"name,omitempty"`
	Kind   string `json:"kind"`
	Value  string `json:"value,omitempty"`
	Offset string `json:"offset,omitempty"`
	Size   uint32 `json:"size,omitempty"`
}

// TableInfo is one candidate pointer table prepared for display.
type TableInfo struct {
	Offset  string   `json:"offset"`
	Count   int      `json:"entries"`
	Preview []string `json:"preview"`
}

// MatchInfo is one literal address hit prepared for display.
type MatchInfo struct {
	Target string `json:"target"`
	Order  string `json:"order"`
	Offset string `json:"offset"`
}

// analyze runs the full pipeline over an in-memory image: header parse,
// pointer-table sweep from the PE data offset, and literal address
// location. A truncated directory is reported, not fatal; any other parse
// failure is.
func analyze(path string, data []byte, cfg config) (*Report, error) {
	xf, perr := xex.Parse(data)
	if xf == nil || (perr != nil && !errors.Is(perr, xex.ErrTruncated)) {
		return nil, perr
	}

	base := xf.BaseAddress()
	if cfg.baseSet {
		base = cfg.base
	}

	targets := cfg.targets
	if len(targets) == 0 {
		if ep, ok := xf.EntryPoint(); ok {
			targets = []uint32{ep}
		}
	}

	candidates := analysis.ScanPointerTables(data, analysis.ScanOptions{
		Start:       xf.Header.PEDataOffset,
		BaseAddress: base,
		Window:      cfg.window,
		RunBound:    cfg.runBound,
		Proximity:   cfg.proximity,
		MinRun:      cfg.minRun,
	})
	matches := analysis.LocateAddresses(data, targets)

	digest := sha256.Sum256(data)
	r := &Report{
		Path:             path,
		Digest:           fmt.Sprintf("%x", digest),
		Size:             len(data),
		Header:           xf.Header,
		PartialDirectory: perr != nil,
		BaseAddress:      hexWord(base),
		base:             base,
		candidates:       candidates,
	}
	if ep, ok := xf.EntryPoint(); ok {
		r.EntryPoint = hexWord(ep)
	}

	for _, e := range xf.Directory {
		info := EntryInfo{
			Key:  hexWord(e.Key()),
			Name: xex.HeaderName(e.Key()),
			Kind: e.Kind().String(),
		}
		if v, ok := e.Value(); ok {
			info.Value = hexWord(v)
		}
		if off, ok := e.Offset(); ok {
			info.Offset = hexWord(off)
			info.Size = e.Size()
		}
		r.OptionalHeaders = append(r.OptionalHeaders, info)
	}
	sort.Slice(r.OptionalHeaders, func(i, j int) bool {
		return r.OptionalHeaders[i].Key < r.OptionalHeaders[j].Key
	})

	for _, c := range candidates {
		info := TableInfo{Offset: hexWord(c.Offset), Count: c.Count}
		for _, v := range c.Preview {
			info.Preview = append(info.Preview, hexWord(v))
		}
		r.Tables = append(r.Tables, info)
	}
	for _, m := range matches {
		r.Matches = append(r.Matches, MatchInfo{
			Target: hexWord(m.Target),
			Order:  m.Order.String(),
			Offset: hexWord(m.Offset),
		})
	}
	return r, nil
}

// buildMarkdown renders the report the way the original console layout
// reads: header, directory, matches, candidate list, then annotated dumps
// of the leading candidates. top bounds the candidate list and, unless
// full is set, the dumps cover at most the first five candidates.
func buildMarkdown(r *Report, data []byte, full bool, top int) string {
	var sb strings.Builder

	sb.WriteString("# xexfind\n\n```\n")
	sb.WriteString(fmt.Sprintf("; %s\n", r.Path))
	sb.WriteString(fmt.Sprintf("; %s\n", r.Digest))
	sb.WriteString(fmt.Sprintf("; %d bytes\n", r.Size))
	sb.WriteString("```\n")

	sb.WriteString("\n## XEX2 Header\n\n```\n")
	sb.WriteString(fmt.Sprintf("Module Flags:          %s\n", hexWord(r.Header.ModuleFlags)))
	sb.WriteString(fmt.Sprintf("PE Data Offset:        %s\n", hexWord(r.Header.PEDataOffset)))
	sb.WriteString(fmt.Sprintf("Security Info Offset:  %s\n", hexWord(r.Header.SecurityInfoOffset)))
	sb.WriteString(fmt.Sprintf("Optional Header Count: %d\n", r.Header.OptionalCount))
	sb.WriteString(fmt.Sprintf("Base Address:          %s\n", r.BaseAddress))
	if r.EntryPoint != "" {
		sb.WriteString(fmt.Sprintf("Entry Point:           %s\n", r.EntryPoint))
	}
	sb.WriteString("```\n")
	if r.PartialDirectory {
		sb.WriteString("\n**Directory truncated**: showing the records that fit the buffer.\n")
	}

	if len(r.OptionalHeaders) > 0 {
		sb.WriteString("\n## Optional Headers\n\n```\n")
		for _, e := range r.OptionalHeaders {
			loc := e.Value
			if loc == "" {
				loc = fmt.Sprintf("-> %s", e.Offset)
				if e.Size > 0 {
					loc += fmt.Sprintf(" (%d bytes)", e.Size)
				}
			}
			name := e.Name
			if name == "" {
				name = "?"
			}
			sb.WriteString(fmt.Sprintf("%s  %-6s  %-24s  %s\n", e.Key, e.Kind, loc, name))
		}
		sb.WriteString("```\n")
	}

	sb.WriteString("\n## Address Matches\n\n")
	if len(r.Matches) == 0 {
		sb.WriteString("No target addresses were located.\n")
	} else {
		for _, m := range r.Matches {
			sb.WriteString(fmt.Sprintf("- `%s` (%s) at file offset `%s`\n", m.Target, m.Order, m.Offset))
		}
	}

	sb.WriteString(fmt.Sprintf("\n## Candidate Tables\n\nFound %d potential function pointer tables.\n", len(r.Tables)))
	if len(r.Tables) > 0 {
		shown := len(r.Tables)
		if !full && top > 0 && shown > top {
			shown = top
		}
		sb.WriteString("\n```\n")
		for i := 0; i < shown; i++ {
			t := r.Tables[i]
			sb.WriteString(fmt.Sprintf("[%2d] offset %s  ~%d entries  %s\n",
				i, t.Offset, t.Count, strings.Join(t.Preview, " ")))
		}
		sb.WriteString("```\n")
		if shown < len(r.Tables) {
			sb.WriteString(fmt.Sprintf("\n... and %d more.\n", len(r.Tables)-shown))
		}

		detail := shown
		if !full && detail > 5 {
			detail = 5
		}
		sb.WriteString("\n## Top Candidates\n")
		for i := 0; i < detail; i++ {
			c := r.candidates[i]
			sb.WriteString(fmt.Sprintf("\n### Table %d at %s\n\n```\n", i, hexWord(c.Offset)))
			for _, line := range dumpLines(data, c, r.base, detailWords) {
				sb.WriteString(line)
				sb.WriteByte('\n')
			}
			sb.WriteString("```\n")
		}
	}

	return sb.String()
}

// dumpLines reads up to max leading words of a candidate and annotates each
// the way the original's detailed analysis did.
func dumpLines(data []byte, c analysis.CandidateTable, base uint32, max int) []string {
	n := c.Count
	if n > max {
		n = max
	}
	var lines []string
	for i := 0; i < n; i++ {
		off := int64(c.Offset) + int64(i)*4
		if off+4 > int64(len(data)) {
			break
		}
		v := binary.BigEndian.Uint32(data[off:])
		lines = append(lines, fmt.Sprintf("[%2d] %s  (%s)", i, hexWord(v), annotateWord(v, base)))
	}
	return lines
}

func annotateWord(v, base uint32) string {
	class := analysis.Classify(v, base)
	if class == analysis.ClassASCII {
		return fmt.Sprintf("data: %q", analysis.ASCII(v))
	}
	return class.String()
}

func hexWord(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}
