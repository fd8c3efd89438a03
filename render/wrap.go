package render

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// wrappedRow is one visual row produced by wrapping a pending line. Offsets
// are byte offsets into the pending line's text; Mappings are rebased to the
// row.
type wrappedRow struct {
	Text     string
	Runs     []Run
	Mappings []SourceMapping
	Start    int // rendered offset of the row's first byte in the pending line
	End      int // rendered offset one past the row's last byte
}

// wrapLine splits a pending line at hard newlines and word-wraps each segment
// to width cells, preserving the source mappings of every row. Spaces and
// newlines consumed at break points are not rendered; the mapping of the
// following row accounts for them.
//
// muesli/reflow performs the same greedy wrap for styled strings but discards
// byte provenance, which the rendered-text index needs, so the wrap is done
// here with mappings carried through.
func wrapLine(text string, runs []Run, mappings []SourceMapping, width int) []wrappedRow {
	var rows []wrappedRow
	segStart := 0
	for {
		nl := strings.IndexByte(text[segStart:], '\n')
		segEnd := len(text)
		if nl >= 0 {
			segEnd = segStart + nl
		}
		rows = wrapSegment(rows, text, runs, mappings, segStart, segEnd, width)
		if nl < 0 {
			break
		}
		segStart = segEnd + 1
	}
	return rows
}

func wrapSegment(rows []wrappedRow, text string, runs []Run, mappings []SourceMapping, start, end, width int) []wrappedRow {
	for {
		if width <= 0 || printableWidth(text[start:end]) <= width {
			return append(rows, makeRow(text, runs, mappings, start, end))
		}

		// Walk runes until the width budget is exhausted, remembering the
		// last space as a break candidate.
		acc := 0
		lastSpace := -1
		i := start
		for i < end {
			r, size := utf8.DecodeRuneInString(text[i:])
			w := runewidth.RuneWidth(r)
			if acc+w > width && i > start {
				break
			}
			if r == ' ' {
				lastSpace = i
			}
			acc += w
			i += size
		}

		// The break space is consumed, not rendered.
		breakAt, next := i, i
		if i < end && text[i] == ' ' {
			breakAt, next = i, i+1
		} else if lastSpace > start {
			breakAt, next = lastSpace, lastSpace+1
		}
		rows = append(rows, makeRow(text, runs, mappings, start, breakAt))
		start = next
	}
}

func makeRow(text string, runs []Run, mappings []SourceMapping, start, end int) wrappedRow {
	return wrappedRow{
		Text:     text[start:end],
		Runs:     sliceRuns(runs, start, end),
		Mappings: sliceMappings(mappings, start, end),
		Start:    start,
		End:      end,
	}
}

// sliceMappings extracts the mappings covering rendered bytes [start, end),
// rebased so the row starts at rendered index zero. Every row gets a mapping
// at index zero, synthesized by constant-offset interpolation when the cut
// lands between mapping points.
func sliceMappings(mappings []SourceMapping, start, end int) []SourceMapping {
	out := []SourceMapping{{RenderedIndex: 0, SourceIndex: sourceAt(mappings, start)}}
	for _, m := range mappings {
		if m.RenderedIndex <= start {
			continue
		}
		if m.RenderedIndex >= end {
			break
		}
		out = append(out, SourceMapping{
			RenderedIndex: m.RenderedIndex - start,
			SourceIndex:   m.SourceIndex,
		})
	}
	return out
}

// sourceAt resolves a rendered offset in the pending line to a source offset
// via the closest preceding mapping.
func sourceAt(mappings []SourceMapping, rendered int) int {
	if len(mappings) == 0 {
		return 0
	}
	m := precedingMapping(mappings, rendered, func(m SourceMapping) int { return m.RenderedIndex })
	return m.SourceIndex + (rendered - m.RenderedIndex)
}

func sliceRuns(runs []Run, start, end int) []Run {
	var out []Run
	offset := 0
	for _, run := range runs {
		runStart, runEnd := offset, offset+run.Len
		offset = runEnd
		if runEnd <= start {
			continue
		}
		if runStart >= end {
			break
		}
		a, b := max(runStart, start), min(runEnd, end)
		if b > a {
			out = append(out, Run{Len: b - a, Style: run.Style})
		}
	}
	return out
}

func printableWidth(s string) int {
	return runewidth.StringWidth(s)
}
