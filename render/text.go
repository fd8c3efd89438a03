package render

import (
	"strings"

	"github.com/sheen-md/sheen/markdown"
)

// Link is a rendered hyperlink: the source byte range of its markdown span
// and the destination it points at.
type Link struct {
	SourceRange markdown.Range
	Destination string
}

// RenderedText is the query layer over the immutable line set produced by a
// build: bidirectional source↔rendered offset translation, word and line
// expansion, text extraction, and link hit-testing. All queries are pure.
type RenderedText struct {
	lines      []*Line
	links      []Link
	codeBlocks []markdown.Range
}

// Lines returns the rendered lines in layout order.
func (t *RenderedText) Lines() []*Line { return t.lines }

// Links returns the link table in source order.
func (t *RenderedText) Links() []Link { return t.links }

// SourceIndexForPosition resolves a document position to a source offset.
// The second result is true for a hit within a line's glyph bounds; on a miss
// (inter-line gap, margin, past the end) it is false and the offset is the
// nearest boundary, so clicks in margins still place a sensible caret.
func (t *RenderedText) SourceIndexForPosition(p Position) (int, bool) {
	for i, line := range t.lines {
		if p.Y > line.Y {
			if i+1 < len(t.lines) && p.Y < t.lines[i+1].Y {
				return line.SourceEnd, false
			}
			continue
		}
		return line.sourceIndexForPosition(p)
	}
	if len(t.lines) > 0 {
		return t.lines[len(t.lines)-1].SourceEnd, false
	}
	return 0, false
}

// PositionForSourceIndex returns the position of the glyph for a source
// offset. The result is false if the offset lies outside every line.
func (t *RenderedText) PositionForSourceIndex(sourceIndex int) (Position, bool) {
	for _, line := range t.lines {
		if sourceIndex < line.sourceStart() {
			break
		}
		if sourceIndex > line.SourceEnd {
			continue
		}
		rendered := line.RenderedIndexForSourceIndex(sourceIndex)
		return Position{X: line.X + line.columnForRenderedIndex(rendered), Y: line.Y}, true
	}
	return Position{}, false
}

// SurroundingWordRange expands a source offset to the nearest space
// characters, scoped to a single rendered line.
func (t *RenderedText) SurroundingWordRange(sourceIndex int) markdown.Range {
	for _, line := range t.lines {
		if sourceIndex > line.SourceEnd {
			continue
		}

		rendered := line.RenderedIndexForSourceIndex(sourceIndex)
		if rendered > len(line.Text) {
			rendered = len(line.Text)
		}
		start := 0
		if ix := strings.LastIndexByte(line.Text[:rendered], ' '); ix >= 0 {
			start = ix + 1
		}
		end := len(line.Text)
		if ix := strings.IndexByte(line.Text[rendered:], ' '); ix >= 0 {
			end = rendered + ix
		}
		return markdown.Range{
			Start: line.SourceIndexForRenderedIndex(start),
			End:   line.SourceIndexForRenderedIndex(end),
		}
	}
	return markdown.Range{Start: sourceIndex, End: sourceIndex}
}

// SurroundingLineRange returns the full source range spanned by the rendered
// line containing the offset.
func (t *RenderedText) SurroundingLineRange(sourceIndex int) markdown.Range {
	for _, line := range t.lines {
		if sourceIndex > line.SourceEnd {
			continue
		}
		return markdown.Range{Start: line.sourceStart(), End: line.SourceEnd}
	}
	return markdown.Range{Start: sourceIndex, End: sourceIndex}
}

// TextForRange concatenates the rendered text of every line intersecting the
// source range, clipped to its bounds and joined with line breaks. Used for
// clipboard copy.
func (t *RenderedText) TextForRange(r markdown.Range) string {
	var parts []string
	for _, line := range t.lines {
		if r.Start > line.SourceEnd {
			continue
		}
		if r.End < line.sourceStart() {
			break
		}

		start := 0
		if r.Start >= line.sourceStart() {
			start = line.RenderedIndexForSourceIndex(r.Start)
		}
		end := line.SourceEnd
		if r.End <= line.SourceEnd {
			end = r.End
		}
		rendered := line.RenderedIndexForSourceIndex(end)
		if rendered > len(line.Text) {
			rendered = len(line.Text)
		}
		if start > rendered {
			start = rendered
		}
		parts = append(parts, line.Text[start:rendered])
	}
	return strings.Join(parts, "\n")
}

// LinkForPosition returns the link under a position, or nil. Positions that
// miss rendered text never hit a link. The link table is small; a linear
// scan is fine.
func (t *RenderedText) LinkForPosition(p Position) *Link {
	sourceIndex, ok := t.SourceIndexForPosition(p)
	if !ok {
		return nil
	}
	for i := range t.links {
		if t.links[i].SourceRange.Contains(sourceIndex) {
			return &t.links[i]
		}
	}
	return nil
}

// CodeBlockForPosition returns the source range of the fenced code block
// under a position, if any.
func (t *RenderedText) CodeBlockForPosition(p Position) (markdown.Range, bool) {
	sourceIndex, ok := t.SourceIndexForPosition(p)
	if !ok {
		return markdown.Range{}, false
	}
	for _, r := range t.codeBlocks {
		if r.Contains(sourceIndex) {
			return r, true
		}
	}
	return markdown.Range{}, false
}
