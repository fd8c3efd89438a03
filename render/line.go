package render

import (
	"sort"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Position is a cell coordinate: X is a column, Y a row, both relative to the
// top-left of the rendered document.
type Position struct {
	X, Y int
}

// SourceMapping ties a byte offset in a rendered line's text to the source
// byte offset it was produced from. Mappings within a line are sorted by both
// fields; offsets between mapping points are resolved from the closest
// preceding mapping by constant difference.
type SourceMapping struct {
	RenderedIndex int
	SourceIndex   int
}

// Run is a styled span of a rendered line, measured in bytes of plain text.
type Run struct {
	Len   int
	Style lipgloss.Style
}

// Line is one laid-out visual row of text after wrapping and styling.
// Immutable once built; discarded and rebuilt wholesale on every re-parse.
type Line struct {
	Text      string
	Runs      []Run
	Mappings  []SourceMapping
	SourceEnd int // one past the source offset of the line's last character

	X, Y  int
	Width int // printable cell width of Text
}

// precedingMapping returns the closest mapping at or before the given value
// of key. Lines always carry a mapping at rendered index zero.
func precedingMapping(mappings []SourceMapping, v int, key func(SourceMapping) int) SourceMapping {
	i := sort.Search(len(mappings), func(i int) bool {
		return key(mappings[i]) > v
	}) - 1
	if i < 0 {
		i = 0
	}
	return mappings[i]
}

// RenderedIndexForSourceIndex maps a source offset into this line's text.
func (l *Line) RenderedIndexForSourceIndex(sourceIndex int) int {
	m := precedingMapping(l.Mappings, sourceIndex, func(m SourceMapping) int { return m.SourceIndex })
	return m.RenderedIndex + (sourceIndex - m.SourceIndex)
}

// SourceIndexForRenderedIndex maps a byte offset in this line's text back to
// the source.
func (l *Line) SourceIndexForRenderedIndex(renderedIndex int) int {
	m := precedingMapping(l.Mappings, renderedIndex, func(m SourceMapping) int { return m.RenderedIndex })
	return m.SourceIndex + (renderedIndex - m.RenderedIndex)
}

// renderedIndexForColumn converts a column relative to the line's X origin to
// a byte offset in Text. The second result is false when the column falls
// outside the line's glyphs.
func (l *Line) renderedIndexForColumn(col int) (int, bool) {
	if col < 0 {
		return 0, false
	}
	acc := 0
	for i := 0; i < len(l.Text); {
		r, size := utf8.DecodeRuneInString(l.Text[i:])
		w := runewidth.RuneWidth(r)
		if col < acc+w {
			return i, true
		}
		acc += w
		i += size
	}
	return len(l.Text), false
}

// columnForRenderedIndex converts a byte offset in Text to a column relative
// to the line's X origin.
func (l *Line) columnForRenderedIndex(ix int) int {
	if ix > len(l.Text) {
		ix = len(l.Text)
	}
	return runewidth.StringWidth(l.Text[:ix])
}

// sourceIndexForPosition resolves a document position against this line. The
// second result is false when the position misses the line's glyph bounds;
// the offset is then the nearest boundary.
func (l *Line) sourceIndexForPosition(p Position) (int, bool) {
	ix, inGlyphs := l.renderedIndexForColumn(p.X - l.X)
	return l.SourceIndexForRenderedIndex(ix), inGlyphs && p.Y == l.Y
}

func (l *Line) sourceStart() int {
	return l.Mappings[0].SourceIndex
}
