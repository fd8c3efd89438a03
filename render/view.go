package render

import (
	"strings"

	"github.com/sheen-md/sheen/markdown"
)

// View paints the rendered document as a styled multi-line string. The
// selection and the hovered link are overlaid at paint time; the underlying
// lines stay immutable, so repainting with a different selection is cheap.
func (r *Rendered) View(sel markdown.Selection, hovered *Link) string {
	var sb strings.Builder
	for i, rw := range r.rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		r.paintRow(&sb, rw, sel, hovered)
	}
	return sb.String()
}

func (r *Rendered) paintRow(sb *strings.Builder, rw row, sel markdown.Selection, hovered *Link) {
	if rw.quoteDepth > 0 {
		prefix := strings.Repeat(r.styles.QuotePrefix, rw.quoteDepth)
		sb.WriteString(r.styles.Blockquote.lipgloss().Render(prefix))
	}

	pad := rw.indent - printableWidth(rw.bullet)
	if pad > 0 {
		sb.WriteString(strings.Repeat(" ", pad))
	}
	if rw.bullet != "" {
		sb.WriteString(r.styles.Document.lipgloss().Render(rw.bullet))
	}

	switch {
	case rw.line != nil:
		r.paintLine(sb, rw.line, sel, hovered)
	case rw.decoration != "":
		sb.WriteString(rw.decStyle.Render(rw.decoration))
	}
}

// paintLine writes a line's runs, re-chunked at the selection and hover
// boundaries so overlays never split a styled span incorrectly.
func (r *Rendered) paintLine(sb *strings.Builder, l *Line, sel markdown.Selection, hovered *Link) {
	selStart, selEnd := overlayBounds(l, markdown.Range{Start: sel.Start, End: sel.End}, !sel.IsEmpty())
	hovStart, hovEnd := -1, -1
	if hovered != nil {
		hovStart, hovEnd = overlayBounds(l, hovered.SourceRange, true)
	}

	offset := 0
	for _, run := range l.Runs {
		runEnd := offset + run.Len
		for _, piece := range cutRun(offset, runEnd, selStart, selEnd, hovStart, hovEnd) {
			text := l.Text[piece.start:piece.end]
			switch {
			case selStart <= piece.start && piece.end <= selEnd:
				sb.WriteString(r.styles.Selection.Render(text))
			case hovStart <= piece.start && piece.end <= hovEnd:
				sb.WriteString(run.Style.Underline(true).Render(text))
			default:
				sb.WriteString(run.Style.Render(text))
			}
		}
		offset = runEnd
	}
}

// overlayBounds clips a source range to a line and converts it to rendered
// byte offsets. Returns (-1, -1) when the range misses the line.
func overlayBounds(l *Line, r markdown.Range, active bool) (int, int) {
	if !active {
		return -1, -1
	}
	start := max(r.Start, l.sourceStart())
	end := min(r.End, l.SourceEnd)
	if start >= end {
		return -1, -1
	}
	rs := l.RenderedIndexForSourceIndex(start)
	re := l.RenderedIndexForSourceIndex(end)
	if re > len(l.Text) {
		re = len(l.Text)
	}
	if rs < 0 {
		rs = 0
	}
	if rs >= re {
		return -1, -1
	}
	return rs, re
}

type piece struct{ start, end int }

// cutRun splits the run byte range [start, end) at every overlay boundary
// that falls inside it, in order.
func cutRun(start, end int, cuts ...int) []piece {
	bounds := []int{start}
	for _, c := range cuts {
		if c > start && c < end {
			bounds = append(bounds, c)
		}
	}
	bounds = append(bounds, end)

	// The cut list is tiny; insertion sort keeps it allocation-free.
	for i := 1; i < len(bounds); i++ {
		for j := i; j > 0 && bounds[j] < bounds[j-1]; j-- {
			bounds[j], bounds[j-1] = bounds[j-1], bounds[j]
		}
	}

	var pieces []piece
	for i := 0; i+1 < len(bounds); i++ {
		if bounds[i+1] > bounds[i] {
			pieces = append(pieces, piece{bounds[i], bounds[i+1]})
		}
	}
	return pieces
}
