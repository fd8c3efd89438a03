package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/padding"
	"github.com/muesli/reflow/truncate"

	"github.com/sheen-md/sheen/highlight"
	"github.com/sheen-md/sheen/markdown"
)

// Rendered is the output of one build pass: paint-ready rows plus the
// rendered-text index consumed by the interactive layer.
type Rendered struct {
	text   *RenderedText
	rows   []row
	width  int
	height int
	styles Styles
}

// Text returns the rendered-text index.
func (r *Rendered) Text() *RenderedText { return r.text }

// Height returns the number of rendered rows.
func (r *Rendered) Height() int { return r.height }

// Width returns the layout width the document was built for.
func (r *Rendered) Width() int { return r.width }

// row is one paint row. Decoration rows (margins, rules, table separators)
// carry no line and are absent from the index.
type row struct {
	y          int
	quoteDepth int
	indent     int
	bullet     string
	line       *Line
	decoration string
	decStyle   lipgloss.Style
}

// pendingLine accumulates literal text fragments with their mapping points
// until a container boundary flushes it into rendered lines.
type pendingLine struct {
	text     string
	runs     []Run
	mappings []SourceMapping
}

type listEntry struct {
	bulletIndex *int
}

type builder struct {
	source      string
	styles      Styles
	width       int
	markdownEnd int

	styleStack []StylePrimitive
	codeBlocks []*highlight.Language
	lists      []listEntry
	itemWidths []int

	tableAligns []markdown.Alignment
	tableCells  []tableCell
	inTable     bool

	pending            pendingLine
	currentSourceIndex int
	pendingBullet      string
	pendingMargin      int
	indent             int
	quoteDepth         int
	y                  int

	rows       []row
	lines      []*Line
	links      []Link
	codeRanges []markdown.Range
}

type tableCell struct {
	pendingLine
	sourceEnd int
}

// Build walks the parsed event sequence in one pass, producing the element
// rows and the rendered-text index. The event stream is assumed well formed;
// a close tag without a matching open tag is a programming error and panics.
func Build(doc *markdown.ParsedDocument, styles Styles, width int) *Rendered {
	b := &builder{
		source: doc.Source,
		styles: styles,
		width:  width,
	}
	for _, ev := range doc.Events {
		if ev.Range.End > b.markdownEnd {
			b.markdownEnd = ev.Range.End
		}
	}

	for _, ev := range doc.Events {
		b.event(doc, ev)
	}
	b.flushText()

	return &Rendered{
		text: &RenderedText{
			lines:      b.lines,
			links:      b.links,
			codeBlocks: b.codeRanges,
		},
		rows:   b.rows,
		width:  width,
		height: b.y,
		styles: styles,
	}
}

func (b *builder) event(doc *markdown.ParsedDocument, ev markdown.Event) {
	switch ev.Kind {
	case markdown.EventStart:
		b.startTag(doc, ev)
	case markdown.EventEnd:
		b.endTag(ev)
	case markdown.EventText:
		b.pushText(ev.Text, ev.Range.Start)
	case markdown.EventCode:
		b.pushStyle(b.styles.InlineCode)
		b.pushText(b.slice(ev.Range), ev.Range.Start)
		b.popStyle()
	case markdown.EventHTML, markdown.EventInlineHTML:
		b.pushText(b.slice(ev.Range), ev.Range.Start)
	case markdown.EventRule:
		b.flushText()
		b.blockMarginBefore(ev.Range)
		b.materializeMargin()
		b.decorationRow(strings.Repeat(b.styles.RuleGlyph, max(1, b.contentWidth())), b.styles.Rule)
		b.blockMarginAfter(ev.Range)
	case markdown.EventSoftBreak:
		b.pushText(" ", ev.Range.Start)
	case markdown.EventHardBreak:
		b.pushText("\n", ev.Range.Start)
	default:
		log.Error("unsupported markdown event", "kind", ev.Kind)
	}
}

func (b *builder) startTag(doc *markdown.ParsedDocument, ev markdown.Event) {
	tag := ev.Tag
	switch tag.Kind {
	case markdown.TagParagraph:
		b.blockStart(ev.Range)

	case markdown.TagHeading:
		b.blockStart(ev.Range)
		b.pushStyle(b.styles.heading(tag.Level))

	case markdown.TagBlockquote:
		b.blockStart(ev.Range)
		b.pushStyle(b.styles.Blockquote)
		b.quoteDepth++

	case markdown.TagCodeBlock:
		b.blockStart(ev.Range)
		var language *highlight.Language
		if tag.Fenced {
			language = doc.Languages[tag.Language]
			b.codeRanges = append(b.codeRanges, ev.Range)
		}
		b.codeBlocks = append(b.codeBlocks, language)
		b.pushStyle(b.styles.CodeBlock)
		b.indent += b.styles.CodeBlockIndent

	case markdown.TagHTMLBlock:
		b.blockStart(ev.Range)

	case markdown.TagList:
		if len(b.lists) == 0 {
			b.blockStart(ev.Range)
		} else {
			b.flushText()
		}
		// Copy the start index; the parsed document is shared across builds
		// and must stay immutable.
		var bulletIndex *int
		if tag.Start != nil {
			ix := *tag.Start
			bulletIndex = &ix
		}
		b.lists = append(b.lists, listEntry{bulletIndex: bulletIndex})

	case markdown.TagItem:
		b.flushText()
		bullet := b.styles.Bullet + " "
		if ix := b.nextBulletIndex(); ix != nil {
			bullet = fmt.Sprintf("%d. ", *ix)
		}
		b.pendingBullet = bullet
		w := printableWidth(bullet)
		b.itemWidths = append(b.itemWidths, w)
		b.indent += w

	case markdown.TagEmphasis:
		b.pushStyle(b.styles.Emphasis)

	case markdown.TagStrong:
		b.pushStyle(b.styles.Strong)

	case markdown.TagStrikethrough:
		b.pushStyle(b.styles.Strikethrough)

	case markdown.TagLink:
		if len(b.codeBlocks) == 0 {
			b.links = append(b.links, Link{SourceRange: ev.Range, Destination: tag.Destination})
			b.pushStyle(b.styles.Link)
		}

	case markdown.TagTable:
		b.blockStart(ev.Range)
		b.tableAligns = tag.Alignments
		b.inTable = true

	case markdown.TagTableHead:
		b.tableCells = nil
		b.pushStyle(b.styles.TableHead)

	case markdown.TagTableRow:
		b.tableCells = nil

	case markdown.TagTableCell:
		// Cell text accumulates in the pending line; captured at cell end.

	default:
		log.Debug("unsupported markdown tag", "kind", tag.Kind)
	}
}

func (b *builder) endTag(ev markdown.Event) {
	tag := ev.Tag
	switch tag.Kind {
	case markdown.TagParagraph:
		b.blockEnd(ev.Range)

	case markdown.TagHeading:
		b.popStyle()
		b.blockEnd(ev.Range)

	case markdown.TagBlockquote:
		b.flushText()
		b.popStyle()
		b.quoteDepth--
		b.blockEnd(ev.Range)

	case markdown.TagCodeBlock:
		b.trimTrailingNewline()
		b.flushText()
		b.codeBlocks = b.codeBlocks[:len(b.codeBlocks)-1]
		b.popStyle()
		b.indent -= b.styles.CodeBlockIndent
		b.blockEnd(ev.Range)

	case markdown.TagHTMLBlock:
		b.blockEnd(ev.Range)

	case markdown.TagList:
		b.flushText()
		b.lists = b.lists[:len(b.lists)-1]
		if len(b.lists) == 0 {
			b.blockMarginAfter(ev.Range)
		}

	case markdown.TagItem:
		b.flushText()
		w := b.itemWidths[len(b.itemWidths)-1]
		b.itemWidths = b.itemWidths[:len(b.itemWidths)-1]
		b.indent -= w
		b.pendingBullet = ""

	case markdown.TagEmphasis, markdown.TagStrong, markdown.TagStrikethrough:
		b.popStyle()

	case markdown.TagLink:
		if len(b.codeBlocks) == 0 {
			b.popStyle()
		}

	case markdown.TagTable:
		b.inTable = false
		b.tableAligns = nil
		b.blockMarginAfter(ev.Range)

	case markdown.TagTableHead:
		b.emitTableRow()
		b.popStyle()
		b.decorationRow(strings.Repeat(b.styles.RuleGlyph, max(1, b.contentWidth())), b.styles.Rule)

	case markdown.TagTableRow:
		b.emitTableRow()

	case markdown.TagTableCell:
		b.tableCells = append(b.tableCells, tableCell{
			pendingLine: b.pending,
			sourceEnd:   b.currentSourceIndex,
		})
		b.pending = pendingLine{}

	default:
		log.Debug("unsupported markdown tag end", "kind", tag.Kind)
	}
}

func (b *builder) slice(r markdown.Range) string {
	start := max(0, min(r.Start, len(b.source)))
	end := max(start, min(r.End, len(b.source)))
	return b.source[start:end]
}

func (b *builder) pushStyle(s StylePrimitive) {
	b.styleStack = append(b.styleStack, s)
}

func (b *builder) popStyle() {
	b.styleStack = b.styleStack[:len(b.styleStack)-1]
}

// currentStyle applies the overlay stack to the base style in order; later
// entries override earlier ones on conflicting fields.
func (b *builder) currentStyle() StylePrimitive {
	s := b.styles.Document
	for _, overlay := range b.styleStack {
		s = cascadeStyle(s, overlay)
	}
	return s
}

func (b *builder) nextBulletIndex() *int {
	if len(b.lists) == 0 {
		return nil
	}
	entry := &b.lists[len(b.lists)-1]
	if entry.bulletIndex == nil {
		return nil
	}
	ix := *entry.bulletIndex
	*entry.bulletIndex++
	return &ix
}

// pushText appends a literal fragment to the pending line, recording one
// mapping point per insertion. Inside a fenced code block with a resolved
// language the fragment is split into highlighted sub-runs; unclassified
// spans keep the ambient style.
func (b *builder) pushText(text string, sourceIndex int) {
	if text == "" {
		return
	}
	b.pending.mappings = append(b.pending.mappings, SourceMapping{
		RenderedIndex: len(b.pending.text),
		SourceIndex:   sourceIndex,
	})
	b.pending.text += text
	b.currentSourceIndex = sourceIndex + len(text)

	var language *highlight.Language
	if len(b.codeBlocks) > 0 {
		language = b.codeBlocks[len(b.codeBlocks)-1]
	}
	if language == nil {
		b.pending.runs = append(b.pending.runs, Run{Len: len(text), Style: b.currentStyle().lipgloss()})
		return
	}

	ambient := b.currentStyle()
	offset := 0
	for _, span := range language.Highlight(text) {
		if span.Start > offset {
			b.pending.runs = append(b.pending.runs, Run{Len: span.Start - offset, Style: ambient.lipgloss()})
		}
		style := ambient
		if hl, ok := b.styles.syntax(span.Type); ok {
			style = cascadeStyle(ambient, hl)
		}
		b.pending.runs = append(b.pending.runs, Run{Len: span.End - span.Start, Style: style.lipgloss()})
		offset = span.End
	}
	if offset < len(text) {
		b.pending.runs = append(b.pending.runs, Run{Len: len(text) - offset, Style: ambient.lipgloss()})
	}
}

// trimTrailingNewline drops the artificial newline the parser leaves before a
// closing code fence, so copying the block excludes a trailing blank line.
func (b *builder) trimTrailingNewline() {
	if !strings.HasSuffix(b.pending.text, "\n") {
		return
	}
	b.pending.text = b.pending.text[:len(b.pending.text)-1]
	last := &b.pending.runs[len(b.pending.runs)-1]
	last.Len--
	if last.Len == 0 {
		b.pending.runs = b.pending.runs[:len(b.pending.runs)-1]
	}
	b.currentSourceIndex--
}

func (b *builder) quoteWidth() int {
	return b.quoteDepth * printableWidth(b.styles.QuotePrefix)
}

func (b *builder) contentWidth() int {
	w := b.width - b.quoteWidth() - b.indent
	if w < 1 {
		w = 1
	}
	return w
}

// blockStart flushes pending text and requests the separating margin; the
// first top-level block suppresses its leading margin.
func (b *builder) blockStart(span markdown.Range) {
	b.flushText()
	b.blockMarginBefore(span)
}

func (b *builder) blockEnd(span markdown.Range) {
	b.flushText()
	b.blockMarginAfter(span)
}

func (b *builder) blockMarginBefore(span markdown.Range) {
	if span.Start == 0 {
		return
	}
	b.requestMargin(1)
}

func (b *builder) blockMarginAfter(span markdown.Range) {
	if span.End == b.markdownEnd {
		return
	}
	b.requestMargin(1)
}

func (b *builder) requestMargin(n int) {
	if n > b.pendingMargin {
		b.pendingMargin = n
	}
}

// materializeMargin emits the pending blank rows. Margins are materialized
// lazily before the next content row, which collapses adjacent block margins
// and drops any margin trailing the document.
func (b *builder) materializeMargin() {
	for i := 0; i < b.pendingMargin; i++ {
		b.rows = append(b.rows, row{y: b.y, quoteDepth: b.quoteDepth})
		b.y++
	}
	b.pendingMargin = 0
}

func (b *builder) decorationRow(text string, style StylePrimitive) {
	b.materializeMargin()
	b.rows = append(b.rows, row{
		y:          b.y,
		quoteDepth: b.quoteDepth,
		indent:     b.indent,
		decoration: text,
		decStyle:   style.lipgloss(),
	})
	b.y++
}

// flushText turns the pending line into immutable rendered lines, wrapped to
// the content width, and appends them to the row list. Never called
// mid-paragraph; only container boundaries flush.
func (b *builder) flushText() {
	line := b.pending
	b.pending = pendingLine{}
	if line.text == "" {
		return
	}

	b.materializeMargin()
	lineX := b.quoteWidth() + b.indent

	for i, wr := range wrapLine(line.text, line.runs, line.mappings, b.contentWidth()) {
		sourceEnd := b.currentSourceIndex
		if wr.End < len(line.text) {
			sourceEnd = sourceAt(line.mappings, wr.End)
		}
		l := &Line{
			Text:      wr.Text,
			Runs:      wr.Runs,
			Mappings:  wr.Mappings,
			SourceEnd: sourceEnd,
			X:         lineX,
			Y:         b.y,
			Width:     printableWidth(wr.Text),
		}
		b.lines = append(b.lines, l)

		bullet := ""
		if i == 0 && b.pendingBullet != "" {
			bullet = b.pendingBullet
			b.pendingBullet = ""
		}
		b.rows = append(b.rows, row{
			y:          b.y,
			quoteDepth: b.quoteDepth,
			indent:     b.indent,
			bullet:     bullet,
			line:       l,
		})
		b.y++
	}
}

// emitTableRow lays out the captured cells on a single rendered line. Cells
// are sized equally by dividing the available width by the column count; no
// per-column width negotiation.
func (b *builder) emitTableRow() {
	cells := b.tableCells
	b.tableCells = nil
	if len(cells) == 0 {
		return
	}

	columns := len(b.tableAligns)
	if columns == 0 {
		columns = len(cells)
	}
	cellWidth := (b.contentWidth() - (columns - 1)) / columns
	if cellWidth < 1 {
		cellWidth = 1
	}

	var (
		text      strings.Builder
		runs      []Run
		mappings  []SourceMapping
		sourceEnd int
	)
	baseStyle := b.currentStyle().lipgloss()
	for ci, cell := range cells {
		truncated := truncate.String(cell.text, uint(cellWidth))
		keep := len(truncated)
		padded := padding.String(truncated, uint(cellWidth))

		if len(cell.mappings) > 0 {
			for _, m := range sliceMappings(cell.mappings, 0, keep) {
				mappings = append(mappings, SourceMapping{
					RenderedIndex: m.RenderedIndex + text.Len(),
					SourceIndex:   m.SourceIndex,
				})
			}
		}
		runs = append(runs, sliceRuns(cell.runs, 0, keep)...)
		if pad := len(padded) - keep; pad > 0 {
			runs = append(runs, Run{Len: pad, Style: baseStyle})
		}
		text.WriteString(padded)
		if ci < len(cells)-1 {
			text.WriteString(" ")
			runs = append(runs, Run{Len: 1, Style: baseStyle})
		}
		sourceEnd = cell.sourceEnd
	}

	if len(mappings) == 0 {
		mappings = []SourceMapping{{RenderedIndex: 0, SourceIndex: sourceEnd}}
	}
	if mappings[0].RenderedIndex != 0 {
		mappings = append([]SourceMapping{{RenderedIndex: 0, SourceIndex: mappings[0].SourceIndex}}, mappings...)
	}

	b.materializeMargin()
	l := &Line{
		Text:      text.String(),
		Runs:      runs,
		Mappings:  mappings,
		SourceEnd: sourceEnd,
		X:         b.quoteWidth() + b.indent,
		Y:         b.y,
		Width:     printableWidth(text.String()),
	}
	b.lines = append(b.lines, l)
	b.rows = append(b.rows, row{
		y:          b.y,
		quoteDepth: b.quoteDepth,
		indent:     b.indent,
		line:       l,
	})
	b.y++
}
