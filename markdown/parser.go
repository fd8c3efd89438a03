package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/charmbracelet/log"
)

// Range is a half-open byte range into the source text.
type Range struct {
	Start, End int
}

// Len returns the length of the range.
func (r Range) Len() int { return r.End - r.Start }

// Contains reports whether the source offset lies within the range.
func (r Range) Contains(ix int) bool { return ix >= r.Start && ix < r.End }

// EventKind discriminates parsed markdown events.
type EventKind int

const (
	EventStart EventKind = iota
	EventEnd
	EventText
	EventCode
	EventHTML
	EventInlineHTML
	EventRule
	EventSoftBreak
	EventHardBreak
)

// TagKind discriminates container tags carried by start/end events.
type TagKind int

const (
	TagParagraph TagKind = iota
	TagHeading
	TagBlockquote
	TagCodeBlock
	TagHTMLBlock
	TagList
	TagItem
	TagEmphasis
	TagStrong
	TagStrikethrough
	TagLink
	TagImage
	TagTable
	TagTableHead
	TagTableRow
	TagTableCell
)

// Alignment is a table column alignment.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Tag carries the payload of a start or end event. Only the fields relevant
// to the Kind are populated.
type Tag struct {
	Kind        TagKind
	Level       int    // TagHeading
	Language    string // TagCodeBlock
	Fenced      bool   // TagCodeBlock
	Destination string // TagLink
	Start       *int   // TagList; nil for unordered lists
	Alignments  []Alignment
}

// Event is one parsed markdown event tagged with its source byte range.
// Insertion order is rendering order.
type Event struct {
	Range Range
	Kind  EventKind
	Tag   Tag    // EventStart, EventEnd
	Text  string // EventText
}

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// Parse converts source text into an ordered event sequence plus the set of
// language names referenced by fenced code blocks (the empty name stands for
// fences with no language, so callers can apply a fallback). Deterministic
// and pure.
func Parse(source string) ([]Event, map[string]struct{}) {
	src := []byte(source)
	doc := md.Parser().Parse(text.NewReader(src))

	w := &eventWalker{source: source}
	_ = ast.Walk(doc, w.walk)
	return w.events, w.languages
}

type eventWalker struct {
	source    string
	events    []Event
	languages map[string]struct{}
	pos       int // end of the last emitted range, used to locate segment-less nodes
}

func (w *eventWalker) emit(ev Event) {
	w.events = append(w.events, ev)
	if ev.Range.End > w.pos {
		w.pos = ev.Range.End
	}
}

func (w *eventWalker) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	src := []byte(w.source)

	switch n := n.(type) {
	case *ast.Document:
		return ast.WalkContinue, nil

	case *ast.Paragraph:
		w.tag(n, entering, Tag{Kind: TagParagraph}, w.blockSpan(n))

	case *ast.TextBlock:
		// Tight list item content; flows without paragraph framing.
		return ast.WalkContinue, nil

	case *ast.Heading:
		w.tag(n, entering, Tag{Kind: TagHeading, Level: n.Level}, w.blockSpan(n))

	case *ast.Blockquote:
		w.tag(n, entering, Tag{Kind: TagBlockquote}, w.span(n))

	case *ast.FencedCodeBlock:
		if entering {
			lang := string(n.Language(src))
			w.referenceLanguage(lang)
			span := w.fencedSpan(n)
			w.emit(Event{Range: span, Kind: EventStart, Tag: Tag{Kind: TagCodeBlock, Fenced: true, Language: lang}})
			w.emitLines(n.Lines())
			w.emit(Event{Range: span, Kind: EventEnd, Tag: Tag{Kind: TagCodeBlock, Fenced: true, Language: lang}})
		}
		return ast.WalkSkipChildren, nil

	case *ast.CodeBlock:
		if entering {
			span := w.blockSpan(n)
			w.emit(Event{Range: span, Kind: EventStart, Tag: Tag{Kind: TagCodeBlock}})
			w.emitLines(n.Lines())
			w.emit(Event{Range: span, Kind: EventEnd, Tag: Tag{Kind: TagCodeBlock}})
		}
		return ast.WalkSkipChildren, nil

	case *ast.HTMLBlock:
		if entering {
			span := w.blockSpan(n)
			w.emit(Event{Range: span, Kind: EventStart, Tag: Tag{Kind: TagHTMLBlock}})
			for i := 0; i < n.Lines().Len(); i++ {
				seg := n.Lines().At(i)
				w.emit(Event{Range: Range{seg.Start, seg.Stop}, Kind: EventHTML})
			}
			w.emit(Event{Range: span, Kind: EventEnd, Tag: Tag{Kind: TagHTMLBlock}})
		}
		return ast.WalkSkipChildren, nil

	case *ast.List:
		tag := Tag{Kind: TagList}
		if n.IsOrdered() {
			start := n.Start
			tag.Start = &start
		}
		w.tag(n, entering, tag, w.lineExtended(w.span(n)))

	case *ast.ListItem:
		w.tag(n, entering, Tag{Kind: TagItem}, w.lineExtended(w.span(n)))

	case *ast.ThematicBreak:
		if entering {
			w.emit(Event{Range: w.ruleSpan(), Kind: EventRule})
		}

	case *ast.Text:
		if entering {
			seg := n.Segment
			w.emit(Event{
				Range: Range{seg.Start, seg.Stop},
				Kind:  EventText,
				Text:  w.source[seg.Start:seg.Stop],
			})
			breakRange := Range{seg.Stop, min(seg.Stop+1, len(w.source))}
			if n.HardLineBreak() {
				w.emit(Event{Range: breakRange, Kind: EventHardBreak})
			} else if n.SoftLineBreak() {
				w.emit(Event{Range: breakRange, Kind: EventSoftBreak})
			}
		}

	case *ast.String:
		if entering && len(n.Value) > 0 {
			w.emit(Event{Range: Range{w.pos, w.pos}, Kind: EventText, Text: string(n.Value)})
		}

	case *ast.CodeSpan:
		if entering {
			w.emit(Event{Range: w.inlineSpan(n), Kind: EventCode})
		}
		return ast.WalkSkipChildren, nil

	case *ast.Emphasis:
		kind := TagEmphasis
		if n.Level >= 2 {
			kind = TagStrong
		}
		w.tag(n, entering, Tag{Kind: kind}, w.emphasisSpan(n))

	case *east.Strikethrough:
		w.tag(n, entering, Tag{Kind: TagStrikethrough}, w.delimitedSpan(n, 2))

	case *ast.Link:
		w.tag(n, entering, Tag{Kind: TagLink, Destination: string(n.Destination)}, w.linkSpan(n))

	case *ast.AutoLink:
		if entering {
			url := string(n.URL(src))
			span := w.locate(url)
			w.emit(Event{Range: span, Kind: EventStart, Tag: Tag{Kind: TagLink, Destination: url}})
			w.emit(Event{Range: span, Kind: EventText, Text: url})
			w.emit(Event{Range: span, Kind: EventEnd, Tag: Tag{Kind: TagLink, Destination: url}})
		}
		return ast.WalkSkipChildren, nil

	case *ast.Image:
		w.tag(n, entering, Tag{Kind: TagImage, Destination: string(n.Destination)}, w.linkSpan(n))

	case *ast.RawHTML:
		if entering {
			span := Range{w.pos, w.pos}
			if n.Segments.Len() > 0 {
				span = Range{n.Segments.At(0).Start, n.Segments.At(n.Segments.Len() - 1).Stop}
			}
			w.emit(Event{Range: span, Kind: EventInlineHTML})
		}
		return ast.WalkSkipChildren, nil

	case *east.Table:
		tag := Tag{Kind: TagTable}
		for _, a := range n.Alignments {
			tag.Alignments = append(tag.Alignments, tableAlignment(a))
		}
		w.tag(n, entering, tag, w.lineExtended(w.span(n)))

	case *east.TableHeader:
		w.tag(n, entering, Tag{Kind: TagTableHead}, w.span(n))

	case *east.TableRow:
		w.tag(n, entering, Tag{Kind: TagTableRow}, w.span(n))

	case *east.TableCell:
		w.tag(n, entering, Tag{Kind: TagTableCell}, w.span(n))

	default:
		if entering {
			log.Debug("skipping unsupported markdown node", "kind", n.Kind().String())
		}
	}

	return ast.WalkContinue, nil
}

func (w *eventWalker) tag(n ast.Node, entering bool, tag Tag, span Range) {
	kind := EventEnd
	if entering {
		kind = EventStart
	}
	w.emit(Event{Range: span, Kind: kind, Tag: tag})
}

func (w *eventWalker) referenceLanguage(name string) {
	if w.languages == nil {
		w.languages = make(map[string]struct{})
	}
	w.languages[name] = struct{}{}
}

func (w *eventWalker) emitLines(lines *text.Segments) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		w.emit(Event{
			Range: Range{seg.Start, seg.Stop},
			Kind:  EventText,
			Text:  w.source[seg.Start:seg.Stop],
		})
	}
}

// blockSpan computes the byte range of a block node from its content lines,
// extended left to the start of the first line so block markers ("#", ">")
// are included.
func (w *eventWalker) blockSpan(n ast.Node) Range {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return w.span(n)
	}
	start := lineStart(w.source, lines.At(0).Start)
	return Range{start, lines.At(lines.Len() - 1).Stop}
}

// span computes a node's byte range as the union of its descendants' spans.
func (w *eventWalker) span(n ast.Node) Range {
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		return w.blockSpan(n)
	}
	if t, ok := n.(*ast.Text); ok {
		return Range{t.Segment.Start, t.Segment.Stop}
	}
	span := Range{-1, -1}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		cs := w.span(c)
		if cs.Start < 0 {
			continue
		}
		if span.Start < 0 || cs.Start < span.Start {
			span.Start = cs.Start
		}
		if cs.End > span.End {
			span.End = cs.End
		}
	}
	if span.Start < 0 {
		return Range{w.pos, w.pos}
	}
	return span
}

// lineExtended widens a span left to the start of its first line so block
// markers ("-", "|") are included.
func (w *eventWalker) lineExtended(r Range) Range {
	r.Start = lineStart(w.source, r.Start)
	return r
}

// inlineSpan is span without the block-marker extension.
func (w *eventWalker) inlineSpan(n ast.Node) Range {
	span := Range{-1, -1}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		cs := w.span(c)
		if cs.Start < 0 {
			continue
		}
		if span.Start < 0 || cs.Start < span.Start {
			span.Start = cs.Start
		}
		if cs.End > span.End {
			span.End = cs.End
		}
	}
	if span.Start < 0 {
		return Range{w.pos, w.pos}
	}
	return span
}

// delimitedSpan widens an inline container's span by its delimiter run on
// both sides, clamped to the source bounds.
func (w *eventWalker) delimitedSpan(n ast.Node, delim int) Range {
	span := w.inlineSpan(n)
	span.Start = max(0, span.Start-delim)
	span.End = min(len(w.source), span.End+delim)
	return span
}

func (w *eventWalker) emphasisSpan(n *ast.Emphasis) Range {
	return w.delimitedSpan(n, n.Level)
}

// linkSpan widens a link's content span to cover the full markdown syntax:
// the leading "[" and the trailing "](url)" when present.
func (w *eventWalker) linkSpan(n ast.Node) Range {
	span := w.inlineSpan(n)
	if span.Start > 0 && w.source[span.Start-1] == '[' {
		span.Start--
	}
	if span.End < len(w.source) && w.source[span.End] == ']' {
		rest := w.source[span.End:]
		if len(rest) > 1 && rest[1] == '(' {
			if close := strings.IndexByte(rest, ')'); close >= 0 {
				span.End += close + 1
			}
		} else {
			span.End++
		}
	}
	return span
}

// ruleSpan locates the next thematic break line at or after the walker's
// current position.
func (w *eventWalker) ruleSpan() Range {
	rest := w.source[w.pos:]
	offset := w.pos
	for len(rest) > 0 {
		lineEnd := strings.IndexByte(rest, '\n')
		var line string
		if lineEnd < 0 {
			line = rest
		} else {
			line = rest[:lineEnd]
		}
		if isRuleLine(line) {
			return Range{offset, offset + len(line)}
		}
		if lineEnd < 0 {
			break
		}
		rest = rest[lineEnd+1:]
		offset += lineEnd + 1
	}
	return Range{w.pos, w.pos}
}

func isRuleLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 3 {
		return false
	}
	marker := trimmed[0]
	if marker != '-' && marker != '*' && marker != '_' {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != marker && trimmed[i] != ' ' {
			return false
		}
	}
	return true
}

// fencedSpan computes the byte range of a fenced code block including the
// opening and closing fence lines, so that source slicing plus WithoutFences
// recovers the block body.
func (w *eventWalker) fencedSpan(n *ast.FencedCodeBlock) Range {
	var contentStart, contentStop int
	if lines := n.Lines(); lines.Len() > 0 {
		contentStart = lines.At(0).Start
		contentStop = lines.At(lines.Len() - 1).Stop
	} else if n.Info != nil {
		contentStart = lineStart(w.source, n.Info.Segment.Start)
		contentStop = contentStart
	} else {
		return Range{w.pos, w.pos}
	}

	// The opening fence is the line preceding the first content line.
	start := lineStart(w.source, contentStart)
	if start > 0 {
		start = lineStart(w.source, start-1)
	}

	// The closing fence, if any, begins at or after the content stop.
	end := contentStop
	if ix := strings.Index(w.source[contentStop:], "```"); ix >= 0 {
		end = contentStop + ix + 3
		for end < len(w.source) && w.source[end] == '`' {
			end++
		}
	}
	return Range{start, end}
}

// locate finds text at or after the walker's position. Used for nodes whose
// segments goldmark does not expose directly.
func (w *eventWalker) locate(s string) Range {
	if ix := strings.Index(w.source[w.pos:], s); ix >= 0 {
		start := w.pos + ix
		return Range{start, start + len(s)}
	}
	if ix := strings.Index(w.source, s); ix >= 0 {
		return Range{ix, ix + len(s)}
	}
	return Range{w.pos, w.pos}
}

func lineStart(source string, pos int) int {
	if pos <= 0 {
		return 0
	}
	if ix := strings.LastIndexByte(source[:pos], '\n'); ix >= 0 {
		return ix + 1
	}
	return 0
}

func tableAlignment(a east.Alignment) Alignment {
	switch a {
	case east.AlignLeft:
		return AlignLeft
	case east.AlignCenter:
		return AlignCenter
	case east.AlignRight:
		return AlignRight
	default:
		return AlignNone
	}
}

// ParseLinksOnly treats source as plain text, emitting only text, line break,
// and link events for bare http(s) URLs. Used for documents that should not
// be interpreted as markdown.
func ParseLinksOnly(source string) []Event {
	var events []Event
	offset := 0
	for _, line := range strings.SplitAfter(source, "\n") {
		text := strings.TrimSuffix(line, "\n")
		emitLinkText(&events, text, offset)
		if len(text) < len(line) {
			events = append(events, Event{
				Range: Range{offset + len(text), offset + len(line)},
				Kind:  EventHardBreak,
			})
		}
		offset += len(line)
	}
	return events
}

func emitLinkText(events *[]Event, line string, offset int) {
	for len(line) > 0 {
		start := indexURL(line)
		if start < 0 {
			*events = append(*events, Event{
				Range: Range{offset, offset + len(line)},
				Kind:  EventText,
				Text:  line,
			})
			return
		}
		if start > 0 {
			*events = append(*events, Event{
				Range: Range{offset, offset + start},
				Kind:  EventText,
				Text:  line[:start],
			})
		}
		url := line[start:]
		if end := strings.IndexFunc(url, isURLBoundary); end >= 0 {
			url = url[:end]
		}
		url = strings.TrimRight(url, ".,;:!?)>\"'")
		span := Range{offset + start, offset + start + len(url)}
		tag := Tag{Kind: TagLink, Destination: url}
		*events = append(*events,
			Event{Range: span, Kind: EventStart, Tag: tag},
			Event{Range: span, Kind: EventText, Text: url},
			Event{Range: span, Kind: EventEnd, Tag: tag},
		)
		line = line[start+len(url):]
		offset = span.End
	}
}

func indexURL(s string) int {
	https := strings.Index(s, "https://")
	http := strings.Index(s, "http://")
	switch {
	case https < 0:
		return http
	case http < 0:
		return https
	default:
		return min(http, https)
	}
}

func isURLBoundary(r rune) bool {
	return r == ' ' || r == '\t' || r == '<' || r == '>'
}

// WithoutFences strips the fence lines from a fenced code block: the opening
// fence including any language name, and the closing fence. Input without
// fences is returned unchanged. Used when copying code blocks to the
// clipboard.
func WithoutFences(markdown string) string {
	if opening := strings.Index(markdown, "```"); opening >= 0 {
		markdown = markdown[opening:]
		// Trim through the next newline; this also drops the language name.
		if newline := strings.IndexByte(markdown, '\n'); newline >= 0 {
			markdown = markdown[newline+1:]
		}
	}
	if closing := strings.LastIndex(markdown, "```"); closing >= 0 {
		markdown = markdown[:closing]
	}
	return markdown
}
