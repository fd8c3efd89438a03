package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheen-md/sheen/markdown"
)

func parse(t *testing.T, source string) *markdown.ParsedDocument {
	t.Helper()
	doc := markdown.New(source, nil, "")
	fn := doc.StartParse()
	require.NotNil(t, fn)
	require.Nil(t, doc.FinishParse(fn(context.Background())))
	return doc.Parsed()
}

func build(t *testing.T, source string, width int) *Rendered {
	t.Helper()
	return Build(parse(t, source), NoTTYStyles(), width)
}

func TestBuildPlainParagraph(t *testing.T) {
	r := build(t, "Hello world", 80)

	lines := r.Text().Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Hello world", lines[0].Text)
	assert.Equal(t, []SourceMapping{{0, 0}}, lines[0].Mappings)
	assert.Equal(t, 11, lines[0].SourceEnd)
	assert.Equal(t, 0, lines[0].X)
	assert.Equal(t, 0, lines[0].Y)
	assert.Equal(t, 1, r.Height())
}

func TestBuildInlineStylesCollapseSyntax(t *testing.T) {
	source := "Hello *world*, how are [you](https://example.com)?"
	r := build(t, source, 80)

	lines := r.Text().Lines()
	require.Len(t, lines, 1)
	line := lines[0]
	assert.Equal(t, "Hello world, how are you?", line.Text)
	assert.Equal(t, len(source), line.SourceEnd)

	// Rendered offsets skip the markdown syntax around styled spans.
	assert.Equal(t, 6, line.RenderedIndexForSourceIndex(7))
	assert.Equal(t, 7, line.SourceIndexForRenderedIndex(6))
	assert.Equal(t, 21, line.RenderedIndexForSourceIndex(24))

	// Styled spans produce separate runs.
	assert.Greater(t, len(line.Runs), 1)

	links := r.Text().Links()
	require.Len(t, links, 1)
	assert.Equal(t, "https://example.com", links[0].Destination)
	assert.Equal(t, markdown.Range{Start: 23, End: 49}, links[0].SourceRange)
}

func TestBuildCodeBlockTrimsTrailingNewline(t *testing.T) {
	source := "```go\nfmt.Println(1)\n```"
	r := build(t, source, 80)

	lines := r.Text().Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "fmt.Println(1)", lines[0].Text)
	assert.Equal(t, 20, lines[0].SourceEnd)
	assert.Equal(t, NoTTYStyles().CodeBlockIndent, lines[0].X)

	block, ok := r.Text().CodeBlockForPosition(Position{X: lines[0].X, Y: 0})
	require.True(t, ok)
	assert.Equal(t, markdown.Range{Start: 0, End: len(source)}, block)
}

func TestBuildMarginBetweenBlocks(t *testing.T) {
	r := build(t, "para one\n\npara two", 80)

	lines := r.Text().Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 0, lines[0].Y)
	assert.Equal(t, 2, lines[1].Y)
	assert.Equal(t, 3, r.Height())
}

func TestBuildNoMarginAtDocumentEdges(t *testing.T) {
	r := build(t, "only paragraph", 80)
	assert.Equal(t, 1, r.Height())
}

func TestBuildWrapsToWidth(t *testing.T) {
	r := build(t, "alpha beta gamma", 11)

	lines := r.Text().Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "alpha beta", lines[0].Text)
	assert.Equal(t, "gamma", lines[1].Text)
	assert.Equal(t, 1, lines[1].Y)

	// Mapping across the consumed break space.
	assert.Equal(t, 11, lines[1].Mappings[0].SourceIndex)
}

func TestBuildListBullets(t *testing.T) {
	r := build(t, "- a\n- b", 80)

	lines := r.Text().Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0].Text)
	assert.Equal(t, "b", lines[1].Text)
	assert.Equal(t, 2, lines[0].X)
	assert.Equal(t, 0, lines[0].Y)
	assert.Equal(t, 1, lines[1].Y)

	require.Len(t, r.rows, 2)
	assert.Equal(t, "• ", r.rows[0].bullet)
	assert.Equal(t, "• ", r.rows[1].bullet)
}

func TestBuildOrderedListNumbers(t *testing.T) {
	r := build(t, "1. a\n2. b", 80)

	require.Len(t, r.rows, 2)
	assert.Equal(t, "1. ", r.rows[0].bullet)
	assert.Equal(t, "2. ", r.rows[1].bullet)
}

func TestBuildRuleRow(t *testing.T) {
	r := build(t, "a\n\n---\n\nb", 80)

	lines := r.Text().Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 0, lines[0].Y)
	assert.Equal(t, 4, lines[1].Y)
	assert.Equal(t, 5, r.Height())

	var decorated bool
	for _, rw := range r.rows {
		if rw.decoration != "" {
			decorated = true
			assert.Equal(t, 2, rw.y)
		}
	}
	assert.True(t, decorated)
}

func TestBuildTable(t *testing.T) {
	source := "| a | b |\n| --- | --- |\n| c | d |"
	r := build(t, source, 80)

	lines := r.Text().Lines()
	require.Len(t, lines, 2)

	// Header row, separator, body row.
	assert.Equal(t, 3, r.Height())
	assert.Equal(t, 0, lines[0].Y)
	assert.Equal(t, 2, lines[1].Y)

	assert.Equal(t, 26, lines[1].Mappings[0].SourceIndex)
}

func TestBuildBlockquote(t *testing.T) {
	r := build(t, "> quoted text", 80)

	lines := r.Text().Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "quoted text", lines[0].Text)
	assert.Equal(t, printableWidth(NoTTYStyles().QuotePrefix), lines[0].X)
	require.Len(t, r.rows, 1)
	assert.Equal(t, 1, r.rows[0].quoteDepth)
}

func TestBuildHeadingIncludesMarker(t *testing.T) {
	r := build(t, "# Title\n\nbody", 80)

	lines := r.Text().Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "Title", lines[0].Text)
	// The "#" marker is inside the heading's source range, so a source offset
	// on the marker resolves into the heading line.
	assert.Equal(t, 2, lines[0].Mappings[0].SourceIndex)
}
