package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheen-md/sheen/markdown"
)

const scenario = "Hello *world*, how are [you](https://example.com)?"

func TestSourceIndexForPosition(t *testing.T) {
	text := build(t, scenario, 80).Text()

	ix, ok := text.SourceIndexForPosition(Position{X: 0, Y: 0})
	assert.True(t, ok)
	assert.Equal(t, 0, ix)

	// Column 6 is the "w" of world, which sits at source offset 7.
	ix, ok = text.SourceIndexForPosition(Position{X: 6, Y: 0})
	assert.True(t, ok)
	assert.Equal(t, 7, ix)
}

func TestSourceIndexForPositionMisses(t *testing.T) {
	text := build(t, "para one\n\npara two", 80).Text()

	// The margin row resolves to the preceding line's end.
	ix, ok := text.SourceIndexForPosition(Position{X: 0, Y: 1})
	assert.False(t, ok)
	assert.Equal(t, 8, ix)

	// Past the document resolves to the last line's end.
	ix, ok = text.SourceIndexForPosition(Position{X: 0, Y: 99})
	assert.False(t, ok)
	assert.Equal(t, 18, ix)

	// Past the line's glyphs resolves within the line but reports a miss.
	_, ok = text.SourceIndexForPosition(Position{X: 70, Y: 0})
	assert.False(t, ok)
}

func TestPositionForSourceIndex(t *testing.T) {
	text := build(t, scenario, 80).Text()

	p, ok := text.PositionForSourceIndex(24)
	require.True(t, ok)
	assert.Equal(t, Position{X: 21, Y: 0}, p)

	_, ok = text.PositionForSourceIndex(10_000)
	assert.False(t, ok)
}

func TestPositionRoundTripAcrossWrap(t *testing.T) {
	text := build(t, "alpha beta gamma", 11).Text()

	p, ok := text.PositionForSourceIndex(11)
	require.True(t, ok)
	assert.Equal(t, Position{X: 0, Y: 1}, p)

	ix, ok := text.SourceIndexForPosition(Position{X: 2, Y: 1})
	assert.True(t, ok)
	assert.Equal(t, 13, ix)
}

func TestSurroundingWordRange(t *testing.T) {
	text := build(t, scenario, 80).Text()

	r := text.SurroundingWordRange(8)
	assert.Equal(t, 7, r.Start)
	assert.Equal(t, 13, r.End)
}

func TestSurroundingLineRange(t *testing.T) {
	text := build(t, scenario, 80).Text()

	r := text.SurroundingLineRange(8)
	assert.Equal(t, markdown.Range{Start: 0, End: len(scenario)}, r)
}

func TestTextForRange(t *testing.T) {
	text := build(t, scenario, 80).Text()

	assert.Equal(t, "world, how are ", text.TextForRange(markdown.Range{Start: 7, End: 24}))
	assert.Equal(t, "Hello world, how are you?", text.TextForRange(markdown.Range{Start: 0, End: len(scenario)}))
}

func TestTextForRangeAcrossLines(t *testing.T) {
	text := build(t, "para one\n\npara two", 80).Text()

	got := text.TextForRange(markdown.Range{Start: 0, End: 18})
	assert.Equal(t, "para one\npara two", got)
}

func TestLinkForPosition(t *testing.T) {
	text := build(t, scenario, 80).Text()

	link := text.LinkForPosition(Position{X: 21, Y: 0})
	require.NotNil(t, link)
	assert.Equal(t, "https://example.com", link.Destination)

	assert.Nil(t, text.LinkForPosition(Position{X: 0, Y: 0}))
	assert.Nil(t, text.LinkForPosition(Position{X: 0, Y: 50}))
}

func TestCodeBlockForPositionMiss(t *testing.T) {
	text := build(t, scenario, 80).Text()
	_, ok := text.CodeBlockForPosition(Position{X: 0, Y: 0})
	assert.False(t, ok)
}
