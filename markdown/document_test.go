package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptySourceSchedulesNoParse(t *testing.T) {
	doc := New("", nil, "")
	assert.Nil(t, doc.StartParse())
	assert.False(t, doc.Parsing())
}

func TestParseCommitsResult(t *testing.T) {
	doc := New("# Title", nil, "")
	fn := doc.StartParse()
	require.NotNil(t, fn)
	assert.True(t, doc.Parsing())

	follow := doc.FinishParse(fn(context.Background()))
	assert.Nil(t, follow)
	assert.False(t, doc.Parsing())
	assert.Equal(t, "# Title", doc.Parsed().Source)
	assert.NotEmpty(t, doc.Parsed().Events)
}

func TestAppendWhileParsing(t *testing.T) {
	doc := New("hello", nil, "")
	fn := doc.StartParse()
	require.NotNil(t, fn)

	// A mutation while a parse is in flight must not spawn a second task.
	assert.Nil(t, doc.Append(" world"))
	assert.Equal(t, "hello world", doc.Source())

	// Completing the stale parse commits it, then re-parses the new source.
	follow := doc.FinishParse(fn(context.Background()))
	require.NotNil(t, follow)
	assert.Equal(t, "hello", doc.Parsed().Source)

	assert.Nil(t, doc.FinishParse(follow(context.Background())))
	assert.Equal(t, "hello world", doc.Parsed().Source)
}

func TestAppendSchedulesParseWhenIdle(t *testing.T) {
	doc := New("a", nil, "")
	require.Nil(t, doc.FinishParse(doc.StartParse()(context.Background())))

	fn := doc.Append("b")
	require.NotNil(t, fn)
	require.Nil(t, doc.FinishParse(fn(context.Background())))
	assert.Equal(t, "ab", doc.Parsed().Source)
}

func TestResetIdenticalSourceIsNoOp(t *testing.T) {
	doc := New("same", nil, "")
	require.Nil(t, doc.FinishParse(doc.StartParse()(context.Background())))

	assert.Nil(t, doc.Reset("same"))
	assert.Equal(t, "same", doc.Parsed().Source)
}

func TestResetSupersedesInFlightParse(t *testing.T) {
	doc := New("old", nil, "")
	stale := doc.StartParse()
	require.NotNil(t, stale)

	fresh := doc.Reset("new")
	require.NotNil(t, fresh)

	// The superseded task's result must be discarded.
	assert.Nil(t, doc.FinishParse(stale(context.Background())))
	assert.Empty(t, doc.Parsed().Source)

	assert.Nil(t, doc.FinishParse(fresh(context.Background())))
	assert.Equal(t, "new", doc.Parsed().Source)
}

func TestTextOnlyDocument(t *testing.T) {
	doc := NewTextOnly("see https://example.com")
	fn := doc.StartParse()
	require.NotNil(t, fn)
	require.Nil(t, doc.FinishParse(fn(context.Background())))

	var dest string
	for _, ev := range doc.Parsed().Events {
		if ev.Kind == EventStart && ev.Tag.Kind == TagLink {
			dest = ev.Tag.Destination
		}
	}
	assert.Equal(t, "https://example.com", dest)
}
