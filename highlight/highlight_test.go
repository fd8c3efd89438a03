package highlight

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolvesKnownLanguage(t *testing.T) {
	lang, err := NewRegistry().Resolve(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "go", lang.Name())
}

func TestRegistryUnknownLanguage(t *testing.T) {
	_, err := NewRegistry().Resolve(context.Background(), "not-a-language")
	assert.Error(t, err)
}

func TestHighlightSpansCoverText(t *testing.T) {
	lang, err := NewRegistry().Resolve(context.Background(), "go")
	require.NoError(t, err)

	text := "package main\n"
	spans := lang.Highlight(text)
	require.NotEmpty(t, spans)

	offset := 0
	for _, span := range spans {
		assert.Equal(t, offset, span.Start)
		assert.Greater(t, span.End, span.Start)
		offset = span.End
	}
	assert.Equal(t, len(text), offset)
}
