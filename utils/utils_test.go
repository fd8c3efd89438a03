package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveFrontmatter(t *testing.T) {
	in := []byte("---\ntitle: x\n---\n# Hello\n")
	assert.Equal(t, []byte("# Hello\n"), RemoveFrontmatter(in))

	plain := []byte("# Hello\n")
	assert.Equal(t, plain, RemoveFrontmatter(plain))
}

func TestIsMarkdownFile(t *testing.T) {
	assert.True(t, IsMarkdownFile("README.md"))
	assert.True(t, IsMarkdownFile("doc.MARKDOWN"))
	assert.True(t, IsMarkdownFile("no-extension"))
	assert.False(t, IsMarkdownFile("main.go"))
}

func TestWrapCodeBlock(t *testing.T) {
	assert.Equal(t, "```go\nx := 1\n```", WrapCodeBlock("x := 1\n", "go"))
	assert.Equal(t, "```go\nx := 1\n```", WrapCodeBlock("x := 1", "go"))
}
