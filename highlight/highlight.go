// Package highlight resolves fenced code block language names to syntax
// highlighters. Resolution is asynchronous by contract so callers can run it
// as part of a background parse; the default registry is backed by chroma's
// lexer table and answers immediately.
package highlight

import (
	"context"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Span is a classified byte range within a highlighted text fragment. Spans
// are ordered, non-overlapping, and cover the fragment without gaps.
type Span struct {
	Start, End int
	Type       chroma.TokenType
}

// Language is a resolved syntax language handle.
type Language struct {
	name  string
	lexer chroma.Lexer
}

// Name returns the name the language was resolved under.
func (l *Language) Name() string {
	return l.name
}

// Highlight tokenizes text and returns classified spans. A tokenization
// failure yields no spans; the caller renders the text unstyled.
func (l *Language) Highlight(text string) []Span {
	it, err := l.lexer.Tokenise(nil, text)
	if err != nil {
		return nil
	}

	var spans []Span
	offset := 0
	for tok := it(); tok != chroma.EOF; tok = it() {
		n := len(tok.Value)
		if n == 0 {
			continue
		}
		spans = append(spans, Span{
			Start: offset,
			End:   offset + n,
			Type:  tok.Type,
		})
		offset += n
	}
	return spans
}

// Registry resolves language names to Language handles.
type Registry interface {
	Resolve(ctx context.Context, name string) (*Language, error)
}

// LexerRegistry is a Registry backed by chroma's built-in lexer table.
type LexerRegistry struct{}

// NewRegistry returns the default chroma-backed registry.
func NewRegistry() *LexerRegistry {
	return &LexerRegistry{}
}

// Resolve looks up a lexer by name or alias. Unknown names are an error; the
// caller treats that as "render this block as plain text".
func (r *LexerRegistry) Resolve(_ context.Context, name string) (*Language, error) {
	lexer := lexers.Get(name)
	if lexer == nil {
		return nil, fmt.Errorf("no lexer registered for %q", name)
	}
	return &Language{
		name:  name,
		lexer: chroma.Coalesce(lexer),
	}, nil
}

// NewLanguage wraps an existing lexer. Used by tests and by hosts that bring
// their own lexers.
func NewLanguage(name string, lexer chroma.Lexer) *Language {
	return &Language{name: name, lexer: lexer}
}
