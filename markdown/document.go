// Package markdown parses markdown source into an ordered event stream and
// owns the parsed-document cache plus the background re-parse scheduler.
package markdown

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/sheen-md/sheen/highlight"
)

// ParsedDocument is an immutable snapshot of one successful parse: the source
// it was parsed from, the event sequence, and the resolved language handles
// for fenced code blocks. Shared by pointer; safe for concurrent reads.
type ParsedDocument struct {
	Source    string
	Events    []Event
	Languages map[string]*highlight.Language
}

var emptyDocument = &ParsedDocument{}

// ParseResult is the output of a background parse task, handed back to
// FinishParse on the owning goroutine.
type ParseResult struct {
	Doc   *ParsedDocument
	epoch int
}

// ParseFunc runs one parse task. The host runs it off the interactive path
// (a bubbletea command, a goroutine) and feeds the result to FinishParse.
type ParseFunc func(ctx context.Context) ParseResult

// Document owns the current source text and its parse lifecycle. All methods
// must be called from the owning (UI) goroutine; only the ParseFunc returned
// by Append/Reset/FinishParse runs elsewhere.
type Document struct {
	source    string
	parsed    *ParsedDocument
	pending   bool
	dirty     bool
	epoch     int
	registry  highlight.Registry
	fallback  string
	linksOnly bool
}

// New creates a document. registry may be nil, in which case fenced code
// blocks render as plain text. fallback is the language name applied to
// fences that declare none.
func New(source string, registry highlight.Registry, fallback string) *Document {
	return &Document{
		source:   source,
		parsed:   emptyDocument,
		registry: registry,
		fallback: fallback,
	}
}

// NewTextOnly creates a document whose source is treated as plain text with
// clickable bare URLs rather than markdown.
func NewTextOnly(source string) *Document {
	return &Document{
		source:    source,
		parsed:    emptyDocument,
		linksOnly: true,
	}
}

// Source returns the current source text.
func (d *Document) Source() string { return d.source }

// Parsed returns the latest committed parse. Never nil; before the first
// commit it is an empty document.
func (d *Document) Parsed() *ParsedDocument { return d.parsed }

// Parsing reports whether a parse task is in flight.
func (d *Document) Parsing() bool { return d.pending }

// Append adds text to the source and schedules a re-parse. The returned
// ParseFunc is nil when a parse is already in flight (the dirty flag will
// re-run it on completion) or when the source is empty.
func (d *Document) Append(text string) ParseFunc {
	d.source += text
	return d.requestParse()
}

// Reset replaces the source. A reset to the identical source is a no-op.
// Any in-flight parse is superseded: its result will be discarded because it
// carries a stale epoch.
func (d *Document) Reset(source string) ParseFunc {
	if source == d.source {
		return nil
	}
	d.source = source
	d.epoch++
	d.pending = false
	d.dirty = false
	d.parsed = emptyDocument
	return d.requestParse()
}

// StartParse schedules the initial parse for a freshly constructed document.
func (d *Document) StartParse() ParseFunc {
	return d.requestParse()
}

// FinishParse commits a completed parse result. Results from before the most
// recent Reset are discarded. If the source changed while the task was in
// flight, a follow-up ParseFunc for the current source is returned and must
// be run by the caller.
func (d *Document) FinishParse(res ParseResult) ParseFunc {
	if res.epoch != d.epoch {
		return nil
	}
	d.parsed = res.Doc
	d.pending = false
	if d.dirty {
		return d.requestParse()
	}
	return nil
}

func (d *Document) requestParse() ParseFunc {
	if d.source == "" {
		return nil
	}
	if d.pending {
		d.dirty = true
		return nil
	}
	d.dirty = false
	d.pending = true

	source := d.source
	epoch := d.epoch
	registry := d.registry
	fallback := d.fallback
	linksOnly := d.linksOnly

	return func(ctx context.Context) ParseResult {
		if linksOnly {
			return ParseResult{
				Doc:   &ParsedDocument{Source: source, Events: ParseLinksOnly(source)},
				epoch: epoch,
			}
		}

		events, names := Parse(source)
		languages := resolveLanguages(ctx, registry, fallback, names)
		return ParseResult{
			Doc: &ParsedDocument{
				Source:    source,
				Events:    events,
				Languages: languages,
			},
			epoch: epoch,
		}
	}
}

// resolveLanguages resolves each referenced fence language sequentially.
// Failures are non-fatal per block: the entry is simply omitted and the block
// renders unstyled.
func resolveLanguages(ctx context.Context, registry highlight.Registry, fallback string, names map[string]struct{}) map[string]*highlight.Language {
	if registry == nil || len(names) == 0 {
		return nil
	}
	languages := make(map[string]*highlight.Language, len(names))
	for name := range names {
		resolveName := name
		if resolveName == "" {
			if fallback == "" {
				continue
			}
			resolveName = fallback
		}
		lang, err := registry.Resolve(ctx, resolveName)
		if err != nil {
			log.Debug("language resolution failed", "name", resolveName, "err", err)
			continue
		}
		languages[name] = lang
	}
	return languages
}
