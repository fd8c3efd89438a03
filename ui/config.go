package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Path of the file being viewed; empty when reading from stdin.
	Path string

	MaxWidth    uint
	EnableMouse bool
	Watch       bool

	// Language applied to fenced code blocks that declare none.
	FallbackLanguage string `env:"SHEEN_FALLBACK_LANGUAGE"`

	// Treat input as plain text with clickable URLs instead of markdown.
	TextOnly bool
}
