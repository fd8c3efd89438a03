package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const (
	wrapAt       = 78
	indentAmount = 2
)

var keywordStyle = lipgloss.NewStyle().
	Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#ECFD65"})

// paragraph formats help text: wrapped and indented.
func paragraph(s string) string {
	return indent.String(wordwrap.String(s, wrapAt-indentAmount), indentAmount)
}

func keyword(s string) string {
	return keywordStyle.Render(s)
}
