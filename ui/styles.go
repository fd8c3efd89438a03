package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors.
var (
	cream       = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	mintGreen   = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen   = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	statusBarFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}
	scrollPosFg = lipgloss.AdaptiveColor{Light: "#949494", Dark: "#5A5A5A"}
	helpBg      = lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}
	fuchsia     = lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
)

var (
	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(fuchsia).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(statusBarFg).
			Background(statusBarBg)

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen)

	scrollPosStyle = lipgloss.NewStyle().
			Foreground(scrollPosFg).
			Background(statusBarBg)

	helpNoteStyle = lipgloss.NewStyle().
			Foreground(statusBarFg).
			Background(helpBg)
)
