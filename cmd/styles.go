package cmd

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	ColorKey    = lipgloss.Color("#A8D8EA")
	ColorMuted  = lipgloss.Color("#6c757d")
	ColorString = lipgloss.Color("#4ECDC4")
	ColorNumber = lipgloss.Color("#FFE66D")
	ColorAlert  = lipgloss.Color("#FF6B6B")
)

var (
	StyleKey       = lipgloss.NewStyle().Foreground(ColorKey).Bold(true)
	StyleIndex     = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleKind      = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	StyleString    = lipgloss.NewStyle().Foreground(ColorString)
	StyleNumber    = lipgloss.NewStyle().Foreground(ColorNumber)
	StyleContainer = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleError     = lipgloss.NewStyle().Foreground(ColorAlert).Bold(true)
)
