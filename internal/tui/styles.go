// Package tui provides the terminal chat widget.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#0B6E4F")
	colorText    = lipgloss.Color("#E4E7EB")
	colorTextDim = lipgloss.Color("#7B8794")
	colorError   = lipgloss.Color("#E12D39")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorPrimary).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(colorTextDim)

	userLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	aiLabelStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorText)

	userBubbleStyle = lipgloss.NewStyle().
			Foreground(colorText).
			PaddingLeft(2)

	plainBubbleStyle = lipgloss.NewStyle().
				Foreground(colorText).
				PaddingLeft(2)

	loadingStyle = lipgloss.NewStyle().Italic(true).Foreground(colorTextDim)

	errorStyle = lipgloss.NewStyle().Foreground(colorError)

	inputPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1)
)
