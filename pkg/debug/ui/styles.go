// Package ui holds the palette, styles, key bindings and layout helpers
// shared by the debug inspectors.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// Color palette - shared across all inspectors
var (
	PrimaryColor   = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7C3AED"}
	SecondaryColor = lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#06B6D4"}
	SuccessColor   = lipgloss.AdaptiveColor{Light: "#02BA84", Dark: "#10B981"}
	WarningColor   = lipgloss.AdaptiveColor{Light: "#FF8C00", Dark: "#F59E0B"}
	ErrorColor     = lipgloss.AdaptiveColor{Light: "#FF5F56", Dark: "#EF4444"}
	MutedColor     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#94A3B8"}
	FgColor        = lipgloss.AdaptiveColor{Light: "#1E1E2E", Dark: "#CDD6F4"}
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(0, 1).
			MarginBottom(1)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 1)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(PrimaryColor).
				Bold(true).
				Padding(0, 1)

	ItemStyle = lipgloss.NewStyle().
			Foreground(FgColor).
			Padding(0, 1)

	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(SecondaryColor).
				Bold(true).
				Padding(0, 1)

	CellStyle = lipgloss.NewStyle().
			Foreground(FgColor).
			Padding(0, 1)

	// HeldCellStyle marks entries owned by a worker.
	HeldCellStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(FgColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			MarginTop(1).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(PrimaryColor).
			Padding(0, 1).
			MarginTop(1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true).
			Padding(1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true).
			Padding(0, 1)
)

// Common key bindings
type CommonKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Pause key.Binding
	Help  key.Binding
	Quit  key.Binding
}

var CommonKeys = CommonKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "scroll down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h", "shift+tab"),
		key.WithHelp("←/h", "prev structure"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l", "tab"),
		key.WithHelp("→/l", "next structure"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p", " "),
		key.WithHelp("p/space", "pause"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "toggle help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k CommonKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Right, k.Pause, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k CommonKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Left, k.Right},
		{k.Pause, k.Help, k.Quit},
	}
}

// PadString pads a string to the specified width with spaces
func PadString(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// TruncateString truncates a string to maxWidth with ellipsis
func TruncateString(s string, maxWidth int) string {
	if len(s) <= maxWidth {
		return s
	}
	if maxWidth < 3 {
		return s[:maxWidth]
	}
	return s[:maxWidth-3] + "..."
}

// RenderError renders an error message with instructions to quit
func RenderError(err error) string {
	return ErrorStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		"Error: "+err.Error(),
		"",
		"Press q to quit.",
	))
}

// RenderStatusBar renders a status bar with the given text
func RenderStatusBar(text string) string {
	return StatusBarStyle.Render(text)
}

// RenderTitle renders a title with an icon
func RenderTitle(icon, title string) string {
	return TitleStyle.Render(icon + "  " + title)
}

// RenderHeaderWithCount renders a header with optional count
func RenderHeaderWithCount(text string, count int) string {
	if count >= 0 {
		return HeaderStyle.Render(fmt.Sprintf(" %s (%d) ", text, count))
	}
	return HeaderStyle.Render(" " + text + " ")
}

// RenderTable renders a table with headers and rows. Rows for which
// highlight returns true use HeldCellStyle.
func RenderTable(headers []string, data [][]string, colWidths []int, highlight func(row int) bool) string {
	var b strings.Builder

	headerRow := ""
	for i, header := range headers {
		headerRow += TableHeaderStyle.Render(PadString(header, colWidths[i]))
		if i < len(headers)-1 {
			headerRow += " "
		}
	}
	b.WriteString(headerRow + "\n")

	separator := ""
	for i, width := range colWidths {
		separator += strings.Repeat("─", width+2)
		if i < len(colWidths)-1 {
			separator += "┼"
		}
	}
	b.WriteString(lipgloss.NewStyle().Foreground(MutedColor).Render(separator) + "\n")

	for rowIdx, row := range data {
		style := CellStyle
		if highlight != nil && highlight(rowIdx) {
			style = HeldCellStyle
		}
		rowStr := ""
		for colIdx, cell := range row {
			rowStr += style.Render(PadString(TruncateString(cell, colWidths[colIdx]), colWidths[colIdx]))
			if colIdx < len(row)-1 {
				rowStr += " "
			}
		}
		b.WriteString(rowStr + "\n")
	}

	return b.String()
}
