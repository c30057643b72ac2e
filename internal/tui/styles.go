package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	Primary     = lipgloss.Color("#101F38")
	Accent      = lipgloss.Color("#8BC34A")
	Muted       = lipgloss.Color("#8a94a6")
	Border      = lipgloss.Color("#2a3850")
	Destructive = lipgloss.Color("#e53935")
	Info        = lipgloss.Color("#2196F3")
)

// Styles holds the lipgloss styles used by the browser.
type Styles struct {
	Title        lipgloss.Style
	Summary      lipgloss.Style
	Label        lipgloss.Style
	FocusedLabel lipgloss.Style
	Value        lipgloss.Style
	FocusedValue lipgloss.Style
	Hint         lipgloss.Style
	Placeholder  lipgloss.Style
	Error        lipgloss.Style
	Notice       lipgloss.Style
	NoticeError  lipgloss.Style
	Table        table.Styles
}

// DefaultStyles returns the default styles.
func DefaultStyles() Styles {
	t := table.DefaultStyles()
	t.Header = t.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Border).
		BorderBottom(true).
		Bold(true)
	t.Selected = t.Selected.
		Foreground(lipgloss.Color("#f2f2f2")).
		Background(Primary).
		Bold(false)

	return Styles{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(Accent).MarginBottom(1),
		Summary:      lipgloss.NewStyle().Foreground(Muted),
		Label:        lipgloss.NewStyle().Foreground(Muted),
		FocusedLabel: lipgloss.NewStyle().Foreground(Accent).Bold(true),
		Value:        lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(Border),
		FocusedValue: lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(Accent),
		Hint:         lipgloss.NewStyle().Foreground(Muted).Italic(true),
		Placeholder:  lipgloss.NewStyle().Foreground(Muted).Padding(1, 2),
		Error:        lipgloss.NewStyle().Foreground(Destructive).Padding(1, 2),
		Notice:       lipgloss.NewStyle().Foreground(lipgloss.Color("#101F38")).Background(Accent).Padding(0, 1),
		NoticeError:  lipgloss.NewStyle().Foreground(lipgloss.Color("#f2f2f2")).Background(Destructive).Padding(0, 1),
		Table:        t,
	}
}
