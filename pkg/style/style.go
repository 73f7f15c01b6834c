// Package style maps notification priorities and approval statuses onto a
// small closed set of display tokens.
package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Token is one of the display tokens below. The zero value is Neutral.
type Token int

const (
	Neutral Token = iota
	Info
	Success
	Warning
	Danger
	Critical
)

var tokenNames = [...]string{"neutral", "info", "success", "warning", "danger", "critical"}

func (t Token) String() string {
	if t < Neutral || t > Critical {
		return tokenNames[Neutral]
	}
	return tokenNames[t]
}

var palette = map[Token]lipgloss.Color{
	Neutral:  lipgloss.Color("#94A3B8"), // slate
	Info:     lipgloss.Color("#60A5FA"), // blue
	Success:  lipgloss.Color("#22C55E"), // green
	Warning:  lipgloss.Color("#FB923C"), // orange
	Danger:   lipgloss.Color("#EF4444"), // red
	Critical: lipgloss.Color("#DC2626"),
}

// ForPriority resolves a notification priority. Unknown values are Neutral.
func ForPriority(priority string) Token {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case "urgent":
		return Critical
	case "high":
		return Warning
	case "medium":
		return Info
	}
	return Neutral
}

// ForStatus resolves an approval status. Unknown values are Neutral.
func ForStatus(status string) Token {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "approved":
		return Success
	case "rejected":
		return Danger
	case "pending":
		return Warning
	}
	return Neutral
}

// Color returns the terminal color of t.
func (t Token) Color() lipgloss.Color {
	if c, ok := palette[t]; ok {
		return c
	}
	return palette[Neutral]
}

// Style returns a foreground style for t; Critical is also bold.
func (t Token) Style() lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(t.Color())
	if t == Critical {
		s = s.Bold(true)
	}
	return s
}

// Render renders text in t's style.
func (t Token) Render(text string) string {
	return t.Style().Render(text)
}
