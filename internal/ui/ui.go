package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	boldStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	privateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04"))
)

// FormatError returns a styled multi-line error message.
func FormatError(title, detail, suggestion string) string {
	out := errorStyle.Render("Error: "+title) + "\n"
	if detail != "" {
		out += "  " + detail + "\n"
	}
	if suggestion != "" {
		out += "  " + hintStyle.Render("Hint: "+suggestion) + "\n"
	}
	return out
}

// Success prints a green success message.
func Success(msg string) {
	fmt.Println(successStyle.Render(msg))
}

// Bold renders text in bold.
func Bold(s string) string {
	return boldStyle.Render(s)
}

// Header renders a table header line.
func Header(s string) string {
	return headerStyle.Render(s)
}

// Dim renders de-emphasized text.
func Dim(s string) string {
	return dimStyle.Render(s)
}

// Private renders the marker for private remote addresses.
func Private(s string) string {
	return privateStyle.Render(s)
}

// Hint renders text in dim italic.
func Hint(s string) string {
	return hintStyle.Render(s)
}

// ClearScreen moves the cursor home and clears the terminal, used between
// watch refreshes.
func ClearScreen() {
	fmt.Print("\033[H\033[2J")
}
