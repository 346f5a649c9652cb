package output

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette. Named constants for all ANSI 256 colors used in the CLI;
// never use inline lipgloss.Color literals.
var (
	// ColorCyan is used for identifiable nouns: chunk names, module IDs, paths.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen is used for the "written" artifact status.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow is used for the "emitted" artifact status (not yet on disk).
	ColorYellow = lipgloss.Color("220")

	// ColorBoldRed is used for the "failed" artifact status (matches ERROR level).
	ColorBoldRed = lipgloss.Color("204")

	// ColorGreenCheck is used for the completion checkmark.
	ColorGreenCheck = lipgloss.Color("10")

	// ColorDimGray is used for borders and other structural chrome.
	ColorDimGray = lipgloss.Color("240")

	// ColorBlue is used for table headers.
	ColorBlue = lipgloss.Color("12")
)

// Semantic styles map domain concepts to visual presentation.
var (
	// StyleNoun styles identifiable nouns (chunk names, module IDs, paths).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAction styles action verbs (building, publishing).
	StyleAction = lipgloss.NewStyle().Bold(true)

	// StyleDim styles structural chrome (scope prefixes, separators, sizes).
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleSummary styles completion and summary lines.
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// Artifact status constants.
const (
	StatusEmitted   = "emitted"
	StatusWritten   = "written"
	StatusPublished = "published"
	StatusFailed    = "failed"
)

// StatusStyle returns the lipgloss style for an artifact status.
// Unknown statuses return an unstyled default.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case StatusWritten, StatusPublished:
		return lipgloss.NewStyle().Foreground(ColorGreen)
	case StatusEmitted:
		return lipgloss.NewStyle().Foreground(ColorYellow)
	case StatusFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)
	default:
		return lipgloss.NewStyle()
	}
}

// minArtifactColumnWidth is the minimum width of the file column before the
// size and status suffix, so statuses align.
const minArtifactColumnWidth = 40

// FormatArtifactLine renders one artifact with its size and a
// color-coded status.
//
// Format: a:<chunk> <file>  <size>  <status>
func FormatArtifactLine(chunk, file string, size int, status string) string {
	label := chunk + " " + file
	padding := minArtifactColumnWidth - len(label)
	if padding < 2 {
		padding = 2
	}

	return StyleDim.Render("a:") +
		StyleNoun.Render(chunk) + " " + file +
		strings.Repeat(" ", padding) +
		StyleDim.Render(FormatSize(size)) + "  " +
		StatusStyle(status).Render(status)
}

// FormatSize renders a byte count in B, KiB or MiB.
func FormatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// FormatCheckmark renders a green checkmark with a message for stdout output.
func FormatCheckmark(msg string) string {
	check := lipgloss.NewStyle().Foreground(ColorGreenCheck).Render("✔")
	return check + " " + msg
}
