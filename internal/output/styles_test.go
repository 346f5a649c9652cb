package output

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestStatusStyle(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		wantBold bool
		wantFG   lipgloss.TerminalColor
	}{
		{name: "written returns green", status: StatusWritten, wantFG: ColorGreen},
		{name: "published returns green", status: StatusPublished, wantFG: ColorGreen},
		{name: "emitted returns yellow", status: StatusEmitted, wantFG: ColorYellow},
		{name: "failed returns bold red", status: StatusFailed, wantFG: ColorBoldRed, wantBold: true},
		{name: "unknown returns plain", status: "other", wantFG: lipgloss.NoColor{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			style := StatusStyle(tt.status)
			assert.Equal(t, tt.wantFG, style.GetForeground())
			assert.Equal(t, tt.wantBold, style.GetBold())
		})
	}
}

func TestFormatArtifactLine(t *testing.T) {
	line := FormatArtifactLine("vendor", "dist/vendor.js", 2048, StatusWritten)
	assert.Contains(t, line, "a:")
	assert.Contains(t, line, "vendor")
	assert.Contains(t, line, "dist/vendor.js")
	assert.Contains(t, line, "2.0 KiB")
	assert.True(t, strings.HasSuffix(line, StatusStyle(StatusWritten).Render(StatusWritten)))
}

func TestFormatArtifactLine_Alignment(t *testing.T) {
	short := FormatArtifactLine("a", "a.js", 1, StatusEmitted)
	long := FormatArtifactLine("a", "a-very-long-file-name-that-exceeds-the-column.js", 1, StatusEmitted)
	assert.Contains(t, short, "a.js"+strings.Repeat(" ", minArtifactColumnWidth-len("a a.js")))
	assert.Contains(t, long, ".js  ")
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.5 KiB"},
		{3 << 20, "3.0 MiB"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSize(tt.n))
		})
	}
}

func TestFormatCheckmark(t *testing.T) {
	got := FormatCheckmark("Build complete")
	assert.Contains(t, got, "✔")
	assert.True(t, strings.HasSuffix(got, " Build complete"))
}
