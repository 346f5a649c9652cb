package output

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TableStyle defines the style for table output.
type TableStyle struct {
	// Border is the border style.
	Border lipgloss.Border

	// BorderColor is the color for borders.
	BorderColor lipgloss.Color

	// HeaderStyle is the style for header cells.
	HeaderStyle lipgloss.Style

	// CellStyle is the style for regular cells.
	CellStyle lipgloss.Style
}

// DefaultTableStyle returns the default table style.
func DefaultTableStyle() TableStyle {
	return TableStyle{
		Border:      lipgloss.NormalBorder(),
		BorderColor: ColorDimGray,
		HeaderStyle: lipgloss.NewStyle().Bold(true).Foreground(ColorBlue),
		CellStyle:   lipgloss.NewStyle(),
	}
}

// Table represents a styled table.
type Table struct {
	headers []string
	rows    [][]string
	style   TableStyle
}

// NewTable creates a new table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		style:   DefaultTableStyle(),
	}
}

// Row adds a row to the table.
func (t *Table) Row(cells ...string) *Table {
	t.rows = append(t.rows, cells)
	return t
}

// String renders the table as a string.
func (t *Table) String() string {
	tbl := table.New().
		Border(t.style.Border).
		BorderStyle(lipgloss.NewStyle().Foreground(t.style.BorderColor)).
		Headers(t.headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return t.style.HeaderStyle
			}
			return t.style.CellStyle
		})

	for _, row := range t.rows {
		tbl.Row(row...)
	}

	return tbl.String()
}

// PhaseRow is one line of the build timing table.
type PhaseRow struct {
	Name     string
	Duration time.Duration
	Details  string
}

// RenderPhaseTable renders per-phase build timings with a total row.
func RenderPhaseTable(phases []PhaseRow) string {
	t := NewTable("PHASE", "DURATION", "DETAILS")
	var total time.Duration
	for _, p := range phases {
		t.Row(p.Name, formatDuration(p.Duration), p.Details)
		total += p.Duration
	}
	t.Row("total", formatDuration(total), fmt.Sprintf("%d phases", len(phases)))
	return t.String()
}

// ChunkRow is one line of the chunk table.
type ChunkRow struct {
	Name    string
	File    string
	Modules int
	Size    int
}

// RenderChunkTable renders emitted chunks.
func RenderChunkTable(chunks []ChunkRow) string {
	t := NewTable("CHUNK", "FILE", "MODULES", "SIZE")
	for _, c := range chunks {
		t.Row(c.Name, c.File, fmt.Sprintf("%d", c.Modules), FormatSize(c.Size))
	}
	return t.String()
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Microsecond).String()
}
