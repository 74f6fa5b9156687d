package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"tensorc/internal/dispatch"
)

// Options control pretty rendering.
type Options struct {
	Color     bool
	CellWidth int // 0 means 24
}

func (o Options) width() int {
	if o.CellWidth <= 0 {
		return 24
	}
	return o.CellWidth
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	ambiguousStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	absentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	resolvedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// RenderMatrix draws a method's resolution matrix. One position renders as a
// list, two as a grid, more as one row per combination.
func RenderMatrix(m dispatch.Matrix, opts Options) string {
	var sb strings.Builder
	title := fmt.Sprintf("%s  [%s, %d implementations]", m.Method, m.Storage, len(m.Implementations))
	if opts.Color {
		title = titleStyle.Render(title)
	}
	sb.WriteString(title)
	sb.WriteString("\n")

	t := table.New().Border(lipgloss.NormalBorder())
	switch len(m.Positions) {
	case 2:
		headers := append([]string{""}, truncateAll(m.Positions[1], opts.width())...)
		t = t.Headers(headers...)
		cols := len(m.Positions[1])
		for r, rowType := range m.Positions[0] {
			row := []string{truncate(rowType, opts.width())}
			for c := 0; c < cols; c++ {
				row = append(row, cellText(m.Cells[r*cols+c], opts))
			}
			t = t.Row(row...)
		}
	default:
		headers := make([]string, 0, len(m.Positions)+1)
		for i := range m.Positions {
			headers = append(headers, fmt.Sprintf("arg%d", i))
		}
		t = t.Headers(append(headers, "resolution")...)
		for _, c := range m.Cells {
			row := truncateAll(c.Types, opts.width())
			t = t.Row(append(row, cellText(c, opts))...)
		}
	}
	if len(m.Cells) == 0 {
		sb.WriteString("(no concrete types registered)")
		return sb.String()
	}
	sb.WriteString(t.String())
	return sb.String()
}

func cellText(c dispatch.MatrixCell, opts Options) string {
	var text string
	var style lipgloss.Style
	switch c.Status {
	case dispatch.CellResolved:
		text, style = c.Winner, resolvedStyle
	case dispatch.CellAmbiguous:
		text, style = "ambiguous: "+strings.Join(c.Tied, "|"), ambiguousStyle
	default:
		text, style = "-", absentStyle
	}
	text = truncate(text, opts.width())
	if opts.Color {
		return style.Render(text)
	}
	return text
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

func truncateAll(in []string, width int) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = truncate(s, width)
	}
	return out
}
