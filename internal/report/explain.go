package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"tensorc/internal/dispatch"
)

var (
	selectedColor = color.New(color.FgGreen)
	tiedColor     = color.New(color.FgRed, color.Bold)
)

func paint(c *color.Color, useColor bool, s string) string {
	if !useColor {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

// WriteExplanation prints the ranked candidates of one combination.
func WriteExplanation(w io.Writer, ex dispatch.Explanation, useColor bool) error {
	if _, err := fmt.Fprintf(w, "%s(%s): %s\n", ex.Method, strings.Join(ex.Types, ", "), ex.Outcome); err != nil {
		return err
	}
	if len(ex.Candidates) == 0 {
		_, err := io.WriteString(w, "  no applicable implementation\n")
		return err
	}
	for _, c := range ex.Candidates {
		mark := " "
		line := fmt.Sprintf("%-20s %-30s distance %d", c.Name, c.Signature, c.Distance)
		switch {
		case c.Selected:
			mark = "*"
			line = paint(selectedColor, useColor, line)
		case ex.Outcome == dispatch.CellAmbiguous && c.Distance == ex.Candidates[0].Distance:
			mark = "?"
			line = paint(tiedColor, useColor, line)
		}
		if _, err := fmt.Fprintf(w, "  %s %s\n", mark, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteStats prints one line per method with grouped cell counts.
func WriteStats(w io.Writer, stats []dispatch.Stats) error {
	p := message.NewPrinter(language.English)
	for _, st := range stats {
		if _, err := p.Fprintf(w, "%-16s %-6s builds=%d cells=%d populated=%d ambiguous=%d last=%v\n",
			st.Method, st.Storage, st.Builds, st.Cells, st.Populated, st.Ambiguous, st.LastBuild); err != nil {
			return err
		}
	}
	return nil
}
