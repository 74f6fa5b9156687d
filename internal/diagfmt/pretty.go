package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"tensorc/internal/diag"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	noteColor    = color.New(color.Faint)
)

func paint(c *color.Color, useColor bool, s string) string {
	if !useColor {
		return s
	}
	c.EnableColor()
	return c.Sprint(s)
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}

// Pretty prints one line per diagnostic, notes indented below, and a
// count summary. Counts include hidden info findings.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) error {
	var errs, warns, infos int
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		default:
			infos++
			if !opts.ShowInfo {
				continue
			}
		}
		head := paint(severityColor(d.Severity), opts.Color,
			fmt.Sprintf("%s[%s]", strings.ToLower(d.Severity.String()), d.Code.ID()))
		if _, err := fmt.Fprintf(w, "%s %s: %s\n", head, d.Where, d.Message); err != nil {
			return err
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			if _, err := fmt.Fprintf(w, "    %s %s\n", paint(noteColor, opts.Color, "note:"), n.Msg); err != nil {
				return err
			}
		}
	}
	p := message.NewPrinter(language.English)
	_, err := p.Fprintf(w, "%d errors, %d warnings, %d notes\n", errs, warns, infos)
	return err
}
