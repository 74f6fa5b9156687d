package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Write renders res as "text", "json" or "yaml".
func Write(w io.Writer, res Result, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	case "text", "pretty", "":
		return writeText(w, res)
	}
	return fmt.Errorf("unsupported format %q (must be text, json or yaml)", format)
}

func writeText(w io.Writer, res Result) error {
	p := message.NewPrinter(language.English)
	st := res.Stats
	lines := []struct {
		format string
		args   []any
	}{
		{"run %s (%s)\n", []any{res.RunID, res.Scenario.Name}},
		{"  positions   %d, storage %s\n", []any{res.Scenario.Dispatch.Positions, st.Storage}},
		{"  types       %d, implementations %d\n", []any{res.Types, res.Impls}},
		{"  calls       %d (%d resolved, %d ambiguous)\n", []any{res.Calls, res.Resolved, res.Ambiguous}},
		{"  throughput  %.0f calls/s\n", []any{res.Throughput}},
		{"  table       %d builds, %d cells, %d populated, %d ambiguous\n", []any{st.Builds, st.Cells, st.Populated, st.Ambiguous}},
	}
	for _, l := range lines {
		if _, err := p.Fprintf(w, l.format, l.args...); err != nil {
			return err
		}
	}
	for _, ph := range res.Timings.Phases {
		line := fmt.Sprintf("  %-11s %9.3f ms", ph.Name, ph.DurationMS)
		if ph.Note != "" {
			line += "  // " + ph.Note
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
