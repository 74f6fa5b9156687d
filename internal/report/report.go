package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"tensorc/internal/dispatch"
)

// Format selects how a Report is written.
type Format uint8

const (
	FormatPretty Format = iota
	FormatJSON
	FormatMsgpack
)

// ParseFormat converts a flag value to Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "pretty", "":
		return FormatPretty, nil
	case "json":
		return FormatJSON, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	}
	return FormatPretty, fmt.Errorf("unsupported format %q (must be pretty, json or msgpack)", s)
}

// Report bundles the resolution matrices and table stats of several methods.
type Report struct {
	ID        uuid.UUID         `json:"id" msgpack:"id"`
	Generated time.Time         `json:"generated" msgpack:"generated"`
	Matrices  []dispatch.Matrix `json:"matrices" msgpack:"matrices"`
	Stats     []dispatch.Stats  `json:"stats" msgpack:"stats"`
}

// Collect snapshots every method. Building the matrix refreshes the table,
// so stats are taken afterwards.
func Collect(methods ...dispatch.Inspector) Report {
	r := Report{ID: uuid.New(), Generated: time.Now().UTC()}
	for _, m := range methods {
		r.Matrices = append(r.Matrices, m.Matrix())
		r.Stats = append(r.Stats, m.Stats())
	}
	return r
}

// Write encodes r in the requested format.
func Write(w io.Writer, r Report, format Format, opts Options) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("msgpack")
		return enc.Encode(r)
	}
	for i, m := range r.Matrices {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, RenderMatrix(m, opts)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Read decodes a msgpack report written by Write.
func Read(rd io.Reader) (Report, error) {
	var r Report
	dec := msgpack.NewDecoder(rd)
	dec.SetCustomStructTag("msgpack")
	if err := dec.Decode(&r); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	return r, nil
}
