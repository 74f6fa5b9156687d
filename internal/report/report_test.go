package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tensorc/internal/dispatch"
	"tensorc/internal/tensor"
)

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPretty, "JSON": FormatJSON, "mp": FormatMsgpack} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}

func TestPrettyGridNamesWinners(t *testing.T) {
	cat := tensor.NewCatalog()
	out := RenderMatrix(cat.CommonType.Matrix(), Options{})
	for _, want := range []string{"common-type", "Scalar", "Tensor", "scalar-tensor", "no-common"} {
		if !strings.Contains(out, want) {
			t.Fatalf("grid missing %q:\n%s", want, out)
		}
	}
}

func TestPrettyListForSinglePosition(t *testing.T) {
	cat := tensor.NewCatalog()
	out := RenderMatrix(cat.Render.Matrix(), Options{})
	if !strings.Contains(out, "arg0") || !strings.Contains(out, "resolution") || !strings.Contains(out, "access") {
		t.Fatalf("list rendering incomplete:\n%s", out)
	}
	narrow := RenderMatrix(cat.Render.Matrix(), Options{CellWidth: 4})
	if strings.Contains(narrow, "access") || !strings.Contains(narrow, "a...") {
		t.Fatalf("cells should be truncated to 4 columns:\n%s", narrow)
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	cat := tensor.NewCatalog()
	r := Collect(cat.Methods()...)
	var buf bytes.Buffer
	if err := Write(&buf, r, FormatMsgpack, Options{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if back.ID != r.ID || !back.Generated.Equal(r.Generated) {
		t.Fatalf("header changed: %v/%v", back.ID, back.Generated)
	}
	if diff := cmp.Diff(r.Matrices, back.Matrices); diff != "" {
		t.Fatalf("matrices changed (-want +got):\n%s", diff)
	}
}

func TestJSONExport(t *testing.T) {
	cat := tensor.NewCatalog()
	var buf bytes.Buffer
	if err := Write(&buf, Collect(cat.TypeOf), FormatJSON, Options{}); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Matrices []struct {
			Method string `json:"method"`
			Cells  []struct {
				Winner string `json:"winner"`
			} `json:"cells"`
		} `json:"matrices"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(decoded.Matrices) != 1 || decoded.Matrices[0].Method != "type-of" || len(decoded.Matrices[0].Cells) != 5 {
		t.Fatalf("unexpected export %+v", decoded)
	}
}

func TestWriteExplanationMarksWinner(t *testing.T) {
	ex := dispatch.Explanation{
		Method:  "m",
		Types:   []string{"A"},
		Outcome: dispatch.CellResolved,
		Candidates: []dispatch.ExplainedCandidate{
			{Name: "exact", Signature: "(A)", Selected: true},
			{Name: "any", Signature: "(*)", Distance: 1},
		},
	}
	var buf bytes.Buffer
	if err := WriteExplanation(&buf, ex, false); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(strings.TrimSpace(lines[1]), "* exact") {
		t.Fatalf("unexpected explanation:\n%s", buf.String())
	}
}
