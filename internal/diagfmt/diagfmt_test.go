package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"tensorc/internal/diag"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	r := diag.BagReporter{Bag: bag}
	diag.ReportError(r, diag.DispAmbiguous, diag.Where{Method: "m", Key: []string{"A", "B"}}, "ambiguous dispatch").
		WithNote("s1(A, *)").
		WithNote("s2(*, B)").
		Emit()
	diag.ReportWarning(r, diag.DispUncovered, diag.Where{Method: "m", Key: []string{"B", "A"}}, "no implementation").Emit()
	diag.ReportInfo(r, diag.DispShadowed, diag.Where{Method: "m"}, "dead never wins").Emit()
	return bag
}

func TestPretty(t *testing.T) {
	var buf bytes.Buffer
	if err := Pretty(&buf, sampleBag(), PrettyOpts{ShowNotes: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"error[D2001] m(A, B): ambiguous dispatch", "    note: s2(*, B)", "warning[D2002] m(B, A)", "1 errors, 1 warnings, 1 notes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "dead never wins") {
		t.Fatalf("info findings should be hidden:\n%s", out)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleBag(), JSONOpts{Max: 2, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out.Count != 2 || out.Diagnostics[0].Code != "D2001" || len(out.Diagnostics[0].Notes) != 2 {
		t.Fatalf("unexpected output %+v", out)
	}
	if got := out.Diagnostics[1].Location.Types; len(got) != 2 || got[0] != "B" {
		t.Fatalf("location types = %v", got)
	}
}

func TestSarif(t *testing.T) {
	var buf bytes.Buffer
	meta := SarifRunMeta{ToolName: "tensorc", ToolVersion: "0.3.0", InvocationArgs: []string{"audit"}}
	if err := Sarif(&buf, sampleBag(), meta); err != nil {
		t.Fatal(err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatalf("invalid sarif: %v", err)
	}
	run := log.Runs[0]
	if log.Version != "2.1.0" || len(run.Results) != 3 || len(run.Tool.Driver.Rules) != 3 {
		t.Fatalf("unexpected sarif %+v", log)
	}
	first := run.Results[0]
	if first.Level != "error" || first.Locations[0].LogicalLocations[0].FullyQualifiedName != "m(A, B)" {
		t.Fatalf("unexpected first result %+v", first)
	}
	if run.Invocations[0].ExecutionSuccessful {
		t.Fatalf("run with errors must not be successful")
	}
}
