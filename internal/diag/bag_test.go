package diag

import "testing"

func TestBagLimitSortDedup(t *testing.T) {
	b := NewBag(4)
	cellB := Where{Method: "unify", Key: []string{"Tensor", "Scalar"}}
	cellA := Where{Method: "unify", Key: []string{"Scalar", "Tensor"}}

	b.Add(Diagnostic{Severity: SevWarning, Code: DispUncovered, Where: cellB})
	b.Add(Diagnostic{Severity: SevError, Code: DispAmbiguous, Where: cellA})
	b.Add(Diagnostic{Severity: SevError, Code: DispAmbiguous, Where: cellA})
	b.Add(Diagnostic{Severity: SevInfo, Code: DispInfo, Where: cellA})
	if b.Add(Diagnostic{Code: DispInfo}) {
		t.Fatalf("bag accepted a diagnostic past its limit")
	}

	b.Dedup()
	b.Sort()
	items := b.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items after dedup, got %d", len(items))
	}
	if items[0].Code != DispAmbiguous || items[1].Code != DispInfo || items[2].Code != DispUncovered {
		t.Fatalf("unexpected order: %v, %v, %v", items[0].Code, items[1].Code, items[2].Code)
	}
	if !b.HasErrors() || !b.HasWarnings() {
		t.Fatalf("severity queries wrong")
	}
}

func TestCodeIDs(t *testing.T) {
	if DispAmbiguous.ID() != "D2001" || RegEmptyHierarchy.ID() != "R1001" {
		t.Fatalf("unexpected ids %s %s", DispAmbiguous.ID(), RegEmptyHierarchy.ID())
	}
	if Code(9999).Title() != "Unknown error" {
		t.Fatalf("unknown code title mismatch")
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	where := Where{Method: "render", Key: []string{"Index"}}
	ReportError(r, DispAmbiguous, where, "tie").WithNote("a").Emit()
	ReportError(r, DispAmbiguous, where, "tie").Emit()
	ReportWarning(r, DispUncovered, where, "none").Emit()
	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", bag.Len())
	}
	if got := where.String(); got != "render(Index)" {
		t.Fatalf("Where.String = %q", got)
	}
}
