package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"off":    LevelOff,
		"ERROR":  LevelError,
		"driver": LevelDriver,
		"table":  LevelTable,
		"debug":  LevelDebug,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelFiltersScopes(t *testing.T) {
	if LevelDriver.ShouldEmit(ScopeTable) {
		t.Fatalf("driver level must not emit table scope")
	}
	if !LevelTable.ShouldEmit(ScopeTable) || LevelTable.ShouldEmit(ScopeCell) {
		t.Fatalf("table level must emit table scope and skip cells")
	}
	if !LevelDebug.ShouldEmit(ScopeCell) {
		t.Fatalf("debug level must emit everything")
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelTable, FormatNDJSON)

	sp := Begin(tr, ScopeTable, "rebuild:demo", 0)
	sp.WithExtra("cells", "4").End("built")
	if buf.Len() != 0 {
		t.Fatalf("table events should stay buffered until Flush")
	}
	if err := tr.Flush(); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 events, got %d: %q", len(lines), buf.String())
	}
	var end jsonEvent
	if err := json.Unmarshal([]byte(lines[1]), &end); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if end.Kind != "end" || end.Name != "rebuild:demo" || end.Extra["cells"] != "4" {
		t.Fatalf("unexpected end event: %+v", end)
	}
}

func TestRingTracerWraps(t *testing.T) {
	ring := NewRingTracer(3, LevelDebug)
	for i := 0; i < 5; i++ {
		Point(ring, ScopeCell, "cell", "", 0)
	}
	snap := ring.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot len = %d, want 3", len(snap))
	}
	for i := 1; i < len(snap); i++ {
		if snap[i].Seq <= snap[i-1].Seq {
			t.Fatalf("snapshot out of order: %d then %d", snap[i-1].Seq, snap[i].Seq)
		}
	}
}

func TestRingLastAndDumpOnClose(t *testing.T) {
	var buf bytes.Buffer
	ring := NewRingTracer(4, LevelDebug).DumpOnClose(&buf, FormatText)
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		Point(ring, ScopeCell, name, "", 0)
	}
	last := ring.Last(2)
	if len(last) != 2 || last[0].Name != "e" || last[1].Name != "f" {
		t.Fatalf("Last(2) = %+v", last)
	}
	if got := len(ring.Last(10)); got != 4 {
		t.Fatalf("Last(10) returned %d events, want 4", got)
	}
	if err := ring.Close(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Contains(out, "• b") || !strings.Contains(out, "• c") || strings.Count(out, "\n") != 4 {
		t.Fatalf("unexpected dump:\n%s", out)
	}
	if err := ring.Close(); err != nil || strings.Count(buf.String(), "\n") != 4 {
		t.Fatalf("second Close must not dump again")
	}
}

func TestStartPropagatesParent(t *testing.T) {
	ring := NewRingTracer(16, LevelTable)
	ctx := WithTracer(context.Background(), ring)

	ctx, outer := Start(ctx, ScopeDriver, "outer")
	_, inner := Start(ctx, ScopeTable, "inner")
	inner.End("")
	outer.End("")

	var innerBegin *Event
	events := ring.Snapshot()
	for i := range events {
		if events[i].Name == "inner" && events[i].Kind == KindSpanBegin {
			innerBegin = &events[i]
		}
	}
	if innerBegin == nil || innerBegin.ParentID != outer.ID() {
		t.Fatalf("inner span not parented to outer: %+v", innerBegin)
	}
}

func TestNopSpanIsSafe(t *testing.T) {
	sp := Begin(Nop, ScopeTable, "x", 0)
	if d := sp.WithExtra("k", "v").End(""); d != 0 {
		t.Fatalf("nop span reported duration %v", d)
	}
	var nilSpan *Span
	if nilSpan.ID() != 0 {
		t.Fatalf("nil span must have zero id")
	}
}
