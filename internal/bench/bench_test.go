package bench

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadTOML(t *testing.T) {
	p := writeFile(t, "wide.toml", `
[dispatch]
positions = 3
types = 10
storage = "sparse"

[load]
workers = 2
invokes = 100
`)
	sc, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Default()
	want.Name = "wide"
	want.Dispatch.Positions, want.Dispatch.Types, want.Dispatch.Storage = 3, 10, "sparse"
	want.Load.Workers, want.Load.Invokes = 2, 100
	if diff := cmp.Diff(want, sc); diff != "" {
		t.Fatalf("scenario mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadYAML(t *testing.T) {
	p := writeFile(t, "s.yaml", "name: yml\ndispatch:\n  positions: 1\n  types: 4\nload:\n  workers: 1\n  grow: 0\n")
	sc, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Name != "yml" || sc.Dispatch.Positions != 1 || sc.Load.Grow != 0 || sc.Load.Invokes != Default().Load.Invokes {
		t.Fatalf("unexpected scenario %+v", sc)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"missing.toml": "[dispatch]\npositions = 2\n",
		"unknown.toml": "[dispatch]\npositions = 2\nfoo = 1\n[load]\nworkers = 1\n",
		"range.toml":   "[dispatch]\npositions = 5\n[load]\nworkers = 1\n",
		"storage.yaml": "dispatch:\n  storage: btree\n",
		"strict.yaml":  "dispatch:\n  arity: 2\n",
		"scenario.ini": "",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeFile(t, name, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	if _, err := Load(writeFile(t, "r.toml", "[dispatch]\ntypes = 0\n[load]\n")); !errors.Is(err, errScenario) {
		t.Fatalf("expected scenario error, got %v", err)
	}
}

func TestRunUnderGrowth(t *testing.T) {
	sc := Default()
	sc.Dispatch.Types = 12
	sc.Load.Workers = 4
	sc.Load.Invokes = 500
	sc.Load.Grow = 8

	res, err := Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Calls != 2000 || res.Resolved+res.Ambiguous != res.Calls {
		t.Fatalf("calls = %d (%d + %d)", res.Calls, res.Resolved, res.Ambiguous)
	}
	if res.Types != 20 || res.Stats.Outdated || res.Stats.Cells != 400 {
		t.Fatalf("final table does not cover grown registry: %+v", res.Stats)
	}
	// exact-at-0 vs exact-at-1 ties on every pair of marked types
	if res.Stats.Ambiguous == 0 {
		t.Fatalf("expected ambiguous cells")
	}
	names := []string{}
	for _, p := range res.Timings.Phases {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"register", "define", "build", "invoke"}, names); diff != "" {
		t.Fatalf("phases (-want +got):\n%s", diff)
	}
}

func TestRunSinglePositionNeverAmbiguous(t *testing.T) {
	sc := Default()
	sc.Dispatch.Positions = 1
	sc.Dispatch.Storage = "sparse"
	sc.Load.Invokes = 200
	res, err := Run(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	if res.Ambiguous != 0 || res.Stats.Populated != res.Stats.Cells {
		t.Fatalf("unexpected result %+v", res.Stats)
	}
}

type recordSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordSink) OnEvent(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func TestRunReportsProgress(t *testing.T) {
	sc := Default()
	sc.Load.Workers = 3
	sc.Load.Invokes = 100
	sink := &recordSink{}
	if _, err := Run(context.Background(), sc, WithProgress(sink)); err != nil {
		t.Fatal(err)
	}
	done := map[int]bool{}
	var stages []Stage
	for _, e := range sink.events {
		if e.Worker >= 0 && e.Status == StatusDone {
			if e.Done != 100 {
				t.Fatalf("worker %d finished with %d/%d", e.Worker, e.Done, e.Total)
			}
			done[e.Worker] = true
		}
		if e.Worker < 0 && e.Status == StatusWorking && e.Stage != StageGrow {
			stages = append(stages, e.Stage)
		}
	}
	if len(done) != 3 {
		t.Fatalf("workers reporting done: %v", done)
	}
	if diff := cmp.Diff([]Stage{StageRegister, StageDefine, StageBuild, StageInvoke}, stages); diff != "" {
		t.Fatalf("stage order (-want +got):\n%s", diff)
	}
	last := sink.events[len(sink.events)-1]
	if last.Worker != -1 || last.Stage != StageInvoke || last.Status != StatusDone {
		t.Fatalf("last event = %+v", last)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, Default()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestWriteFormats(t *testing.T) {
	sc := Default()
	sc.Load.Invokes = 10
	sc.Load.Grow = 0
	res, err := Run(context.Background(), sc)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, res, "text"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "calls       80 (") {
		t.Fatalf("text output:\n%s", buf.String())
	}
	for _, f := range []string{"json", "yaml"} {
		buf.Reset()
		if err := Write(&buf, res, f); err != nil || !strings.Contains(buf.String(), res.RunID.String()) {
			t.Fatalf("%s output missing run id (%v):\n%s", f, err, buf.String())
		}
	}
	if err := Write(&buf, res, "xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}
