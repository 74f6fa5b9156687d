package dispatch

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tensorc/internal/diag"
	"tensorc/internal/typereg"
)

// synthTypes registers n distinct array types so tests can grow a registry
// without declaring a Go type per tag.
func synthTypes(r *typereg.Registry, n int) []typereg.Opaque {
	out := make([]typereg.Opaque, n)
	for i := range out {
		out[i] = typereg.DefineType(r, reflect.ArrayOf(i+1, reflect.TypeFor[byte]()))
	}
	return out
}

func constImpl(name string, v int, sig ...Param) Impl[struct{}, int] {
	return Impl[struct{}, int]{
		Name: name,
		Sig:  sig,
		Fn:   func(struct{}, []typereg.Value) (int, error) { return v, nil },
	}
}

func populate(m *Method[struct{}, int], types []typereg.Opaque) {
	m.Add(constImpl("floor", -1, GenericParam, GenericParam))
	for i, tp := range types {
		if i%3 == 0 {
			m.Add(constImpl(fmt.Sprintf("row%d", i), i, Exact(tp.Type()), GenericParam))
		}
		if i%5 == 0 {
			m.Add(constImpl(fmt.Sprintf("col%d", i), 1000+i, GenericParam, Exact(tp.Type())))
		}
	}
}

func TestDenseAndSparseAgree(t *testing.T) {
	reg := typereg.New("synth")
	types := synthTypes(reg, 12)

	dense := New[struct{}, int]("dense", []Position{{Registry: reg}, {Registry: reg}})
	sparse := New[struct{}, int]("sparse", []Position{{Registry: reg}, {Registry: reg}}, WithStorage(StorageSparse))
	populate(dense, types)
	populate(sparse, types)

	dm, sm := dense.Matrix(), sparse.Matrix()
	if dm.Storage != "dense" || sm.Storage != "sparse" {
		t.Fatalf("storage kinds = %s, %s", dm.Storage, sm.Storage)
	}
	if diff := cmp.Diff(dm.Cells, sm.Cells); diff != "" {
		t.Fatalf("dense and sparse disagree (-dense +sparse):\n%s", diff)
	}

	for _, a := range types {
		for _, b := range types {
			dv, derr := dense.Invoke(struct{}{}, a.Box(nil), b.Box(nil))
			sv, serr := sparse.Invoke(struct{}{}, a.Box(nil), b.Box(nil))
			if dv != sv || (derr == nil) != (serr == nil) {
				t.Fatalf("(%d,%d): dense %d/%v sparse %d/%v", a.Tag(), b.Tag(), dv, derr, sv, serr)
			}
		}
	}
}

func TestSparseStoresOnlyPopulatedCells(t *testing.T) {
	reg := typereg.New("synth")
	types := synthTypes(reg, 6)
	m := New[struct{}, int]("diag", []Position{{Registry: reg}, {Registry: reg}}, WithStorage(StorageSparse))
	for _, tp := range types {
		m.Add(constImpl("eq", int(tp.Tag()), Exact(tp.Type()), Exact(tp.Type())))
	}
	m.Table().Refresh()
	st := m.Stats()
	if st.Cells != 36 || st.Populated != 6 {
		t.Fatalf("cells=%d populated=%d, want 36/6", st.Cells, st.Populated)
	}
	if _, err := m.Invoke(struct{}{}, types[1].Box(nil), types[2].Box(nil)); !errors.Is(err, ErrNoApplicableSpecialization) {
		t.Fatalf("off-diagonal cell should be absent, got %v", err)
	}
	if v, err := m.Invoke(struct{}{}, types[4].Box(nil), types[4].Box(nil)); err != nil || v != 4 {
		t.Fatalf("diagonal cell = %d, %v", v, err)
	}
}

func TestParallelBuildMatchesSerial(t *testing.T) {
	reg := typereg.New("synth")
	types := synthTypes(reg, 70) // 4900 cells, above the parallel threshold

	serial := New[struct{}, int]("serial", []Position{{Registry: reg}, {Registry: reg}})
	parallel := New[struct{}, int]("parallel", []Position{{Registry: reg}, {Registry: reg}}, WithParallelBuild(4))
	populate(serial, types)
	populate(parallel, types)

	if diff := cmp.Diff(serial.Matrix().Cells, parallel.Matrix().Cells); diff != "" {
		t.Fatalf("parallel build differs (-serial +parallel):\n%s", diff)
	}
	if st := parallel.Stats(); st.Ambiguous == 0 {
		t.Fatalf("expected row/col ties in the synthetic table")
	}
}

func TestConcurrentInvokersShareOneRebuild(t *testing.T) {
	f := newFixture()
	m := New[env, int]("shared", []Position{On[node](f.reg)})
	Def1(m, "generic", func(env, node) (int, error) { return 1, nil })
	m.Table().Refresh()

	Def1(m, "alpha", func(env, alphaNode) (int, error) { return 2, nil })

	const workers = 32
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		bad   atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			v, err := m.Invoke(env{}, f.alpha.Box(alphaNode{}))
			if err != nil || v != 2 {
				bad.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if bad.Load() != 0 {
		t.Fatalf("%d workers observed the old table", bad.Load())
	}
	if b := m.Stats().Builds; b != 2 {
		t.Fatalf("builds = %d, want exactly one rebuild after the first build", b)
	}
}

func TestInvokeWhileRegistryGrows(t *testing.T) {
	reg := typereg.New("growing")
	seed := synthTypes(reg, 4)
	m := New[struct{}, int]("grow", []Position{{Registry: reg}, {Registry: reg}}, WithStorage(StorageSparse))
	m.Add(constImpl("floor", 7, GenericParam, GenericParam))

	var (
		wg     sync.WaitGroup
		failed atomic.Int32
		done   = make(chan struct{})
		grown  = make(chan typereg.Opaque, 64)
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 4; i < 40; i++ {
			grown <- typereg.DefineType(reg, reflect.ArrayOf(i+1, reflect.TypeFor[byte]()))
		}
	}()

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			latest := seed[w%len(seed)]
			for {
				select {
				case tp := <-grown:
					latest = tp
				case <-done:
					return
				default:
				}
				v, err := m.Invoke(struct{}{}, latest.Box(nil), seed[0].Box(nil))
				if err != nil || v != 7 {
					failed.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	if failed.Load() != 0 {
		t.Fatalf("%d invocations failed while the registry grew", failed.Load())
	}
	m.Table().Refresh()
	if st := m.Stats(); st.Generations[0] != 40 || st.Outdated {
		t.Fatalf("final snapshot = %+v", st)
	}
}

func TestExplainRanksCandidates(t *testing.T) {
	f := newFixture()
	m := New[env, int]("explain", []Position{On[node](f.reg)})
	Def1(m, "generic", func(env, node) (int, error) { return 0, nil })
	Def1(m, "alpha", func(env, alphaNode) (int, error) { return 1, nil })

	ex, err := m.Explain("alphaNode")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	want := []ExplainedCandidate{
		{Name: "alpha", Signature: "(alphaNode)", Distance: 0, Selected: true},
		{Name: "generic", Signature: "(*)", Distance: 1},
	}
	if diff := cmp.Diff(want, ex.Candidates); diff != "" || ex.Outcome != CellResolved {
		t.Fatalf("unexpected explanation (-want +got):\n%s", diff)
	}
	if _, err := m.Explain("nope"); err == nil {
		t.Fatalf("expected error for unknown type name")
	}
	if _, err := m.Explain(); !errors.Is(err, ErrArity) {
		t.Fatalf("expected arity error, got %v", err)
	}
}

func TestAuditReportsCells(t *testing.T) {
	f := newFixture()
	m := New[env, int]("audited", []Position{On[node](f.reg), On[node](f.reg)})
	Def2(m, "s1", func(env, alphaNode, node) (int, error) { return 10, nil })
	Def2(m, "s2", func(env, node, betaNode) (int, error) { return 20, nil })
	Def2(m, "dead", func(env, gammaNode, gammaNode) (int, error) { return 0, nil })

	bag := diag.NewBag(50)
	m.Audit(diag.BagReporter{Bag: bag})
	bag.Sort()

	counts := map[diag.Code]int{}
	for _, d := range bag.Items() {
		counts[d.Code]++
	}
	// (alpha,beta) ties; (beta,alpha) is uncovered; gamma is not registered
	// and the dead implementation never wins.
	want := map[diag.Code]int{
		diag.DispAmbiguous:   1,
		diag.DispUncovered:   1,
		diag.DispUnknownType: 2,
		diag.DispShadowed:    1,
	}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Fatalf("audit findings (-want +got):\n%s", diff)
	}
	for _, d := range bag.Items() {
		if d.Code == diag.DispAmbiguous {
			if got := d.Where.String(); got != "audited(alphaNode, betaNode)" {
				t.Fatalf("ambiguity reported at %s", got)
			}
			if len(d.Notes) != 2 {
				t.Fatalf("ambiguity should name both candidates, got %v", d.Notes)
			}
		}
	}
}

func TestAuditEmptyPosition(t *testing.T) {
	m := New[env, int]("empty", []Position{{Registry: typereg.New("void")}})
	m.Add(Impl[env, int]{Name: "g", Sig: Signature{GenericParam}, Fn: func(env, []typereg.Value) (int, error) { return 0, nil }})
	bag := diag.NewBag(10)
	m.Audit(diag.BagReporter{Bag: bag})
	items := bag.Items()
	if len(items) != 1 || items[0].Code != diag.RegEmptyHierarchy {
		t.Fatalf("unexpected findings: %+v", items)
	}
}

func TestResolveDeterministic(t *testing.T) {
	f := newFixture()
	combo := []typereg.Entry{}
	for _, e := range f.reg.KnownTypes() {
		if e.Name() == "alphaNode" {
			combo = append(combo, e)
		}
	}
	sigs := []Signature{{GenericParam}, {ExactOf[alphaNode]()}, {ExactOf[betaNode]()}, {GenericParam}}
	first := Resolve(combo, sigs)
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, Resolve(combo, sigs)); diff != "" {
			t.Fatalf("resolution changed between runs:\n%s", diff)
		}
	}
	if first.Winner != 1 || first.Distance != 0 || len(first.Ranked) != 3 {
		t.Fatalf("unexpected resolution %+v", first)
	}

	tie := Resolve(combo, []Signature{{GenericParam}, {GenericParam}})
	if !tie.Ambiguous() || tie.Winner != -1 || !cmp.Equal(tie.Tied, []int{0, 1}) {
		t.Fatalf("expected tie between 0 and 1, got %+v", tie)
	}
	none := Resolve(combo, []Signature{{ExactOf[betaNode]()}})
	if !none.Absent() {
		t.Fatalf("expected absent resolution, got %+v", none)
	}
}
