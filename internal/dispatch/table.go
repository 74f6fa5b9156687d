package dispatch

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"tensorc/internal/trace"
	"tensorc/internal/typereg"
)

// Func is the calling convention of a resolved cell: the pass-through
// argument plus every dispatched argument, still boxed.
type Func[P, R any] func(p P, args []typereg.Value) (R, error)

// parallelThreshold is the cross-product size below which rebuilds stay on
// the calling goroutine.
const parallelThreshold = 4096

const rebuildKey = "rebuild"

// snapshot is one fully built table state. It is never mutated after it
// is published.
type snapshot[P, R any] struct {
	store     cellStore[P, R]
	shape     []int
	gens      []uint64
	epoch     uint64
	types     [][]typereg.Entry
	impls     []*Impl[P, R]
	ambiguous int
}

func (s *snapshot[P, R]) combo(k Key) []typereg.Entry {
	out := make([]typereg.Entry, len(k))
	for i, t := range k {
		out[i] = s.types[i][t]
	}
	return out
}

func (s *snapshot[P, R]) cells() int {
	n := 1
	for _, d := range s.shape {
		n *= d
	}
	return n
}

// Table maps dispatch keys to resolved implementations for one method.
//
// Readers load the current snapshot without locking. When the snapshot is
// outdated the first caller to enter the rebuild flight builds a new one and
// every concurrent caller blocks until that flight completes, then checks
// again. A snapshot is swapped in whole, so nobody observes a half-built
// table.
type Table[P, R any] struct {
	method    string
	positions []Position
	storage   Storage
	parallel  int
	tracer    trace.Tracer
	impls     func() []*Impl[P, R]

	snap      atomic.Pointer[snapshot[P, R]]
	requested atomic.Uint64
	flight    singleflight.Group

	builds    atomic.Uint64
	lastBuild atomic.Int64
}

func newTable[P, R any](method string, positions []Position, o options, impls func() []*Impl[P, R]) *Table[P, R] {
	tracer := o.tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	return &Table[P, R]{
		method:    method,
		positions: positions,
		storage:   o.storage,
		parallel:  o.parallel,
		tracer:    tracer,
		impls:     impls,
	}
}

// MarkOutdated requests a rebuild even though no registry has grown.
func (t *Table[P, R]) MarkOutdated() {
	t.requested.Add(1)
}

// Outdated reports whether the next lookup will rebuild first.
func (t *Table[P, R]) Outdated() bool {
	return t.outdated(t.snap.Load())
}

func (t *Table[P, R]) outdated(s *snapshot[P, R]) bool {
	if s == nil {
		return true
	}
	if t.requested.Load() > s.epoch {
		return true
	}
	for i, pos := range t.positions {
		if pos.Registry.Generation() > s.gens[i] {
			return true
		}
	}
	return false
}

// current returns an up-to-date snapshot, rebuilding if needed.
func (t *Table[P, R]) current() *snapshot[P, R] {
	for {
		s := t.snap.Load()
		if !t.outdated(s) {
			return s
		}
		// the caller that opens the flight rebuilds, the rest wait on it
		_, _, _ = t.flight.Do(rebuildKey, func() (any, error) {
			if t.outdated(t.snap.Load()) {
				t.build()
			}
			return nil, nil
		})
	}
}

// Find returns the resolved callable for k, rebuilding first if the table
// is outdated. An absent cell yields a *NoApplicableError. A key outside the
// table shape panics with *StaleKeyError.
func (t *Table[P, R]) Find(k Key) (Func[P, R], error) {
	return t.find(t.current(), k)
}

func (t *Table[P, R]) find(s *snapshot[P, R], k Key) (Func[P, R], error) {
	if !covers(s.shape, k) {
		panic(&StaleKeyError{Method: t.method, Key: k, Shape: s.shape})
	}
	c, ok := s.store.get(k)
	if !ok {
		return nil, &NoApplicableError{Method: t.method, Types: comboNames(s.combo(k))}
	}
	return c.fn, nil
}

// Refresh brings the table up to date without looking anything up.
func (t *Table[P, R]) Refresh() {
	t.current()
}

// build resolves the full cross product of currently known types.
// Only ever runs inside the rebuild flight.
func (t *Table[P, R]) build() {
	span := trace.Begin(t.tracer, trace.ScopeTable, "rebuild:"+t.method, 0)
	started := time.Now()

	// epoch before implementations: a concurrent Add bumps the epoch only
	// after appending, so this snapshot can never claim an epoch it lacks.
	epoch := t.requested.Load()
	impls := t.impls()
	sigs := make([]Signature, len(impls))
	for i, impl := range impls {
		sigs[i] = impl.Sig
	}

	n := len(t.positions)
	types := make([][]typereg.Entry, n)
	shape := make([]int, n)
	gens := make([]uint64, n)
	byRegistry := make(map[*typereg.Registry][]typereg.Entry, n)
	for i, pos := range t.positions {
		known, ok := byRegistry[pos.Registry]
		if !ok {
			known = pos.Registry.KnownTypes()
			byRegistry[pos.Registry] = known
		}
		types[i] = known
		shape[i] = len(known)
		gens[i] = uint64(len(known))
	}

	s := &snapshot[P, R]{shape: shape, gens: gens, epoch: epoch, types: types, impls: impls}
	b := newStoreBuilder[P, R](t.storage, shape)
	traceCells := t.tracer.Enabled() && t.tracer.Level().ShouldEmit(trace.ScopeCell)
	var ambiguous atomic.Int64

	fillRow := func(row int) {
		key := make(Key, n)
		key[0] = typereg.Tag(row)
		walkKeys(shape, 1, key, func(k Key) {
			combo := s.combo(k)
			res := resolveMin(combo, sigs)
			c, ok := t.cellFor(res, impls, combo)
			if traceCells {
				trace.Point(t.tracer, trace.ScopeCell, "cell:"+t.method, describeCell(combo, res, impls), span.ID())
			}
			if !ok {
				return
			}
			if c.winner < 0 {
				ambiguous.Add(1)
			}
			b.put(row, k, c)
		})
	}

	rows := shape[0]
	if t.parallel > 1 && rows > 1 && s.cells() >= parallelThreshold {
		var g errgroup.Group
		g.SetLimit(t.parallel)
		for row := range rows {
			g.Go(func() error {
				fillRow(row)
				return nil
			})
		}
		_ = g.Wait() //nolint:errcheck // rows never fail
	} else {
		for row := range rows {
			fillRow(row)
		}
	}

	s.store = b.finish()
	s.ambiguous = int(ambiguous.Load())
	t.snap.Store(s)

	builds := t.builds.Add(1)
	dur := time.Since(started)
	t.lastBuild.Store(int64(dur))

	span.WithExtra("storage", t.storage.String()).
		WithExtra("cells", strconv.Itoa(s.cells())).
		WithExtra("populated", strconv.Itoa(s.store.populated())).
		WithExtra("ambiguous", strconv.Itoa(s.ambiguous)).
		WithExtra("generations", fmt.Sprint(gens)).
		End(fmt.Sprintf("build #%d", builds))
}

func (t *Table[P, R]) cellFor(res Resolution, impls []*Impl[P, R], combo []typereg.Entry) (cell[P, R], bool) {
	switch {
	case res.Ambiguous():
		names := make([]string, len(res.Tied))
		for i, idx := range res.Tied {
			names[i] = impls[idx].Name
		}
		err := &AmbiguousError{
			Method:     t.method,
			Types:      comboNames(combo),
			Candidates: names,
			Distance:   res.Distance,
		}
		return cell[P, R]{fn: ambiguousThunk[P, R](err), winner: -1, tied: res.Tied}, true
	case res.Winner >= 0:
		return cell[P, R]{fn: impls[res.Winner].Fn, winner: res.Winner}, true
	}
	return cell[P, R]{}, false
}

// ambiguousThunk defers the ambiguity error to the calls that hit the cell.
func ambiguousThunk[P, R any](err error) Func[P, R] {
	return func(P, []typereg.Value) (R, error) {
		var zero R
		return zero, err
	}
}

func describeCell[P, R any](combo []typereg.Entry, res Resolution, impls []*Impl[P, R]) string {
	names := fmt.Sprint(comboNames(combo))
	switch {
	case res.Ambiguous():
		return names + " ambiguous"
	case res.Winner >= 0:
		return names + " -> " + impls[res.Winner].Name
	}
	return names + " absent"
}

// walkKeys visits, in lexicographic order, every key whose positions before
// from are already fixed in key. key is reused between calls.
func walkKeys(shape []int, from int, key Key, fn func(Key)) {
	for i := from; i < len(shape); i++ {
		if shape[i] == 0 {
			return
		}
		key[i] = 0
	}
	for {
		fn(key)
		i := len(shape) - 1
		for ; i >= from; i-- {
			key[i]++
			if int(key[i]) < shape[i] {
				break
			}
			key[i] = 0
		}
		if i < from {
			return
		}
	}
}

// Stats describes the table's current snapshot.
type Stats struct {
	Method      string        `json:"method" msgpack:"method"`
	Storage     string        `json:"storage" msgpack:"storage"`
	Built       bool          `json:"built" msgpack:"built"`
	Outdated    bool          `json:"outdated" msgpack:"outdated"`
	Builds      uint64        `json:"builds" msgpack:"builds"`
	LastBuild   time.Duration `json:"last_build_ns" msgpack:"last_build_ns"`
	Shape       []int         `json:"shape" msgpack:"shape"`
	Generations []uint64      `json:"generations" msgpack:"generations"`
	Cells       int           `json:"cells" msgpack:"cells"`
	Populated   int           `json:"populated" msgpack:"populated"`
	Ambiguous   int           `json:"ambiguous" msgpack:"ambiguous"`
}

// Stats reports on the published snapshot without triggering a rebuild.
func (t *Table[P, R]) Stats() Stats {
	st := Stats{
		Method:    t.method,
		Storage:   t.storage.String(),
		Builds:    t.builds.Load(),
		LastBuild: time.Duration(t.lastBuild.Load()),
	}
	s := t.snap.Load()
	st.Outdated = t.outdated(s)
	if s == nil {
		return st
	}
	st.Built = true
	st.Shape = append([]int(nil), s.shape...)
	st.Generations = append([]uint64(nil), s.gens...)
	st.Cells = s.cells()
	st.Populated = s.store.populated()
	st.Ambiguous = s.ambiguous
	return st
}
