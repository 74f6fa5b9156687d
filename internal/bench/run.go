package bench

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"runtime"
	"sync/atomic"
	"time"

	"fortio.org/safecast"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tensorc/internal/dispatch"
	"tensorc/internal/observ"
	"tensorc/internal/trace"
	"tensorc/internal/typereg"
)

// Result summarises one run.
type Result struct {
	RunID      uuid.UUID      `json:"run_id" yaml:"run_id"`
	Scenario   Scenario       `json:"scenario" yaml:"scenario"`
	Calls      uint64         `json:"calls" yaml:"calls"`
	Resolved   uint64         `json:"resolved" yaml:"resolved"`
	Ambiguous  uint64         `json:"ambiguous" yaml:"ambiguous"`
	Types      int            `json:"types" yaml:"types"`
	Impls      int            `json:"impls" yaml:"impls"`
	Stats      dispatch.Stats `json:"stats" yaml:"stats"`
	Timings    observ.Report  `json:"timings" yaml:"timings"`
	Throughput float64        `json:"calls_per_sec" yaml:"calls_per_sec"`
}

// pool is the copy-on-write list of types workers draw arguments from.
type pool struct {
	types atomic.Pointer[[]typereg.Opaque]
}

func (p *pool) add(t typereg.Opaque) {
	for {
		old := p.types.Load()
		next := append(append([]typereg.Opaque(nil), *old...), t)
		if p.types.CompareAndSwap(old, &next) {
			return
		}
	}
}

func (p *pool) pick(r *rand.Rand) typereg.Opaque {
	ts := *p.types.Load()
	return ts[r.IntN(len(ts))]
}

// synth returns the i-th synthetic concrete type.
func synth(i int) reflect.Type {
	return reflect.ArrayOf(i+1, reflect.TypeFor[byte]())
}

// Run executes sc. Workers invoke the method while a grower registers
// sc.Load.Grow new types, forcing rebuilds under load.
func Run(ctx context.Context, sc Scenario, opts ...Option) (Result, error) {
	if err := sc.Validate(); err != nil {
		return Result{}, err
	}
	o := runOptions{progress: nopSink{}, steps: 20}
	for _, opt := range opts {
		opt(&o)
	}
	sink := o.progress
	stage := func(st Stage, status Status, done, total int) {
		sink.OnEvent(Event{Worker: -1, Stage: st, Status: status, Done: done, Total: total})
	}
	storage, _ := dispatch.ParseStorage(sc.Dispatch.Storage)
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "bench:"+sc.Name)
	defer span.End("")

	res := Result{RunID: uuid.New(), Scenario: sc}
	timer := observ.NewTimer()
	reg := typereg.New("bench")
	var types pool

	stage(StageRegister, StatusWorking, 0, sc.Dispatch.Types)
	_ = timer.Time("register", func() (string, error) {
		initial := make([]typereg.Opaque, sc.Dispatch.Types)
		for i := range initial {
			initial[i] = typereg.DefineType(reg, synth(i))
		}
		types.types.Store(&initial)
		return fmt.Sprintf("%d types", len(initial)), nil
	})
	stage(StageRegister, StatusDone, sc.Dispatch.Types, sc.Dispatch.Types)

	positions := make([]dispatch.Position, sc.Dispatch.Positions)
	for i := range positions {
		positions[i] = dispatch.Position{Registry: reg}
	}
	m := dispatch.New[struct{}, uint64]("bench-"+sc.Name, positions,
		dispatch.WithStorage(storage),
		dispatch.WithParallelBuild(sc.Dispatch.Parallel),
		dispatch.WithTracer(trace.FromContext(ctx)),
	)

	stage(StageDefine, StatusWorking, 0, 0)
	_ = timer.Time("define", func() (string, error) {
		res.Impls = define(m, *types.types.Load(), sc.Dispatch)
		return fmt.Sprintf("%d implementations", res.Impls), nil
	})
	stage(StageBuild, StatusWorking, 0, 0)
	_ = timer.Time("build", func() (string, error) {
		m.Table().Refresh()
		return fmt.Sprintf("%d cells", m.Stats().Cells), nil
	})
	stage(StageInvoke, StatusWorking, 0, sc.Load.Workers*sc.Load.Invokes)

	var resolved, ambiguous atomic.Uint64
	invokeIdx := timer.Begin("invoke")
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for i := 0; i < sc.Load.Grow; i++ {
			if err := gctx.Err(); err != nil {
				return err
			}
			types.add(typereg.DefineType(reg, synth(sc.Dispatch.Types+i)))
			stage(StageGrow, StatusWorking, i+1, sc.Load.Grow)
			runtime.Gosched()
		}
		if sc.Load.Grow > 0 {
			stage(StageGrow, StatusDone, sc.Load.Grow, sc.Load.Grow)
		}
		return nil
	})
	for w := 0; w < sc.Load.Workers; w++ {
		seed, err := safecast.Conv[uint64](w)
		if err != nil {
			return Result{}, err
		}
		r := rand.New(rand.NewPCG(sc.Load.Seed, seed))
		every := max(sc.Load.Invokes/o.steps, 1)
		g.Go(func() (err error) {
			began := time.Now()
			report := func(status Status, done int, err error) {
				sink.OnEvent(Event{Worker: w, Stage: StageInvoke, Status: status, Done: done,
					Total: sc.Load.Invokes, Err: err, Elapsed: time.Since(began)})
			}
			report(StatusWorking, 0, nil)
			defer func() {
				if err != nil {
					report(StatusError, 0, err)
				}
			}()
			args := make([]typereg.Value, sc.Dispatch.Positions)
			for i := 0; i < sc.Load.Invokes; i++ {
				if i > 0 && i%every == 0 {
					report(StatusWorking, i, nil)
				}
				if i%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				for p := range args {
					args[p] = types.pick(r).Box(nil)
				}
				_, err := m.Invoke(struct{}{}, args...)
				switch {
				case err == nil:
					resolved.Add(1)
				case errors.Is(err, dispatch.ErrAmbiguousDispatch):
					ambiguous.Add(1)
				default:
					return err
				}
			}
			report(StatusDone, sc.Load.Invokes, nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		timer.End(invokeIdx, "aborted")
		stage(StageInvoke, StatusError, 0, 0)
		return Result{}, fmt.Errorf("bench %s: %w", sc.Name, err)
	}
	elapsed := time.Since(start)
	res.Resolved, res.Ambiguous = resolved.Load(), ambiguous.Load()
	res.Calls = res.Resolved + res.Ambiguous
	timer.End(invokeIdx, fmt.Sprintf("%d workers", sc.Load.Workers))
	stage(StageInvoke, StatusDone, sc.Load.Workers*sc.Load.Invokes, sc.Load.Workers*sc.Load.Invokes)

	m.Table().Refresh()
	res.Types = len(reg.KnownTypes())
	res.Stats = m.Stats()
	res.Timings = timer.Report()
	if elapsed > 0 {
		res.Throughput = float64(res.Calls) / elapsed.Seconds()
	}
	span.WithExtra("calls", fmt.Sprint(res.Calls)).WithExtra("builds", fmt.Sprint(res.Stats.Builds))
	return res, nil
}

// define installs a generic floor plus, for every exactEvery-th type, one
// implementation per position that is exact there and generic elsewhere.
func define(m *dispatch.Method[struct{}, uint64], types []typereg.Opaque, d DispatchSpec) int {
	floor := make(dispatch.Signature, d.Positions)
	for i := range floor {
		floor[i] = dispatch.GenericParam
	}
	m.Add(dispatch.Impl[struct{}, uint64]{Name: "floor", Sig: floor, Fn: constFn(0)})
	n := 1
	if d.ExactEvery == 0 {
		return n
	}
	for i, tp := range types {
		if i%d.ExactEvery != 0 {
			continue
		}
		for p := 0; p < d.Positions; p++ {
			sig := append(dispatch.Signature(nil), floor...)
			sig[p] = dispatch.Exact(tp.Type())
			m.Add(dispatch.Impl[struct{}, uint64]{
				Name: fmt.Sprintf("t%d@%d", i, p),
				Sig:  sig,
				Fn:   constFn(uint64(n)),
			})
			n++
		}
	}
	return n
}

func constFn(v uint64) dispatch.Func[struct{}, uint64] {
	return func(struct{}, []typereg.Value) (uint64, error) { return v, nil }
}
