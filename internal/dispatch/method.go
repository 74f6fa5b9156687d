package dispatch

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"tensorc/internal/trace"
	"tensorc/internal/typereg"
)

// Position is one dispatched parameter: the registry its concrete types
// come from and the capability interface that stands for "any of them".
type Position struct {
	Registry   *typereg.Registry
	Capability reflect.Type
}

// On declares a position over r whose generic capability is C.
func On[C any](r *typereg.Registry) Position {
	return Position{Registry: r, Capability: reflect.TypeFor[C]()}
}

// Impl is one registered implementation.
type Impl[P, R any] struct {
	Name string
	Sig  Signature
	Fn   Func[P, R]
}

type options struct {
	storage  Storage
	tracer   trace.Tracer
	parallel int
}

// Option configures a Method.
type Option func(*options)

// WithStorage picks the table layout. Dense is the default.
func WithStorage(s Storage) Option {
	return func(o *options) { o.storage = s }
}

// WithTracer reports table rebuilds to t.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithParallelBuild resolves large tables with up to n goroutines.
func WithParallelBuild(n int) Option {
	return func(o *options) { o.parallel = n }
}

// Method is a generic function whose implementation is chosen per call from
// the runtime types of its dispatched arguments. P is passed through to the
// implementation unexamined; R is the result.
//
// Implementations may be added at any time, including while other
// goroutines are invoking the method.
type Method[P, R any] struct {
	name      string
	positions []Position

	mu    sync.Mutex // serialises Add
	impls atomic.Pointer[[]*Impl[P, R]]
	table *Table[P, R]
}

// New creates a method dispatching on the given positions.
func New[P, R any](name string, positions []Position, opts ...Option) *Method[P, R] {
	if len(positions) == 0 {
		panic(fmt.Sprintf("dispatch: method %s needs at least one dispatch position", name))
	}
	for i, pos := range positions {
		if pos.Registry == nil {
			panic(fmt.Sprintf("dispatch: method %s: position %d has no registry", name, i))
		}
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	m := &Method[P, R]{
		name:      name,
		positions: append([]Position(nil), positions...),
	}
	empty := []*Impl[P, R]{}
	m.impls.Store(&empty)
	m.table = newTable(name, m.positions, o, m.Implementations)
	return m
}

// Name returns the method name.
func (m *Method[P, R]) Name() string { return m.name }

// Arity returns the number of dispatched positions.
func (m *Method[P, R]) Arity() int { return len(m.positions) }

// Positions returns the dispatch positions.
func (m *Method[P, R]) Positions() []Position {
	return append([]Position(nil), m.positions...)
}

// Table exposes the method's dispatch table.
func (m *Method[P, R]) Table() *Table[P, R] { return m.table }

// Implementations returns the registered implementations in registration order.
func (m *Method[P, R]) Implementations() []*Impl[P, R] {
	return *m.impls.Load()
}

// Add registers impl and marks the table outdated. A new implementation can
// win cells the table already covers, so the rebuild is requested even when
// no new type appeared.
func (m *Method[P, R]) Add(impl Impl[P, R]) {
	if len(impl.Sig) != len(m.positions) {
		panic(fmt.Sprintf("dispatch: %s: implementation %s declares %d positions, method has %d",
			m.name, impl.Name, len(impl.Sig), len(m.positions)))
	}
	if impl.Fn == nil {
		panic(fmt.Sprintf("dispatch: %s: implementation %s has no body", m.name, impl.Name))
	}
	if impl.Name == "" {
		impl.Name = m.name + impl.Sig.String()
	}
	stored := impl
	stored.Sig = append(Signature(nil), impl.Sig...)

	m.mu.Lock()
	cur := *m.impls.Load()
	next := make([]*Impl[P, R], len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, &stored)
	m.impls.Store(&next)
	m.mu.Unlock()

	m.table.MarkOutdated()
}

// Invoke dispatches on the tags of args and calls the resolved
// implementation with p and args.
func (m *Method[P, R]) Invoke(p P, args ...typereg.Value) (R, error) {
	var zero R
	if len(args) != len(m.positions) {
		return zero, &ArityError{Method: m.name, Want: len(m.positions), Got: len(args)}
	}
	key := make(Key, len(args))
	for i, a := range args {
		reg := m.positions[i].Registry
		if a == nil || a.Registry() != reg {
			got := "<nil>"
			if a != nil {
				got = a.Registry().Name()
			}
			return zero, &RegistryMismatchError{Method: m.name, Position: i, Want: reg.Name(), Got: got}
		}
		key[i] = a.Tag()
	}
	fn, err := m.table.Find(key)
	if err != nil {
		return zero, err
	}
	return fn(p, args)
}
