package dispatch

import (
	"fmt"
	"reflect"

	"tensorc/internal/typereg"
)

// classify maps a declared Go parameter type to a Param for pos. The
// position's capability interface is the generic fallback; anything else
// is an exact concrete type. Other interface types would never match a
// concrete type exactly, so they are rejected.
func classify(method, impl string, i int, pos Position, t reflect.Type) Param {
	if pos.Capability != nil && t == pos.Capability {
		return GenericParam
	}
	if t.Kind() == reflect.Interface {
		panic(fmt.Sprintf("dispatch: %s: %s: parameter %d is interface %s, want %v or a concrete type",
			method, impl, i, t, pos.Capability))
	}
	return Exact(t)
}

func requireArity[P, R any](m *Method[P, R], impl string, n int) {
	if len(m.positions) != n {
		panic(fmt.Sprintf("dispatch: %s: %s declares %d positions, method has %d", m.name, impl, n, len(m.positions)))
	}
}

func unbox[T any](v typereg.Value, method, impl string, i int) (T, error) {
	out, ok := typereg.As[T](v)
	if !ok {
		return out, fmt.Errorf("%s: %s: argument %d (%s) does not unbox to %v",
			method, impl, i, v.Registry().TagName(v.Tag()), reflect.TypeFor[T]())
	}
	return out, nil
}

// Def1 registers a one-position implementation. Declaring A as the
// position's capability makes it the generic fallback.
func Def1[P, R, A any](m *Method[P, R], name string, fn func(P, A) (R, error)) {
	requireArity(m, name, 1)
	sig := Signature{
		classify(m.name, name, 0, m.positions[0], reflect.TypeFor[A]()),
	}
	m.Add(Impl[P, R]{
		Name: name,
		Sig:  sig,
		Fn: func(p P, args []typereg.Value) (R, error) {
			var zero R
			a, err := unbox[A](args[0], m.name, name, 0)
			if err != nil {
				return zero, err
			}
			return fn(p, a)
		},
	})
}

// Def2 registers a two-position implementation.
func Def2[P, R, A, B any](m *Method[P, R], name string, fn func(P, A, B) (R, error)) {
	requireArity(m, name, 2)
	sig := Signature{
		classify(m.name, name, 0, m.positions[0], reflect.TypeFor[A]()),
		classify(m.name, name, 1, m.positions[1], reflect.TypeFor[B]()),
	}
	m.Add(Impl[P, R]{
		Name: name,
		Sig:  sig,
		Fn: func(p P, args []typereg.Value) (R, error) {
			var zero R
			a, err := unbox[A](args[0], m.name, name, 0)
			if err != nil {
				return zero, err
			}
			b, err := unbox[B](args[1], m.name, name, 1)
			if err != nil {
				return zero, err
			}
			return fn(p, a, b)
		},
	})
}

// Def3 registers a three-position implementation.
func Def3[P, R, A, B, C any](m *Method[P, R], name string, fn func(P, A, B, C) (R, error)) {
	requireArity(m, name, 3)
	sig := Signature{
		classify(m.name, name, 0, m.positions[0], reflect.TypeFor[A]()),
		classify(m.name, name, 1, m.positions[1], reflect.TypeFor[B]()),
		classify(m.name, name, 2, m.positions[2], reflect.TypeFor[C]()),
	}
	m.Add(Impl[P, R]{
		Name: name,
		Sig:  sig,
		Fn: func(p P, args []typereg.Value) (R, error) {
			var zero R
			a, err := unbox[A](args[0], m.name, name, 0)
			if err != nil {
				return zero, err
			}
			b, err := unbox[B](args[1], m.name, name, 1)
			if err != nil {
				return zero, err
			}
			c, err := unbox[C](args[2], m.name, name, 2)
			if err != nil {
				return zero, err
			}
			return fn(p, a, b, c)
		},
	})
}
