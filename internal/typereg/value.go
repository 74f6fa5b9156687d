package typereg

import "reflect"

// Value is a boxed argument carrying the tag of its concrete type.
// It is only produced by Class.Box, so the set of implementations is closed.
type Value interface {
	Tag() Tag
	Registry() *Registry
	Unwrap() any
	boxed()
}

// Class is the registration handle for one concrete type T.
// Create it once, typically next to T's constructor, and box values with it.
type Class[T any] struct {
	reg *Registry
	tag Tag
}

// Define registers T in r and returns its handle.
func Define[T any](r *Registry) Class[T] {
	return Class[T]{reg: r, tag: r.Register(reflect.TypeFor[T]())}
}

// Tag returns T's tag.
func (c Class[T]) Tag() Tag { return c.tag }

// Registry returns the registry T was defined in.
func (c Class[T]) Registry() *Registry { return c.reg }

// Box wraps v so it can be passed to a multi-method.
func (c Class[T]) Box(v T) Value {
	return box[T]{val: v, tag: c.tag, reg: c.reg}
}

type box[T any] struct {
	val T
	tag Tag
	reg *Registry
}

func (b box[T]) Tag() Tag            { return b.tag }
func (b box[T]) Registry() *Registry { return b.reg }
func (b box[T]) Unwrap() any         { return b.val }
func (box[T]) boxed()                {}

// As is the checked unwrap of a boxed value. T may be the concrete type or
// any interface the concrete type satisfies.
func As[T any](v Value) (T, bool) {
	var zero T
	if v == nil {
		return zero, false
	}
	if b, ok := v.(box[T]); ok {
		return b.val, true
	}
	out, ok := v.Unwrap().(T)
	return out, ok
}

// Opaque is a Class for a type only known at run time, such as a
// synthesised type in a stress scenario. Box does not check v's type.
type Opaque struct {
	reg *Registry
	tag Tag
	typ reflect.Type
}

// DefineType registers t in r and returns its handle.
func DefineType(r *Registry, t reflect.Type) Opaque {
	return Opaque{reg: r, tag: r.Register(t), typ: t}
}

func (o Opaque) Tag() Tag            { return o.tag }
func (o Opaque) Type() reflect.Type  { return o.typ }
func (o Opaque) Registry() *Registry { return o.reg }

// Box wraps v under t's tag.
func (o Opaque) Box(v any) Value {
	return box[any]{val: v, tag: o.tag, reg: o.reg}
}
