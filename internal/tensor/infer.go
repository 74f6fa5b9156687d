package tensor

import (
	"errors"
	"fmt"

	"tensorc/internal/dispatch"
)

var (
	ErrUnbound     = errors.New("unbound name")
	ErrNotTensor   = errors.New("not a tensor")
	ErrNotIndex    = errors.New("not an index")
	ErrBadOperands = errors.New("bad operands")
)

// Env binds names to types during inference.
type Env struct {
	parent *Env
	vars   map[string]Type
}

// NewEnv returns an empty root environment.
func NewEnv() *Env {
	return &Env{vars: make(map[string]Type)}
}

// Bind adds name to this scope and returns the env for chaining.
func (e *Env) Bind(name string, t Type) *Env {
	e.vars[name] = t
	return e
}

// Child opens a nested scope.
func (e *Env) Child() *Env {
	return &Env{parent: e, vars: make(map[string]Type)}
}

// Lookup resolves name through enclosing scopes.
func (e *Env) Lookup(name string) (Type, bool) {
	for s := e; s != nil; s = s.parent {
		if t, ok := s.vars[name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (c *Catalog) installInfer() {
	bin := c.InferBinary

	dispatch.Def2(bin, "matmul", func(op BinOp, a, b Tensor) (Type, error) {
		if op != OpMatMul {
			return c.elementwise(op, a, b)
		}
		if a.Rank() != 2 || b.Rank() != 2 || a.Shape[1] != b.Shape[0] {
			return nil, fmt.Errorf("%s @ %s: %w", a, b, ErrShapeMismatch)
		}
		return Tensor{DType: Promote(a.DType, b.DType), Shape: []int{a.Shape[0], b.Shape[1]}}, nil
	})
	dispatch.Def2(bin, "elementwise", func(op BinOp, a, b Type) (Type, error) {
		if op == OpMatMul {
			return nil, fmt.Errorf("%s @ %s: %w", a, b, ErrBadOperands)
		}
		return c.elementwise(op, a, b)
	})

	ty := c.TypeOf

	dispatch.Def1(ty, "literal", func(_ *Env, l Literal) (Type, error) {
		return Scalar{DType: l.DType}, nil
	})
	dispatch.Def1(ty, "var", func(env *Env, v Var) (Type, error) {
		t, ok := env.Lookup(v.Name)
		if !ok {
			return nil, fmt.Errorf("%s: %w", v.Name, ErrUnbound)
		}
		return t, nil
	})
	dispatch.Def1(ty, "access", func(env *Env, a Access) (Type, error) {
		t, ok := env.Lookup(a.Tensor)
		if !ok {
			return nil, fmt.Errorf("%s: %w", a.Tensor, ErrUnbound)
		}
		tt, ok := t.(Tensor)
		if !ok {
			return nil, fmt.Errorf("%s is %s: %w", a.Tensor, t, ErrNotTensor)
		}
		if len(a.Indices) > tt.Rank() {
			return nil, fmt.Errorf("%s: %d indices for rank %d: %w", a.Tensor, len(a.Indices), tt.Rank(), ErrShapeMismatch)
		}
		for i, name := range a.Indices {
			it, err := c.indexVar(env, name)
			if err != nil {
				return nil, err
			}
			if it.Extent != tt.Shape[i] {
				return nil, fmt.Errorf("%s[%s]: extent %d vs dim %d: %w", a.Tensor, name, it.Extent, tt.Shape[i], ErrExtentMismatch)
			}
		}
		if rest := tt.Shape[len(a.Indices):]; len(rest) > 0 {
			return Tensor{DType: tt.DType, Shape: rest}, nil
		}
		return Scalar{DType: tt.DType}, nil
	})
	dispatch.Def1(ty, "binary", func(env *Env, b Binary) (Type, error) {
		l, err := c.Infer(env, b.L)
		if err != nil {
			return nil, err
		}
		r, err := c.Infer(env, b.R)
		if err != nil {
			return nil, err
		}
		return c.InferBinary.Invoke(b.Op, c.BoxType(l), c.BoxType(r))
	})
	dispatch.Def1(ty, "sum", func(env *Env, s Sum) (Type, error) {
		if _, err := c.indexVar(env, s.Index); err != nil {
			return nil, err
		}
		body, err := c.Infer(env, s.Body)
		if err != nil {
			return nil, err
		}
		switch body.(type) {
		case Scalar, Tensor:
			return body, nil
		}
		return nil, fmt.Errorf("sum over %s of %s: %w", s.Index, body, ErrBadOperands)
	})
}

func (c *Catalog) indexVar(env *Env, name string) (Index, error) {
	t, ok := env.Lookup(name)
	if !ok {
		return Index{}, fmt.Errorf("%s: %w", name, ErrUnbound)
	}
	it, ok := t.(Index)
	if !ok {
		return Index{}, fmt.Errorf("%s is %s: %w", name, t, ErrNotIndex)
	}
	return it, nil
}

// elementwise types arithmetic and comparisons through the common type.
func (c *Catalog) elementwise(op BinOp, a, b Type) (Type, error) {
	t, err := c.Unify(a, b)
	if err != nil {
		return nil, fmt.Errorf("%s %s %s: %w", a, op, b, err)
	}
	if !op.Comparison() {
		if s, ok := t.(Scalar); ok && s.DType == Bool {
			return nil, fmt.Errorf("%s %s %s: arithmetic on bool: %w", a, op, b, ErrBadOperands)
		}
		return t, nil
	}
	switch t := t.(type) {
	case Scalar:
		return Scalar{DType: Bool}, nil
	case Tensor:
		return Tensor{DType: Bool, Shape: t.Shape}, nil
	}
	return nil, fmt.Errorf("%s %s %s: %w", a, op, b, ErrBadOperands)
}
