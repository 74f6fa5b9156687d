package tensor

import (
	"tensorc/internal/dispatch"
	"tensorc/internal/typereg"
)

// Catalog owns the type and node registries of the tensor language and the
// multi-methods the compiler passes dispatch through.
type Catalog struct {
	Types *typereg.Registry
	Nodes *typereg.Registry

	unit   typereg.Class[Unit]
	scalar typereg.Class[Scalar]
	tensor typereg.Class[Tensor]
	index  typereg.Class[Index]

	literal typereg.Class[Literal]
	vars    typereg.Class[Var]
	access  typereg.Class[Access]
	binary  typereg.Class[Binary]
	sum     typereg.Class[Sum]

	// CommonType unifies two types into the type both convert to.
	CommonType *dispatch.Method[struct{}, Type]
	// InferBinary types a binary operation from its operand types.
	InferBinary *dispatch.Method[BinOp, Type]
	// TypeOf infers the type of an expression node.
	TypeOf *dispatch.Method[*Env, Type]
	// Render pretty-prints an expression node.
	Render *dispatch.Method[*Printer, string]
}

// NewCatalog registers the concrete types and installs every rule.
// opts apply to all methods.
func NewCatalog(opts ...dispatch.Option) *Catalog {
	c := &Catalog{
		Types: typereg.New("types"),
		Nodes: typereg.New("nodes"),
	}
	c.unit = typereg.Define[Unit](c.Types)
	c.scalar = typereg.Define[Scalar](c.Types)
	c.tensor = typereg.Define[Tensor](c.Types)
	c.index = typereg.Define[Index](c.Types)

	c.literal = typereg.Define[Literal](c.Nodes)
	c.vars = typereg.Define[Var](c.Nodes)
	c.access = typereg.Define[Access](c.Nodes)
	c.binary = typereg.Define[Binary](c.Nodes)
	c.sum = typereg.Define[Sum](c.Nodes)

	typePos := dispatch.On[Type](c.Types)
	nodePos := dispatch.On[Expr](c.Nodes)

	c.CommonType = dispatch.New[struct{}, Type]("common-type", []dispatch.Position{typePos, typePos}, opts...)
	c.InferBinary = dispatch.New[BinOp, Type]("infer-binary", []dispatch.Position{typePos, typePos}, opts...)
	c.TypeOf = dispatch.New[*Env, Type]("type-of", []dispatch.Position{nodePos}, opts...)
	c.Render = dispatch.New[*Printer, string]("render", []dispatch.Position{nodePos}, opts...)

	c.installUnify()
	c.installInfer()
	c.installRender()
	return c
}

// Methods lists every multi-method for tooling.
func (c *Catalog) Methods() []dispatch.Inspector {
	return []dispatch.Inspector{c.CommonType, c.InferBinary, c.TypeOf, c.Render}
}

// Method finds a method by name.
func (c *Catalog) Method(name string) (dispatch.Inspector, bool) {
	for _, m := range c.Methods() {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// BoxType boxes a concrete type for dispatch. Unknown types box to nil,
// which Invoke rejects.
func (c *Catalog) BoxType(t Type) typereg.Value {
	switch t := t.(type) {
	case Unit:
		return c.unit.Box(t)
	case Scalar:
		return c.scalar.Box(t)
	case Tensor:
		return c.tensor.Box(t)
	case Index:
		return c.index.Box(t)
	}
	return nil
}

// BoxExpr boxes an expression node for dispatch.
func (c *Catalog) BoxExpr(e Expr) typereg.Value {
	switch e := e.(type) {
	case Literal:
		return c.literal.Box(e)
	case Var:
		return c.vars.Box(e)
	case Access:
		return c.access.Box(e)
	case Binary:
		return c.binary.Box(e)
	case Sum:
		return c.sum.Box(e)
	}
	return nil
}

// Unify returns the common type of a and b.
func (c *Catalog) Unify(a, b Type) (Type, error) {
	return c.CommonType.Invoke(struct{}{}, c.BoxType(a), c.BoxType(b))
}

// Infer returns the type of e under env.
func (c *Catalog) Infer(env *Env, e Expr) (Type, error) {
	return c.TypeOf.Invoke(env, c.BoxExpr(e))
}

// Print renders e.
func (c *Catalog) Print(e Expr) (string, error) {
	return c.Render.Invoke(&Printer{cat: c}, c.BoxExpr(e))
}
