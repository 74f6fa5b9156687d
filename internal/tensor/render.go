package tensor

import (
	"fmt"
	"strconv"
	"strings"

	"tensorc/internal/dispatch"
)

// Printer is the pass-through state of the render method.
type Printer struct {
	cat *Catalog
}

func (p *Printer) child(e Expr) (string, error) {
	return p.cat.Render.Invoke(p, p.cat.BoxExpr(e))
}

func (c *Catalog) installRender() {
	m := c.Render

	dispatch.Def1(m, "literal", func(_ *Printer, l Literal) (string, error) {
		s := strconv.FormatFloat(l.Value, 'g', -1, 64)
		if l.DType != F32 {
			s += ":" + l.DType.String()
		}
		return s, nil
	})
	dispatch.Def1(m, "var", func(_ *Printer, v Var) (string, error) {
		return v.Name, nil
	})
	dispatch.Def1(m, "access", func(_ *Printer, a Access) (string, error) {
		return a.Tensor + "[" + strings.Join(a.Indices, ", ") + "]", nil
	})
	dispatch.Def1(m, "binary", func(p *Printer, b Binary) (string, error) {
		l, err := p.child(b.L)
		if err != nil {
			return "", err
		}
		r, err := p.child(b.R)
		if err != nil {
			return "", err
		}
		return "(" + l + " " + b.Op.String() + " " + r + ")", nil
	})
	dispatch.Def1(m, "sum", func(p *Printer, s Sum) (string, error) {
		body, err := p.child(s.Body)
		if err != nil {
			return "", err
		}
		return "sum_" + s.Index + "(" + body + ")", nil
	})
	dispatch.Def1(m, "opaque", func(_ *Printer, e Expr) (string, error) {
		return fmt.Sprintf("<%T>", e), nil
	})
}
