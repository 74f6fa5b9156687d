package tensor

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tensorc/internal/diag"
	"tensorc/internal/dispatch"
	"tensorc/internal/testkit"
)

func TestUnify(t *testing.T) {
	c := NewCatalog()
	cases := []struct {
		name string
		a, b Type
		want Type
		err  error
	}{
		{"scalars promote", Scalar{I32}, Scalar{F32}, Scalar{F32}, nil},
		{"scalar broadcasts", Scalar{F64}, Tensor{F32, []int{2, 3}}, Tensor{F64, []int{2, 3}}, nil},
		{"tensor scalar", Tensor{I64, []int{4}}, Scalar{I32}, Tensor{I64, []int{4}}, nil},
		{"tensors broadcast", Tensor{F32, []int{1, 3}}, Tensor{F16, []int{5, 3}}, Tensor{F32, []int{5, 3}}, nil},
		{"tensor mismatch", Tensor{F32, []int{2}}, Tensor{F32, []int{3}}, nil, ErrShapeMismatch},
		{"index extents", Index{8}, Index{8}, Index{8}, nil},
		{"index mismatch", Index{8}, Index{4}, nil, ErrExtentMismatch},
		{"index to scalar", Index{8}, Scalar{F32}, Scalar{F32}, nil},
		{"scalar to index", Scalar{I32}, Index{8}, Scalar{I64}, nil},
		{"unit", Unit{}, Unit{}, Unit{}, nil},
		{"unit scalar", Unit{}, Scalar{F32}, nil, ErrNoCommonType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.Unify(tc.a, tc.b)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("err = %v, want %v", err, tc.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("unify mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func matmulEnv() *Env {
	return NewEnv().
		Bind("A", Tensor{F32, []int{4, 8}}).
		Bind("B", Tensor{F32, []int{8, 2}}).
		Bind("x", Scalar{F64}).
		Bind("i", Index{4}).
		Bind("k", Index{8}).
		Bind("j", Index{2})
}

func TestInfer(t *testing.T) {
	c := NewCatalog()
	env := matmulEnv()

	cases := []struct {
		name string
		expr Expr
		want Type
		err  error
	}{
		{"literal", Literal{1, I32}, Scalar{I32}, nil},
		{"var", Var{"x"}, Scalar{F64}, nil},
		{"full access", Access{"A", []string{"i", "k"}}, Scalar{F32}, nil},
		{"partial access", Access{"A", []string{"i"}}, Tensor{F32, []int{8}}, nil},
		{"contraction", Sum{"k", Binary{OpMul, Access{"A", []string{"i", "k"}}, Access{"B", []string{"k", "j"}}}}, Scalar{F32}, nil},
		{"matmul", Binary{OpMatMul, Var{"A"}, Var{"B"}}, Tensor{F32, []int{4, 2}}, nil},
		{"scaled tensor", Binary{OpMul, Var{"x"}, Var{"A"}}, Tensor{F64, []int{4, 8}}, nil},
		{"comparison", Binary{OpLess, Var{"A"}, Literal{0, F32}}, Tensor{Bool, []int{4, 8}}, nil},
		{"tensor add", Binary{OpAdd, Var{"A"}, Var{"A"}}, Tensor{F32, []int{4, 8}}, nil},
		{"bad matmul", Binary{OpMatMul, Var{"B"}, Var{"B"}}, nil, ErrShapeMismatch},
		{"matmul on scalars", Binary{OpMatMul, Var{"x"}, Var{"x"}}, nil, ErrBadOperands},
		{"unbound", Var{"nope"}, nil, ErrUnbound},
		{"extent mismatch", Access{"A", []string{"k", "k"}}, nil, ErrExtentMismatch},
		{"not a tensor", Access{"x", []string{"i"}}, nil, ErrNotTensor},
		{"not an index", Sum{"x", Literal{1, F32}}, nil, ErrNotIndex},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.Infer(env, tc.expr)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("err = %v, want %v", err, tc.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("infer mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEnvScopes(t *testing.T) {
	root := NewEnv().Bind("x", Scalar{F32})
	child := root.Child().Bind("x", Scalar{I32})
	if got, _ := child.Lookup("x"); got != (Scalar{I32}) {
		t.Fatalf("child did not shadow x: %v", got)
	}
	if got, _ := root.Lookup("x"); got != (Scalar{F32}) {
		t.Fatalf("root x changed: %v", got)
	}
}

type hole struct{}

func (hole) exprNode() {}

func TestPrint(t *testing.T) {
	c := NewCatalog()
	e := Sum{"k", Binary{OpMul, Access{"A", []string{"i", "k"}}, Literal{2, F32}}}
	got, err := c.Print(e)
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if want := "sum_k((A[i, k] * 2))"; got != want {
		t.Fatalf("print = %q, want %q", got, want)
	}
	if got, _ := c.Print(Literal{3, I64}); got != "3:i64" {
		t.Fatalf("literal print = %q", got)
	}
	// an unregistered node cannot be boxed
	if _, err := c.Print(hole{}); !errors.Is(err, dispatch.ErrRegistryMismatch) {
		t.Fatalf("expected registry mismatch for unknown node, got %v", err)
	}
}

func TestCatalogAudit(t *testing.T) {
	c := NewCatalog(dispatch.WithStorage(dispatch.StorageSparse))
	bag := diag.NewBag(100)
	for _, m := range c.Methods() {
		m.Audit(diag.BagReporter{Bag: bag})
	}
	if bag.HasErrors() || bag.HasWarnings() {
		t.Fatalf("catalog rules should be unambiguous and total: %+v", bag.Items())
	}
	// the render fallback is shadowed by exact rules for every node
	var shadowed []string
	for _, d := range bag.Items() {
		if d.Code == diag.DispShadowed {
			shadowed = append(shadowed, d.Where.Method)
		}
	}
	if diff := cmp.Diff([]string{"render"}, shadowed); diff != "" {
		t.Fatalf("shadowed implementations (-want +got):\n%s", diff)
	}
}

func TestMethodLookup(t *testing.T) {
	c := NewCatalog()
	m, ok := c.Method("common-type")
	if !ok || m.Arity() != 2 {
		t.Fatalf("common-type lookup failed")
	}
	if _, ok := c.Method("missing"); ok {
		t.Fatalf("unexpected method")
	}
	mat := m.Matrix()
	if len(mat.Cells) != 16 {
		t.Fatalf("common-type matrix has %d cells, want 16", len(mat.Cells))
	}
}

func TestCatalogTableInvariants(t *testing.T) {
	for _, storage := range []dispatch.Storage{dispatch.StorageDense, dispatch.StorageSparse} {
		c := NewCatalog(dispatch.WithStorage(storage))
		for _, m := range c.Methods() {
			if err := testkit.CheckTableInvariants(m); err != nil {
				t.Fatalf("%s: %v", storage, err)
			}
		}
	}
}
