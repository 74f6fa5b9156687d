package tensor

// BinOp is a binary operator of the expression language.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpLess
	OpEq
	OpMatMul
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpLess:
		return "<"
	case OpEq:
		return "=="
	case OpMatMul:
		return "@"
	}
	return "?"
}

// Comparison reports whether op yields bool.
func (op BinOp) Comparison() bool { return op == OpLess || op == OpEq }

// Expr is the capability of every expression node.
type Expr interface {
	exprNode()
}

// Literal is a numeric constant.
type Literal struct {
	Value float64
	DType DType
}

// Var references a tensor, scalar or index bound in the environment.
type Var struct{ Name string }

// Access indexes a tensor variable: A[i, j].
type Access struct {
	Tensor  string
	Indices []string
}

// Binary applies Op to two operands.
type Binary struct {
	Op   BinOp
	L, R Expr
}

// Sum reduces Body over an index variable.
type Sum struct {
	Index string
	Body  Expr
}

func (Literal) exprNode() {}
func (Var) exprNode()     {}
func (Access) exprNode()  {}
func (Binary) exprNode()  {}
func (Sum) exprNode()     {}
