package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// DType is an element type. Order is promotion order.
type DType uint8

const (
	Bool DType = iota
	I32
	I64
	F16
	F32
	F64
)

func (d DType) String() string {
	switch d {
	case Bool:
		return "bool"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F16:
		return "f16"
	case F32:
		return "f32"
	case F64:
		return "f64"
	}
	return fmt.Sprintf("DType(%d)", d)
}

// ParseDType converts a dtype name.
func ParseDType(s string) (DType, error) {
	for d := Bool; d <= F64; d++ {
		if d.String() == s {
			return d, nil
		}
	}
	return Bool, fmt.Errorf("unknown dtype %q", s)
}

// Promote returns the wider of two dtypes.
func Promote(a, b DType) DType {
	return max(a, b)
}

// Type is the capability every concrete type of the tensor language has.
type Type interface {
	String() string
	typeNode()
}

// Unit is the type of statements.
type Unit struct{}

// Scalar is a rank-0 value.
type Scalar struct{ DType DType }

// Tensor is a dense tensor with a static shape.
type Tensor struct {
	DType DType
	Shape []int
}

// Index is the type of an index variable ranging over [0, Extent).
type Index struct{ Extent int }

func (Unit) typeNode()   {}
func (Scalar) typeNode() {}
func (Tensor) typeNode() {}
func (Index) typeNode()  {}

func (Unit) String() string     { return "unit" }
func (s Scalar) String() string { return s.DType.String() }
func (i Index) String() string  { return "index<" + strconv.Itoa(i.Extent) + ">" }

func (t Tensor) String() string {
	dims := make([]string, len(t.Shape))
	for i, d := range t.Shape {
		dims[i] = strconv.Itoa(d)
	}
	return t.DType.String() + "[" + strings.Join(dims, ",") + "]"
}

// Rank returns the number of dimensions.
func (t Tensor) Rank() int { return len(t.Shape) }
