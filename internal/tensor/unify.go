package tensor

import (
	"errors"
	"fmt"

	"tensorc/internal/dispatch"
)

var (
	ErrNoCommonType   = errors.New("no common type")
	ErrShapeMismatch  = errors.New("shape mismatch")
	ErrExtentMismatch = errors.New("index extent mismatch")
)

func (c *Catalog) installUnify() {
	m := c.CommonType

	dispatch.Def2(m, "scalar-scalar", func(_ struct{}, a, b Scalar) (Type, error) {
		return Scalar{DType: Promote(a.DType, b.DType)}, nil
	})
	dispatch.Def2(m, "scalar-tensor", func(_ struct{}, a Scalar, b Tensor) (Type, error) {
		return Tensor{DType: Promote(a.DType, b.DType), Shape: b.Shape}, nil
	})
	dispatch.Def2(m, "tensor-scalar", func(_ struct{}, a Tensor, b Scalar) (Type, error) {
		return Tensor{DType: Promote(a.DType, b.DType), Shape: a.Shape}, nil
	})
	dispatch.Def2(m, "tensor-tensor", func(_ struct{}, a, b Tensor) (Type, error) {
		shape, err := broadcast(a.Shape, b.Shape)
		if err != nil {
			return nil, fmt.Errorf("%s and %s: %w", a, b, err)
		}
		return Tensor{DType: Promote(a.DType, b.DType), Shape: shape}, nil
	})
	dispatch.Def2(m, "index-index", func(_ struct{}, a, b Index) (Type, error) {
		if a.Extent != b.Extent {
			return nil, fmt.Errorf("%s and %s: %w", a, b, ErrExtentMismatch)
		}
		return a, nil
	})
	dispatch.Def2(m, "index-scalar", func(_ struct{}, _ Index, b Scalar) (Type, error) {
		return Scalar{DType: Promote(I64, b.DType)}, nil
	})
	dispatch.Def2(m, "scalar-index", func(_ struct{}, a Scalar, _ Index) (Type, error) {
		return Scalar{DType: Promote(a.DType, I64)}, nil
	})
	dispatch.Def2(m, "unit-unit", func(struct{}, Unit, Unit) (Type, error) {
		return Unit{}, nil
	})
	dispatch.Def2(m, "no-common", func(_ struct{}, a, b Type) (Type, error) {
		return nil, fmt.Errorf("%s and %s: %w", a, b, ErrNoCommonType)
	})
}

// broadcast aligns shapes of equal rank; a dimension of 1 stretches.
func broadcast(a, b []int) ([]int, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("rank %d vs %d: %w", len(a), len(b), ErrShapeMismatch)
	}
	out := make([]int, len(a))
	for i := range a {
		switch {
		case a[i] == b[i], b[i] == 1:
			out[i] = a[i]
		case a[i] == 1:
			out[i] = b[i]
		default:
			return nil, fmt.Errorf("dim %d: %d vs %d: %w", i, a[i], b[i], ErrShapeMismatch)
		}
	}
	return out, nil
}
