package dispatch

import (
	"fmt"
	"strings"
)

// Storage selects how a dispatch table lays out its cells.
type Storage uint8

const (
	// StorageDense is a flat row-major array over the full cross product.
	// O(1) lookup, memory proportional to the cross product.
	StorageDense Storage = iota
	// StorageSparse keeps only populated cells in key order.
	// O(log n) lookup, memory proportional to populated cells.
	StorageSparse
)

func (s Storage) String() string {
	switch s {
	case StorageDense:
		return "dense"
	case StorageSparse:
		return "sparse"
	default:
		return fmt.Sprintf("Storage(%d)", s)
	}
}

// ParseStorage converts a flag or config value to Storage.
func ParseStorage(s string) (Storage, error) {
	switch strings.ToLower(s) {
	case "dense", "":
		return StorageDense, nil
	case "sparse":
		return StorageSparse, nil
	default:
		return StorageDense, fmt.Errorf("invalid storage %q (expected: dense|sparse)", s)
	}
}

// cell is one resolved combination.
type cell[P, R any] struct {
	fn     Func[P, R]
	winner int   // implementation index, -1 for ambiguous cells
	tied   []int // implementation indices when ambiguous
}

func (c *cell[P, R]) present() bool { return c.fn != nil }

// cellStore is the storage contract shared by the dense and sparse layouts.
// A store is immutable once its table snapshot is published.
type cellStore[P, R any] interface {
	// get returns the cell for a key already checked against the shape.
	get(k Key) (*cell[P, R], bool)
	populated() int
	kind() Storage
}

// storeBuilder receives resolved rows. Rows are indexed by the tag at
// position 0 and may be filled concurrently; cells within a row arrive in
// key order.
type storeBuilder[P, R any] interface {
	put(row int, k Key, c cell[P, R])
	finish() cellStore[P, R]
}

func newStoreBuilder[P, R any](s Storage, shape []int) storeBuilder[P, R] {
	if s == StorageSparse {
		return newSparseBuilder[P, R](shape)
	}
	return newDenseBuilder[P, R](shape)
}
