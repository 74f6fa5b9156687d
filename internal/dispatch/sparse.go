package dispatch

import "slices"

type sparseEntry[P, R any] struct {
	key  Key
	cell cell[P, R]
}

// sparseStore keeps populated cells sorted by key and binary-searches them.
type sparseStore[P, R any] struct {
	entries []sparseEntry[P, R]
}

type sparseBuilder[P, R any] struct {
	rows [][]sparseEntry[P, R]
}

func newSparseBuilder[P, R any](shape []int) *sparseBuilder[P, R] {
	rows := 0
	if len(shape) > 0 {
		rows = shape[0]
	}
	return &sparseBuilder[P, R]{rows: make([][]sparseEntry[P, R], rows)}
}

func (b *sparseBuilder[P, R]) put(row int, k Key, c cell[P, R]) {
	if !c.present() {
		return
	}
	// each row slice is owned by one builder goroutine
	b.rows[row] = append(b.rows[row], sparseEntry[P, R]{key: slices.Clone(k), cell: c})
}

func (b *sparseBuilder[P, R]) finish() cellStore[P, R] {
	n := 0
	for _, r := range b.rows {
		n += len(r)
	}
	entries := make([]sparseEntry[P, R], 0, n)
	for _, r := range b.rows {
		entries = append(entries, r...)
	}
	return &sparseStore[P, R]{entries: entries}
}

func (s *sparseStore[P, R]) get(k Key) (*cell[P, R], bool) {
	i, found := slices.BinarySearchFunc(s.entries, k, func(e sparseEntry[P, R], k Key) int {
		return e.key.Compare(k)
	})
	if !found {
		return nil, false
	}
	return &s.entries[i].cell, true
}

func (s *sparseStore[P, R]) populated() int { return len(s.entries) }
func (s *sparseStore[P, R]) kind() Storage  { return StorageSparse }
