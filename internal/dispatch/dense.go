package dispatch

// denseStore indexes cells directly by key with row-major strides.
type denseStore[P, R any] struct {
	cells   []cell[P, R]
	strides []int
	filled  int
}

func newDenseBuilder[P, R any](shape []int) *denseStore[P, R] {
	strides := make([]int, len(shape))
	size := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = size
		size *= shape[i]
	}
	return &denseStore[P, R]{
		cells:   make([]cell[P, R], size),
		strides: strides,
	}
}

func (d *denseStore[P, R]) offset(k Key) int {
	off := 0
	for i, t := range k {
		off += int(t) * d.strides[i]
	}
	return off
}

// put writes into a disjoint slot; concurrent rows never share an offset.
func (d *denseStore[P, R]) put(_ int, k Key, c cell[P, R]) {
	d.cells[d.offset(k)] = c
}

func (d *denseStore[P, R]) finish() cellStore[P, R] {
	d.filled = 0
	for i := range d.cells {
		if d.cells[i].present() {
			d.filled++
		}
	}
	return d
}

func (d *denseStore[P, R]) get(k Key) (*cell[P, R], bool) {
	c := &d.cells[d.offset(k)]
	return c, c.present()
}

func (d *denseStore[P, R]) populated() int { return d.filled }
func (d *denseStore[P, R]) kind() Storage  { return StorageDense }
