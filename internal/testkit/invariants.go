package testkit

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"

	"tensorc/internal/dispatch"
)

// CheckTableInvariants cross-checks a method's resolution matrix:
// 1) the cell count is the product of the per-position type counts
// 2) keys are dense tags in ascending lexicographic order
// 3) every resolved winner and tied candidate is a known implementation,
//    and ambiguous cells name at least two candidates
// 4) resolving each cell afresh via Explain agrees with the table
func CheckTableInvariants(m dispatch.Inspector) error {
	mat := m.Matrix()
	if len(mat.Positions) != m.Arity() {
		return fmt.Errorf("%s: %d positions, arity %d", mat.Method, len(mat.Positions), m.Arity())
	}

	// 1) cross product size
	want := 1
	for _, ts := range mat.Positions {
		want *= len(ts)
	}
	if len(mat.Cells) != want {
		return fmt.Errorf("%s: %d cells, want %d", mat.Method, len(mat.Cells), want)
	}

	// 2) keys
	for i, c := range mat.Cells {
		if len(c.Key) != m.Arity() {
			return fmt.Errorf("%s: cell %d has key length %d", mat.Method, i, len(c.Key))
		}
		for p, tag := range c.Key {
			n, err := safecast.Conv[uint32](len(mat.Positions[p]))
			if err != nil {
				return fmt.Errorf("position size overflow: %w", err)
			}
			if tag >= n {
				return fmt.Errorf("%s: cell %d tag %d out of range at position %d", mat.Method, i, tag, p)
			}
		}
		if i > 0 && slices.Compare(mat.Cells[i-1].Key, c.Key) >= 0 {
			return fmt.Errorf("%s: cells %d and %d out of order", mat.Method, i-1, i)
		}
	}

	// 3) names
	known := make(map[string]bool, len(mat.Implementations))
	for _, sig := range mat.Implementations {
		known[sig[:strings.IndexByte(sig, '(')]] = true
	}
	for _, c := range mat.Cells {
		switch c.Status {
		case dispatch.CellResolved:
			if !known[c.Winner] {
				return fmt.Errorf("%s%v: unknown winner %q", mat.Method, c.Types, c.Winner)
			}
		case dispatch.CellAmbiguous:
			if len(c.Tied) < 2 {
				return fmt.Errorf("%s%v: ambiguous cell with %d candidates", mat.Method, c.Types, len(c.Tied))
			}
			for _, name := range c.Tied {
				if !known[name] {
					return fmt.Errorf("%s%v: unknown candidate %q", mat.Method, c.Types, name)
				}
			}
		}
	}

	// 4) agreement with fresh resolution
	for _, c := range mat.Cells {
		ex, err := m.Explain(c.Types...)
		if err != nil {
			return fmt.Errorf("%s%v: %w", mat.Method, c.Types, err)
		}
		if ex.Outcome != c.Status {
			return fmt.Errorf("%s%v: table says %s, resolution says %s", mat.Method, c.Types, c.Status, ex.Outcome)
		}
		if c.Status == dispatch.CellResolved && (len(ex.Candidates) == 0 || ex.Candidates[0].Name != c.Winner) {
			return fmt.Errorf("%s%v: table winner %q disagrees with resolution", mat.Method, c.Types, c.Winner)
		}
	}
	return nil
}
