package dispatch

import (
	"fmt"

	"tensorc/internal/diag"
	"tensorc/internal/typereg"
)

// Inspector is the type-erased view of a Method used by tooling that
// handles methods with different argument and result types.
type Inspector interface {
	Name() string
	Arity() int
	Matrix() Matrix
	Explain(names ...string) (Explanation, error)
	Audit(r diag.Reporter)
	Stats() Stats
}

var _ Inspector = (*Method[struct{}, struct{}])(nil)

// CellStatus classifies one matrix cell.
type CellStatus uint8

const (
	CellAbsent CellStatus = iota
	CellResolved
	CellAmbiguous
)

func (s CellStatus) String() string {
	switch s {
	case CellResolved:
		return "resolved"
	case CellAmbiguous:
		return "ambiguous"
	default:
		return "absent"
	}
}

// MatrixCell is one combination of the resolution matrix.
type MatrixCell struct {
	Key    []uint32   `json:"key" msgpack:"key"`
	Types  []string   `json:"types" msgpack:"types"`
	Status CellStatus `json:"status" msgpack:"status"`
	Winner string     `json:"winner,omitempty" msgpack:"winner,omitempty"`
	Tied   []string   `json:"tied,omitempty" msgpack:"tied,omitempty"`
}

// Matrix is the full resolution matrix of a method at one snapshot.
type Matrix struct {
	Method          string       `json:"method" msgpack:"method"`
	Storage         string       `json:"storage" msgpack:"storage"`
	Positions       [][]string   `json:"positions" msgpack:"positions"`
	Implementations []string     `json:"implementations" msgpack:"implementations"`
	Cells           []MatrixCell `json:"cells" msgpack:"cells"`
}

// Stats reports on the method's dispatch table.
func (m *Method[P, R]) Stats() Stats {
	return m.table.Stats()
}

// Matrix brings the table up to date and lists every cell of the cross
// product, absent ones included, in key order.
func (m *Method[P, R]) Matrix() Matrix {
	s := m.table.current()
	out := Matrix{
		Method:    m.name,
		Storage:   s.store.kind().String(),
		Positions: make([][]string, len(s.types)),
	}
	for i, ts := range s.types {
		out.Positions[i] = make([]string, len(ts))
		for j, e := range ts {
			out.Positions[i][j] = e.Name()
		}
	}
	for _, impl := range s.impls {
		out.Implementations = append(out.Implementations, impl.Name+impl.Sig.String())
	}

	key := make(Key, len(s.shape))
	walkKeys(s.shape, 0, key, func(k Key) {
		mc := MatrixCell{
			Key:   make([]uint32, len(k)),
			Types: comboNames(s.combo(k)),
		}
		for i, t := range k {
			mc.Key[i] = uint32(t)
		}
		if c, ok := s.store.get(k); ok {
			if c.winner >= 0 {
				mc.Status = CellResolved
				mc.Winner = s.impls[c.winner].Name
			} else {
				mc.Status = CellAmbiguous
				for _, idx := range c.tied {
					mc.Tied = append(mc.Tied, s.impls[idx].Name)
				}
			}
		}
		out.Cells = append(out.Cells, mc)
	})
	return out
}

// ExplainedCandidate is one applicable implementation in an Explanation.
type ExplainedCandidate struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Distance  int    `json:"distance"`
	Selected  bool   `json:"selected"`
}

// Explanation ranks every applicable implementation for one combination.
type Explanation struct {
	Method     string               `json:"method"`
	Types      []string             `json:"types"`
	Outcome    CellStatus           `json:"outcome"`
	Candidates []ExplainedCandidate `json:"candidates"`
}

// Explain resolves one combination given by concrete type names, one per
// position, against the current implementation set.
func (m *Method[P, R]) Explain(names ...string) (Explanation, error) {
	if len(names) != len(m.positions) {
		return Explanation{}, &ArityError{Method: m.name, Want: len(m.positions), Got: len(names)}
	}
	combo := make([]typereg.Entry, len(names))
	for i, name := range names {
		e, ok := m.positions[i].Registry.ByName(name)
		if !ok {
			return Explanation{}, fmt.Errorf("%s: position %d: type %q is not registered in %s",
				m.name, i, name, m.positions[i].Registry.Name())
		}
		combo[i] = e
	}
	return m.explain(combo), nil
}

func (m *Method[P, R]) explain(combo []typereg.Entry) Explanation {
	impls := m.Implementations()
	sigs := make([]Signature, len(impls))
	for i, impl := range impls {
		sigs[i] = impl.Sig
	}
	res := Resolve(combo, sigs)
	out := Explanation{Method: m.name, Types: comboNames(combo)}
	switch {
	case res.Ambiguous():
		out.Outcome = CellAmbiguous
	case res.Winner >= 0:
		out.Outcome = CellResolved
	}
	for _, c := range res.Ranked {
		out.Candidates = append(out.Candidates, ExplainedCandidate{
			Name:      impls[c.Index].Name,
			Signature: impls[c.Index].Sig.String(),
			Distance:  c.Distance,
			Selected:  c.Index == res.Winner,
		})
	}
	return out
}
