package dispatch

import (
	"fmt"

	"tensorc/internal/diag"
	"tensorc/internal/trace"
)

// Audit inspects the up-to-date table and reports:
//   - ambiguous cells (error),
//   - combinations no implementation covers (warning),
//   - positions without concrete types (warning),
//   - implementations that never win a cell (info),
//   - exact declarations of types not registered yet (info).
func (m *Method[P, R]) Audit(r diag.Reporter) {
	span := trace.Begin(m.table.tracer, trace.ScopeMethod, "audit:"+m.name, 0)
	s := m.table.current()
	method := diag.Where{Method: m.name}
	findings := 0

	for i, ts := range s.types {
		if len(ts) == 0 {
			diag.ReportWarning(r, diag.RegEmptyHierarchy, method,
				fmt.Sprintf("position %d (%s) has no concrete types", i, m.positions[i].Registry.Name())).Emit()
			findings++
		}
	}

	for _, impl := range s.impls {
		for i, p := range impl.Sig {
			if p.Generic {
				continue
			}
			if _, ok := m.positions[i].Registry.Lookup(p.Type); !ok {
				diag.ReportInfo(r, diag.DispUnknownType, method,
					fmt.Sprintf("%s declares %s at position %d, which is not registered yet", impl.Name, p, i)).Emit()
				findings++
			}
		}
	}

	wins := make([]bool, len(s.impls))
	key := make(Key, len(s.shape))
	walkKeys(s.shape, 0, key, func(k Key) {
		where := diag.Where{Method: m.name, Key: comboNames(s.combo(k))}
		c, ok := s.store.get(k)
		switch {
		case !ok:
			diag.ReportWarning(r, diag.DispUncovered, where, "no implementation applies").Emit()
			findings++
		case c.winner < 0:
			b := diag.ReportError(r, diag.DispAmbiguous, where,
				fmt.Sprintf("%d implementations tie", len(c.tied)))
			for _, idx := range c.tied {
				b.WithNote("candidate " + s.impls[idx].Name + s.impls[idx].Sig.String())
			}
			b.Emit()
			findings++
		default:
			wins[c.winner] = true
		}
	})

	if s.cells() > 0 {
		for i, impl := range s.impls {
			if !wins[i] {
				diag.ReportInfo(r, diag.DispShadowed, method,
					fmt.Sprintf("%s%s is never selected", impl.Name, impl.Sig)).Emit()
				findings++
			}
		}
	}

	span.WithExtra("findings", fmt.Sprint(findings)).End("")
}
