package dispatch

import (
	"fmt"
	"reflect"
	"strings"

	"tensorc/internal/typereg"
)

// Param is the declared matching type of one dispatch position: either one
// exact concrete type or the position's generic capability.
type Param struct {
	Generic bool
	Type    reflect.Type // nil when Generic
}

// GenericParam matches any concrete type at its position.
var GenericParam = Param{Generic: true}

// Exact declares a concrete type by identity.
func Exact(t reflect.Type) Param {
	return Param{Type: t}
}

// ExactOf declares T as the exact concrete type.
func ExactOf[T any]() Param {
	return Param{Type: reflect.TypeFor[T]()}
}

func (p Param) String() string {
	if p.Generic {
		return "*"
	}
	if p.Type.Name() != "" {
		return p.Type.Name()
	}
	return p.Type.String()
}

// Signature is the declared parameter list of one implementation.
type Signature []Param

func (s Signature) String() string {
	parts := make([]string, len(s))
	for i, p := range s {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

const (
	distanceExact   = 0
	distanceGeneric = 1
)

// distance scores sig against one concrete combination. ok is false when a
// position declares a different concrete type.
func distance(sig Signature, combo []typereg.Entry) (int, bool) {
	total := 0
	for i, p := range sig {
		switch {
		case p.Generic:
			total += distanceGeneric
		case p.Type == combo[i].Type:
			total += distanceExact
		default:
			return 0, false
		}
	}
	return total, true
}

// Candidate is one applicable implementation and its distance.
type Candidate struct {
	Index    int
	Distance int
}

// Resolution is the outcome for one concrete combination.
type Resolution struct {
	// Winner is the index of the unique most specific implementation, or -1.
	Winner int
	// Tied lists the implementations sharing the minimal distance when
	// there is more than one of them.
	Tied []int
	// Distance is the minimal distance, meaningful when Winner >= 0 or Tied != nil.
	Distance int
	// Ranked holds every applicable implementation, most specific first.
	Ranked []Candidate
}

// Absent reports that no implementation applies.
func (r Resolution) Absent() bool { return r.Winner < 0 && len(r.Tied) == 0 }

// Ambiguous reports a tie at the minimal distance.
func (r Resolution) Ambiguous() bool { return len(r.Tied) > 1 }

// Resolve picks the most specific signature for combo. Signatures are
// scanned in registration order, so ties and rankings are deterministic.
func Resolve(combo []typereg.Entry, sigs []Signature) Resolution {
	res := resolveMin(combo, sigs)
	for i, sig := range sigs {
		if len(sig) != len(combo) {
			continue
		}
		if d, ok := distance(sig, combo); ok {
			res.Ranked = append(res.Ranked, Candidate{Index: i, Distance: d})
		}
	}
	// stable insertion sort by distance; rankings are short
	for i := 1; i < len(res.Ranked); i++ {
		for j := i; j > 0 && res.Ranked[j].Distance < res.Ranked[j-1].Distance; j-- {
			res.Ranked[j], res.Ranked[j-1] = res.Ranked[j-1], res.Ranked[j]
		}
	}
	return res
}

// resolveMin is the table-build path: no ranking, one pass.
func resolveMin(combo []typereg.Entry, sigs []Signature) Resolution {
	res := Resolution{Winner: -1}
	best := -1
	for i, sig := range sigs {
		if len(sig) != len(combo) {
			continue
		}
		d, ok := distance(sig, combo)
		if !ok {
			continue
		}
		switch {
		case best < 0 || d < best:
			best = d
			res.Winner = i
			res.Tied = res.Tied[:0]
		case d == best:
			if len(res.Tied) == 0 {
				res.Tied = append(res.Tied, res.Winner)
			}
			res.Tied = append(res.Tied, i)
		}
	}
	if len(res.Tied) > 1 {
		res.Winner = -1
	} else {
		res.Tied = nil
	}
	if best >= 0 {
		res.Distance = best
	}
	return res
}

func comboNames(combo []typereg.Entry) []string {
	names := make([]string, len(combo))
	for i, e := range combo {
		names[i] = e.Name()
	}
	return names
}

func (c Candidate) String() string {
	return fmt.Sprintf("#%d@%d", c.Index, c.Distance)
}
