package testkit

import (
	"testing"

	"tensorc/internal/dispatch"
	"tensorc/internal/typereg"
)

type shape interface{ area() int }

type square struct{ side int }
type circle struct{ r int }

func (s square) area() int { return s.side * s.side }
func (c circle) area() int { return 3 * c.r * c.r }

func TestCheckTableInvariants(t *testing.T) {
	reg := typereg.New("shapes")
	typereg.Define[square](reg)
	typereg.Define[circle](reg)

	m := dispatch.New[struct{}, string]("collide", []dispatch.Position{dispatch.On[shape](reg), dispatch.On[shape](reg)})
	dispatch.Def2(m, "sq-any", func(struct{}, square, shape) (string, error) { return "a", nil })
	dispatch.Def2(m, "any-ci", func(struct{}, shape, circle) (string, error) { return "b", nil })
	// (square, circle) ties, (circle, square) is uncovered

	if err := CheckTableInvariants(m); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	m.Table().MarkOutdated()
	if err := CheckTableInvariants(m); err != nil {
		t.Fatalf("invariants after rebuild: %v", err)
	}
}
