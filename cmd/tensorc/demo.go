package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tensorc/internal/dispatch"
	"tensorc/internal/report"
	"tensorc/internal/tensor"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Type-check a set of sample tensor expressions",
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().Bool("stats", false, "print dispatch table statistics afterwards")
}

func demoEnv() *tensor.Env {
	return tensor.NewEnv().
		Bind("A", tensor.Tensor{DType: tensor.F32, Shape: []int{4, 8}}).
		Bind("B", tensor.Tensor{DType: tensor.F32, Shape: []int{8, 2}}).
		Bind("bias", tensor.Tensor{DType: tensor.F16, Shape: []int{1, 2}}).
		Bind("alpha", tensor.Scalar{DType: tensor.F64}).
		Bind("i", tensor.Index{Extent: 4}).
		Bind("k", tensor.Index{Extent: 8}).
		Bind("j", tensor.Index{Extent: 2})
}

func demoExprs() []tensor.Expr {
	aik := tensor.Access{Tensor: "A", Indices: []string{"i", "k"}}
	bkj := tensor.Access{Tensor: "B", Indices: []string{"k", "j"}}
	return []tensor.Expr{
		tensor.Binary{Op: tensor.OpMatMul, L: tensor.Var{Name: "A"}, R: tensor.Var{Name: "B"}},
		tensor.Sum{Index: "k", Body: tensor.Binary{Op: tensor.OpMul, L: aik, R: bkj}},
		tensor.Binary{Op: tensor.OpAdd,
			L: tensor.Binary{Op: tensor.OpMatMul, L: tensor.Var{Name: "A"}, R: tensor.Var{Name: "B"}},
			R: tensor.Var{Name: "bias"}},
		tensor.Binary{Op: tensor.OpMul, L: tensor.Var{Name: "alpha"}, R: tensor.Var{Name: "A"}},
		tensor.Binary{Op: tensor.OpLess, L: tensor.Var{Name: "A"}, R: tensor.Literal{Value: 0, DType: tensor.F32}},
		tensor.Binary{Op: tensor.OpMatMul, L: tensor.Var{Name: "B"}, R: tensor.Var{Name: "B"}},
		tensor.Access{Tensor: "A", Indices: []string{"k", "i"}},
		tensor.Sum{Index: "alpha", Body: tensor.Literal{Value: 1, DType: tensor.I32}},
	}
}

func runDemo(cmd *cobra.Command, _ []string) error {
	s, err := startSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	cat, err := s.catalog(cmd)
	if err != nil {
		return err
	}
	showStats, err := cmd.Flags().GetBool("stats")
	if err != nil {
		return fmt.Errorf("failed to get stats flag: %w", err)
	}

	out := cmd.OutOrStdout()
	env := demoEnv()
	idx := s.timer.Begin("check")
	var failed int
	for _, e := range demoExprs() {
		if !printCheck(out, cat, env, e) {
			failed++
		}
	}
	s.timer.End(idx, fmt.Sprintf("%d failed", failed))

	if showStats {
		var stats []dispatch.Stats
		for _, m := range cat.Methods() {
			stats = append(stats, m.Stats())
		}
		fmt.Fprintln(out)
		return report.WriteStats(out, stats)
	}
	return nil
}

// printCheck prints one line per expression and reports whether it typed.
func printCheck(out io.Writer, cat *tensor.Catalog, env *tensor.Env, e tensor.Expr) bool {
	text, err := cat.Print(e)
	if err != nil {
		text = fmt.Sprintf("<unprintable: %v>", err)
	}
	t, err := cat.Infer(env, e)
	if err != nil {
		fmt.Fprintf(out, "%-36s  error: %v\n", text, err)
		return false
	}
	fmt.Fprintf(out, "%-36s  : %s\n", text, t)
	return true
}
