package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tensorc/internal/report"
)

var explainCmd = &cobra.Command{
	Use:   "explain <method> <type>...",
	Short: "Rank the implementations applicable to one type combination",
	Example: `  tensorc explain common-type Scalar Tensor
  tensorc explain render Sum`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExplain,
}

func runExplain(cmd *cobra.Command, args []string) error {
	s, err := startSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	cat, err := s.catalog(cmd)
	if err != nil {
		return err
	}
	m, ok := cat.Method(args[0])
	if !ok {
		return fmt.Errorf("unknown method %q (known: %s)", args[0], strings.Join(methodNames(cat.Methods()), ", "))
	}
	ex, err := m.Explain(args[1:]...)
	if err != nil {
		return err
	}
	return report.WriteExplanation(cmd.OutOrStdout(), ex, s.useColor)
}
