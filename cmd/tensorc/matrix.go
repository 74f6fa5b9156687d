package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tensorc/internal/dispatch"
	"tensorc/internal/report"
)

var matrixCmd = &cobra.Command{
	Use:   "matrix [method...]",
	Short: "Print the resolution matrix of catalog methods",
	Long:  `matrix resolves every combination of registered types and shows the winning implementation, ties and gaps`,
	RunE:  runMatrix,
}

func init() {
	matrixCmd.Flags().String("format", "pretty", "output format (pretty|json|msgpack)")
	matrixCmd.Flags().StringP("out", "o", "", "write to file instead of stdout")
	matrixCmd.Flags().Int("cell-width", 24, "truncate pretty cells to this width")
}

func runMatrix(cmd *cobra.Command, args []string) error {
	formatFlag, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	width, err := cmd.Flags().GetInt("cell-width")
	if err != nil {
		return fmt.Errorf("failed to get cell-width flag: %w", err)
	}
	if format == report.FormatMsgpack && outPath == "" && isTerminal(os.Stdout) {
		return fmt.Errorf("refusing to write msgpack to a terminal; use --out")
	}

	s, err := startSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()
	cat, err := s.catalog(cmd)
	if err != nil {
		return err
	}

	methods := cat.Methods()
	if len(args) > 0 {
		methods = methods[:0:0]
		for _, name := range args {
			m, ok := cat.Method(name)
			if !ok {
				return fmt.Errorf("unknown method %q", name)
			}
			methods = append(methods, m)
		}
	}

	var rep report.Report
	_ = s.timer.Time("resolve", func() (string, error) {
		rep = report.Collect(methods...)
		return fmt.Sprintf("%d matrices", len(rep.Matrices)), nil
	})

	var out io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	opts := report.Options{Color: s.useColor && outPath == "", CellWidth: width}
	return s.timer.Time("write", func() (string, error) {
		return formatFlag, report.Write(out, rep, format, opts)
	})
}

// methodNames lists catalog method names for completion and error messages.
func methodNames(methods []dispatch.Inspector) []string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name()
	}
	return names
}
