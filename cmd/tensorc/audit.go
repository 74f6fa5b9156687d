package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tensorc/internal/diag"
	"tensorc/internal/diagfmt"
	"tensorc/internal/version"
)

var errAuditFailed = errors.New("audit found errors")

var auditCmd = &cobra.Command{
	Use:   "audit [method...]",
	Short: "Check catalog methods for ambiguous, uncovered and shadowed cells",
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().Int("max-diagnostics", 100, "maximum number of diagnostics to collect")
	auditCmd.Flags().Bool("no-info", false, "hide informational findings")
	auditCmd.Flags().String("format", "pretty", "output format (pretty|json|sarif)")
}

func runAudit(cmd *cobra.Command, args []string) error {
	maxDiagnostics, err := cmd.Flags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	noInfo, err := cmd.Flags().GetBool("no-info")
	if err != nil {
		return fmt.Errorf("failed to get no-info flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "json", "sarif":
	default:
		return fmt.Errorf("unsupported format %q (must be pretty, json or sarif)", format)
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

	bag := diag.NewBag(maxDiagnostics)
	var r diag.Reporter = diag.BagReporter{Bag: bag}
	r = diag.NewDedupReporter(r)
	idx := s.timer.Begin("audit")
	for _, m := range methods {
		m.Audit(r)
	}
	bag.Sort()
	s.timer.End(idx, fmt.Sprintf("%d findings", bag.Len()))

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = diagfmt.JSON(out, bag, diagfmt.JSONOpts{IncludeNotes: true})
	case "sarif":
		err = diagfmt.Sarif(out, bag, diagfmt.SarifRunMeta{
			ToolName:       "tensorc",
			ToolVersion:    version.String(),
			InvocationArgs: append([]string{"audit"}, args...),
		})
	default:
		err = diagfmt.Pretty(out, bag, diagfmt.PrettyOpts{Color: s.useColor, ShowNotes: true, ShowInfo: !noInfo})
	}
	if err != nil {
		return err
	}
	if bag.HasErrors() {
		return errAuditFailed
	}
	return nil
}
