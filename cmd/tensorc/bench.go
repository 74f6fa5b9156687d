package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tensorc/internal/bench"
)

var benchCmd = &cobra.Command{
	Use:   "bench [scenario.toml|scenario.yaml]",
	Short: "Stress dispatch tables with concurrent invokes while types are registered",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().String("format", "text", "output format (text|json|yaml)")
	benchCmd.Flags().Int("workers", 0, "override load.workers")
	benchCmd.Flags().Int("invokes", 0, "override load.invokes")
	ui := uiModeAuto
	benchCmd.Flags().Var(&ui, "ui", "live progress view")
}

func runBench(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return fmt.Errorf("failed to get workers flag: %w", err)
	}
	invokes, err := cmd.Flags().GetInt("invokes")
	if err != nil {
		return fmt.Errorf("failed to get invokes flag: %w", err)
	}

	mode := *cmd.Flags().Lookup("ui").Value.(*uiMode)

	sc := bench.Default()
	if len(args) == 1 {
		if sc, err = bench.Load(args[0]); err != nil {
			return err
		}
	}
	if workers > 0 {
		sc.Load.Workers = workers
	}
	if invokes > 0 {
		sc.Load.Invokes = invokes
	}
	if cmd.Root().PersistentFlags().Changed("storage") {
		sc.Dispatch.Storage, _ = cmd.Root().PersistentFlags().GetString("storage")
	}
	if cmd.Root().PersistentFlags().Changed("parallel") {
		sc.Dispatch.Parallel, _ = cmd.Root().PersistentFlags().GetInt("parallel")
	}

	s, err := startSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	var res bench.Result
	err = s.timer.Time("bench", func() (string, error) {
		var err error
		if mode.interactive() && format == "text" {
			res, err = runBenchWithUI(s.ctx, sc)
		} else {
			res, err = bench.Run(s.ctx, sc)
		}
		return sc.Name, err
	})
	if err != nil {
		return err
	}
	return bench.Write(cmd.OutOrStdout(), res, format)
}
