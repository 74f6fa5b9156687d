package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tensorc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "tensorc",
	Short:         "Tensor expression checker built on multiple dispatch",
	Long:          `tensorc types and renders tensor expressions through multi-methods and inspects their dispatch tables`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.Version = version.String()

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(matrixCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("timings", false, "show timing information")
	flags.String("storage", "dense", "dispatch table storage (dense|sparse)")
	flags.Int("parallel", 0, "workers for large table builds (0 = serial)")

	flags.String("trace", "", "trace output path (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|driver|table|debug)")
	flags.String("trace-mode", "stream", "trace storage mode (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "events kept in ring mode")
	flags.Duration("trace-heartbeat", 0, "emit a heartbeat event at this interval")

	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
