package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"tensorc/internal/prof"
)

// setupProfiling starts the profilers named by the persistent flags. The
// cleanup is safe to call more than once.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()
	var s prof.Session
	var err error
	if s.CPUPath, err = root.PersistentFlags().GetString("cpu-profile"); err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if s.MemPath, err = root.PersistentFlags().GetString("mem-profile"); err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if s.TracePath, err = root.PersistentFlags().GetString("runtime-trace"); err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	if err := s.Start(); err != nil {
		return nil, fmt.Errorf("failed to start profiling: %w", err)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := s.Stop(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "profiling: %v\n", err)
			}
		})
	}, nil
}
