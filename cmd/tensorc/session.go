package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tensorc/internal/dispatch"
	"tensorc/internal/observ"
	"tensorc/internal/tensor"
	"tensorc/internal/trace"
)

// session carries what every command sets up from the persistent flags.
type session struct {
	ctx      context.Context
	timer    *observ.Timer
	timings  bool
	useColor bool
	span     *trace.Span
	cleanups []func()
}

func startSession(cmd *cobra.Command) (*session, error) {
	flags := cmd.Root().PersistentFlags()
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch colorFlag {
	case "auto", "on", "off":
	default:
		return nil, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	s := &session{
		timer:    observ.NewTimer(),
		timings:  timings,
		useColor: colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout)),
	}

	stopProf, err := setupProfiling(cmd)
	if err != nil {
		return nil, err
	}
	s.cleanups = append(s.cleanups, stopProf)
	stopTrace, err := setupTracing(cmd)
	if err != nil {
		s.close()
		return nil, err
	}
	s.cleanups = append(s.cleanups, stopTrace)
	s.ctx = cmd.Context()
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	s.ctx, s.span = trace.Start(s.ctx, trace.ScopeDriver, "cmd:"+cmd.Name())
	return s, nil
}

// close runs cleanups in reverse order and prints timings when requested.
func (s *session) close() {
	if s.span != nil {
		s.span.End("")
		s.span = nil
	}
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
	if s.timings && s.timer != nil {
		fmt.Fprint(os.Stderr, s.timer.Summary())
	}
}

// catalog builds the tensor catalog configured by the persistent flags.
func (s *session) catalog(cmd *cobra.Command) (*tensor.Catalog, error) {
	flags := cmd.Root().PersistentFlags()
	storageFlag, err := flags.GetString("storage")
	if err != nil {
		return nil, fmt.Errorf("failed to get storage flag: %w", err)
	}
	storage, err := dispatch.ParseStorage(storageFlag)
	if err != nil {
		return nil, err
	}
	parallel, err := flags.GetInt("parallel")
	if err != nil {
		return nil, fmt.Errorf("failed to get parallel flag: %w", err)
	}
	var cat *tensor.Catalog
	idx := s.timer.Begin("catalog")
	cat = tensor.NewCatalog(
		dispatch.WithStorage(storage),
		dispatch.WithParallelBuild(parallel),
		dispatch.WithTracer(trace.FromContext(s.ctx)),
	)
	s.timer.End(idx, fmt.Sprintf("%d methods", len(cat.Methods())))
	return cat, nil
}
