package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tensorc/internal/trace"
)

// readTraceConfig turns the persistent --trace* flags into a tracer config.
// A bare --trace path implies driver-level events.
func readTraceConfig(flags *pflag.FlagSet) (trace.Config, error) {
	var (
		cfg   trace.Config
		level string
		mode  string
		err   error
	)
	get := func(name string, fn func(string) error) {
		if err == nil {
			if e := fn(name); e != nil {
				err = fmt.Errorf("failed to get %s flag: %w", name, e)
			}
		}
	}
	get("trace", func(n string) (e error) { cfg.OutputPath, e = flags.GetString(n); return })
	get("trace-level", func(n string) (e error) { level, e = flags.GetString(n); return })
	get("trace-mode", func(n string) (e error) { mode, e = flags.GetString(n); return })
	get("trace-ring-size", func(n string) (e error) { cfg.RingSize, e = flags.GetInt(n); return })
	get("trace-heartbeat", func(n string) (e error) { cfg.Heartbeat, e = flags.GetDuration(n); return })
	if err != nil {
		return cfg, err
	}

	if cfg.Level, err = trace.ParseLevel(level); err != nil {
		return cfg, fmt.Errorf("invalid trace level: %w", err)
	}
	if cfg.Level == trace.LevelOff && cfg.OutputPath != "" {
		cfg.Level = trace.LevelDriver
	}
	if cfg.Mode, err = trace.ParseMode(mode); err != nil {
		return cfg, fmt.Errorf("invalid trace mode: %w", err)
	}
	return cfg, nil
}

// setupTracing attaches the configured tracer to the command context.
// The returned cleanup stops the heartbeat, then flushes and closes.
func setupTracing(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()
	cfg, err := readTraceConfig(root.PersistentFlags())
	if err != nil {
		return nil, err
	}
	if cfg.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	root.SetContext(ctx)

	var hb *trace.Heartbeat
	if cfg.Heartbeat > 0 {
		hb = trace.StartHeartbeat(tracer, cfg.Heartbeat)
	}
	errOut := cmd.ErrOrStderr()
	return func() {
		if hb != nil {
			hb.Stop()
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(errOut, "trace: flush: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(errOut, "trace: close: %v\n", err)
		}
	}, nil
}
