package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"tensorc/internal/bench"
	"tensorc/internal/ui"
)

type benchOutcome struct {
	result bench.Result
	err    error
}

// runBenchWithUI runs sc while a progress view consumes its events.
func runBenchWithUI(ctx context.Context, sc bench.Scenario) (bench.Result, error) {
	events := make(chan bench.Event, 256)
	outcomeCh := make(chan benchOutcome, 1)

	go func() {
		res, err := bench.Run(ctx, sc, bench.WithProgress(bench.ChannelSink{Ch: events}))
		outcomeCh <- benchOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("bench "+sc.Name, sc.Load.Workers, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep the run from blocking on a full channel
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
