package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"elnino/internal/fixpoint"
	"elnino/internal/records"
	"elnino/internal/ui"
)

type loadOutcome struct {
	result *fixpoint.Result
	err    error
}

// runFixpointWithUI runs the scheduler in the background while the progress
// view consumes its events.
func runFixpointWithUI(ctx context.Context, title string, stream *records.Stream, opts fixpoint.Options) (*fixpoint.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := make(chan fixpoint.Event, 256)
	outcomeCh := make(chan loadOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = fixpoint.ChannelSink{Ch: events}
		res, err := fixpoint.Run(ctx, stream, optsCopy)
		outcomeCh <- loadOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// the view may quit early (ctrl+c); stop the run and drain what is left
	cancel()
	for range events {
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
