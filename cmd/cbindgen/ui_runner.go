package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/defermelowie/cbindgen/internal/config"
	"github.com/defermelowie/cbindgen/internal/driver"
	"github.com/defermelowie/cbindgen/internal/ui"
)

type generateOutcome struct {
	result *driver.Result
	err    error
}

func runGenerateWithUI(ctx context.Context, title string, crates []string, conf config.Config, opts driver.Options) (*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan generateOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Sink = driver.ChannelSink{Ch: events}
		res, err := driver.Generate(ctx, conf, optsCopy)
		outcomeCh <- generateOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, crates, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
