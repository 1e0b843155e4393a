package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"sealant/internal/pipeline"
	"sealant/internal/ui"
)

type sealOutcome struct {
	result pipeline.Result
	err    error
}

func runSealWithUI(ctx context.Context, title string, assets []string, req *pipeline.Request) (pipeline.Result, error) {
	if req == nil {
		return pipeline.Result{}, fmt.Errorf("missing pipeline request")
	}
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan sealOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = pipeline.ChannelSink{Ch: events}
		res, err := pipeline.Run(ctx, &reqCopy)
		outcomeCh <- sealOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, assets, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
