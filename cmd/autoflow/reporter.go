package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dnoice/autoflow/pkg/cmd"
	"github.com/dnoice/autoflow/pkg/eventbus"
	"github.com/dnoice/autoflow/pkg/events"
	applog "github.com/dnoice/autoflow/pkg/log"
	"github.com/fatih/color"
)

// newRunReporter wires a progress printer onto the execution event bus.
// Returns nil when verbose output is off; the executor then runs without a
// bus. Publishing blocks until the handler has printed, so step output stays
// in execution order.
func newRunReporter(ctx context.Context, verbose bool) (eventbus.EventBus, error) {
	if !verbose {
		return nil, nil
	}

	bus := cmd.NewBlockingEventBus(applog.WithModule("autoflow"))

	handlers := map[events.EventType]eventbus.EventHandler{
		events.ExecutionStartedEvent: func(_ context.Context, event any) error {
			started, ok := event.(*events.ExecutionStarted)
			if !ok {
				return nil
			}

			if started.DryRun {
				color.Cyan("▶ %s (dry run, %d steps)", started.WorkflowName, started.TotalSteps)
			} else {
				color.Cyan("▶ %s (%d steps)", started.WorkflowName, started.TotalSteps)
			}

			return nil
		},
		events.StepFinishedEvent: func(_ context.Context, event any) error {
			finished, ok := event.(*events.StepFinished)
			if !ok {
				return nil
			}

			fmt.Printf("  %s %s  %s (%s)\n",
				color.GreenString("✔"), finished.StepID, finished.Command,
				finished.Duration.Round(time.Millisecond))

			return nil
		},
		events.StepFailedEvent: func(_ context.Context, event any) error {
			failed, ok := event.(*events.StepFailed)
			if !ok {
				return nil
			}

			fmt.Printf("  %s %s  %s (exit %d after %d attempt(s))\n",
				color.RedString("✘"), failed.StepID, failed.Command,
				failed.ExitCode, failed.Attempts)

			return nil
		},
	}

	for eventType, handler := range handlers {
		if err := bus.Handle(eventType, handler); err != nil {
			return nil, err
		}
	}

	if err := bus.Subscribe(ctx); err != nil {
		return nil, err
	}

	return bus, nil
}
