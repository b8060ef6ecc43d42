package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dnoice/autoflow/pkg/models"
	"github.com/dnoice/autoflow/pkg/workflow"
	"github.com/fatih/color"
)

// runRecordingLoop reads command lines from input until the stop word or EOF
// and turns the captured sequence into a workflow. The session lock is
// released on every exit path.
func runRecordingLoop(ctx context.Context, recorder *workflow.Recorder, name string, input io.Reader) (*models.Workflow, error) {
	session, err := recorder.Start(ctx, name)
	if err != nil {
		return nil, err
	}

	color.Cyan("Recording %q. Enter one command per line; type %q to finish.", name, workflow.StopWord)

	scanner := bufio.NewScanner(input)

	for {
		fmt.Print(session.Prompt())

		if !scanner.Scan() {
			break
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == workflow.StopWord {
			break
		}

		if session.Add(line) {
			fmt.Printf("  captured step %d\n", len(session.Lines()))
		}
	}

	if err := scanner.Err(); err != nil {
		session.Abort()

		return nil, fmt.Errorf("failed to read recording input: %w", err)
	}

	return session.Stop(ctx)
}
