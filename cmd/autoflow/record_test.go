package main

import (
	"context"
	"strings"
	"testing"

	"github.com/dnoice/autoflow/pkg/models"
	"github.com/dnoice/autoflow/pkg/persistence/file"
	"github.com/dnoice/autoflow/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(t *testing.T) *workflow.Recorder {
	t.Helper()

	dataDir := t.TempDir()
	repository := workflow.NewRepository(file.NewPersistence(dataDir))

	return workflow.NewRecorder(repository, dataDir)
}

func TestRunRecordingLoop_CapturesUntilStopWord(t *testing.T) {
	recorder := newTestRecorder(t)
	input := strings.NewReader("git pull\n# a comment\n\nmake build\nstop\nnever seen\n")

	created, err := runRecordingLoop(context.Background(), recorder, "build", input)
	require.NoError(t, err)

	require.Len(t, created.Steps, 2)
	assert.Equal(t, "git pull", created.Steps[0].Command)
	assert.Equal(t, "make build", created.Steps[1].Command)
}

func TestRunRecordingLoop_EOFEndsSession(t *testing.T) {
	recorder := newTestRecorder(t)
	input := strings.NewReader("echo hi\n")

	created, err := runRecordingLoop(context.Background(), recorder, "hi", input)
	require.NoError(t, err)
	require.Len(t, created.Steps, 1)
}

func TestRunRecordingLoop_EmptySession(t *testing.T) {
	recorder := newTestRecorder(t)

	_, err := runRecordingLoop(context.Background(), recorder, "empty", strings.NewReader("stop\n"))
	assert.ErrorIs(t, err, models.ErrNoInput)

	// The lock must be released so a retry can start.
	_, err = runRecordingLoop(context.Background(), recorder, "empty", strings.NewReader("echo hi\nstop\n"))
	require.NoError(t, err)
}
