package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dnoice/autoflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWorkflow(name string, commands ...string) *models.Workflow {
	return models.NewWorkflow(name, "test workflow", models.ExecutionPolicy{}, models.WorkflowTriggers{}, commands)
}

func TestNewPersistence(t *testing.T) {
	fp := NewPersistence("/tmp/test").(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)

	fp = NewPersistence("file:///tmp/test").(*Persistence)
	assert.Equal(t, "/tmp/test", fp.root)
}

func TestPersistence_CreateWorkflow(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	workflow := testWorkflow("deploy", "git pull", "make build")
	require.NoError(t, fp.CreateWorkflow(context.Background(), workflow))

	loaded, err := fp.WorkflowByName(context.Background(), "deploy")
	require.NoError(t, err)
	assert.Equal(t, "deploy", loaded.Name)
	require.Len(t, loaded.Steps, 2)
	assert.Equal(t, "step_1", loaded.Steps[0].ID)
	assert.Equal(t, "git pull", loaded.Steps[0].Command)
	assert.Equal(t, "step_2", loaded.Steps[1].ID)
	assert.Equal(t, "make build", loaded.Steps[1].Command)
}

func TestPersistence_CreateWorkflow_AlreadyExists(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	original := testWorkflow("deploy", "git pull")
	require.NoError(t, fp.CreateWorkflow(context.Background(), original))

	duplicate := testWorkflow("deploy", "rm -rf /tmp/other")
	err := fp.CreateWorkflow(context.Background(), duplicate)
	require.ErrorIs(t, err, models.ErrWorkflowExists)

	// The existing definition must be untouched.
	loaded, err := fp.WorkflowByName(context.Background(), "deploy")
	require.NoError(t, err)
	require.Len(t, loaded.Steps, 1)
	assert.Equal(t, "git pull", loaded.Steps[0].Command)
}

func TestPersistence_CreateWorkflow_AwkwardCommands(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	// Commands with quotes and newlines must survive the round trip; the
	// structured writer, not string templating, is what guarantees this.
	commands := []string{
		`echo "hello \"world\""`,
		"printf 'a\nb\nc\n'",
		`awk '{ print $1 "|" $2 }' file.txt`,
	}

	require.NoError(t, fp.CreateWorkflow(context.Background(), testWorkflow("tricky", commands...)))

	loaded, err := fp.WorkflowByName(context.Background(), "tricky")
	require.NoError(t, err)
	require.Len(t, loaded.Steps, len(commands))

	for i, command := range commands {
		assert.Equal(t, command, loaded.Steps[i].Command)
	}
}

func TestPersistence_WorkflowByName_NotFound(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	_, err := fp.WorkflowByName(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrWorkflowNotFound)
}

func TestPersistence_WorkflowByName_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "workflows"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "workflows", "bad.json"), []byte("{not json"), 0o600))

	fp := NewPersistence(dir)

	_, err := fp.WorkflowByName(context.Background(), "bad")
	require.Error(t, err)

	var parseErr *models.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestPersistence_Workflows_SortedByName(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, fp.CreateWorkflow(context.Background(), testWorkflow(name, "true")))
	}

	workflows, err := fp.Workflows(context.Background())
	require.NoError(t, err)
	require.Len(t, workflows, 3)
	assert.Equal(t, "alpha", workflows[0].Name)
	assert.Equal(t, "mid", workflows[1].Name)
	assert.Equal(t, "zeta", workflows[2].Name)
}

func TestPersistence_DeleteWorkflow(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	require.NoError(t, fp.CreateWorkflow(context.Background(), testWorkflow("gone", "true")))
	require.NoError(t, fp.DeleteWorkflow(context.Background(), "gone"))

	_, err := fp.WorkflowByName(context.Background(), "gone")
	assert.ErrorIs(t, err, models.ErrWorkflowNotFound)

	assert.ErrorIs(t, fp.DeleteWorkflow(context.Background(), "gone"), models.ErrWorkflowNotFound)
}

func TestPersistence_UpdateStatistics(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	require.NoError(t, fp.CreateWorkflow(context.Background(), testWorkflow("deploy", "true")))

	record := models.ExecutionRecord{
		Timestamp:       time.Now().UTC(),
		WorkflowName:    "deploy",
		DurationSeconds: 1.5,
		SuccessfulSteps: 1,
		FailedSteps:     0,
	}
	require.NoError(t, fp.UpdateStatistics(context.Background(), record))

	loaded, err := fp.WorkflowByName(context.Background(), "deploy")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Statistics.TotalExecutions)
	assert.Equal(t, 1, loaded.Statistics.SuccessfulExecutions)
	assert.Equal(t, 0, loaded.Statistics.FailedExecutions)
	assert.InDelta(t, 1.5, loaded.Statistics.TotalDurationSeconds, 0.0001)
	require.NotNil(t, loaded.Statistics.LastExecutedAt)

	records, err := fp.ExecutionRecords(context.Background(), "deploy")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "deploy", records[0].WorkflowName)
}

func TestPersistence_UpdateStatistics_FailedRun(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	require.NoError(t, fp.CreateWorkflow(context.Background(), testWorkflow("flaky", "true")))

	record := models.ExecutionRecord{
		Timestamp:       time.Now().UTC(),
		WorkflowName:    "flaky",
		DurationSeconds: 0.2,
		SuccessfulSteps: 0,
		FailedSteps:     1,
	}
	require.NoError(t, fp.UpdateStatistics(context.Background(), record))

	loaded, err := fp.WorkflowByName(context.Background(), "flaky")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Statistics.FailedExecutions)
	assert.Equal(t, 0, loaded.Statistics.SuccessfulExecutions)
}

func TestPersistence_UpdateStatistics_ConcurrentRunsNoLostUpdate(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	require.NoError(t, fp.CreateWorkflow(context.Background(), testWorkflow("racy", "true")))

	const runs = 2

	var wg sync.WaitGroup

	for i := 0; i < runs; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			record := models.ExecutionRecord{
				Timestamp:       time.Now().UTC(),
				WorkflowName:    "racy",
				DurationSeconds: 0.1,
				SuccessfulSteps: 1,
			}
			assert.NoError(t, fp.UpdateStatistics(context.Background(), record))
		}()
	}

	wg.Wait()

	loaded, err := fp.WorkflowByName(context.Background(), "racy")
	require.NoError(t, err)
	assert.Equal(t, runs, loaded.Statistics.TotalExecutions)

	records, err := fp.ExecutionRecords(context.Background(), "racy")
	require.NoError(t, err)
	assert.Len(t, records, runs)
}

func TestPersistence_ExecutionRecords_FilterAndOrder(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	require.NoError(t, fp.CreateWorkflow(context.Background(), testWorkflow("a", "true")))
	require.NoError(t, fp.CreateWorkflow(context.Background(), testWorkflow("b", "true")))

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"a", "b", "a"} {
		record := models.ExecutionRecord{
			Timestamp:       base.Add(time.Duration(i) * time.Minute),
			WorkflowName:    name,
			SuccessfulSteps: 1,
		}
		require.NoError(t, fp.UpdateStatistics(context.Background(), record))
	}

	all, err := fp.ExecutionRecords(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Timestamp.Before(all[2].Timestamp))

	onlyA, err := fp.ExecutionRecords(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, onlyA, 2)
}

func TestPersistence_Tasks(t *testing.T) {
	fp := NewPersistence(t.TempDir())

	task := &models.ScheduledTask{Name: "backup", Command: "tar czf /tmp/b.tgz ~", Schedule: "0 2 * * *"}
	require.NoError(t, fp.CreateTask(context.Background(), task))

	assert.ErrorIs(t, fp.CreateTask(context.Background(), task), models.ErrTaskExists)

	loaded, err := fp.TaskByName(context.Background(), "backup")
	require.NoError(t, err)
	assert.Equal(t, "0 2 * * *", loaded.Schedule)
	assert.False(t, loaded.CreatedAt.IsZero())

	tasks, err := fp.Tasks(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	require.NoError(t, fp.DeleteTask(context.Background(), "backup"))
	_, err = fp.TaskByName(context.Background(), "backup")
	assert.ErrorIs(t, err, models.ErrTaskNotFound)
}
