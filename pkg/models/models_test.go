package models

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const requiredTag = "required"

func TestNewWorkflow_AssignsStableStepIDs(t *testing.T) {
	commands := []string{"git pull", "make build", "make test"}

	workflow := NewWorkflow("deploy", "Build and test", ExecutionPolicy{}, WorkflowTriggers{}, commands)

	require.Len(t, workflow.Steps, 3)
	assert.Equal(t, "step_1", workflow.Steps[0].ID)
	assert.Equal(t, "step_2", workflow.Steps[1].ID)
	assert.Equal(t, "step_3", workflow.Steps[2].ID)

	for i, step := range workflow.Steps {
		assert.Equal(t, commands[i], step.Command)
		assert.True(t, step.Enabled)
		assert.Equal(t, -1, step.Retry)
	}
}

func TestNewWorkflow_Defaults(t *testing.T) {
	workflow := NewWorkflow("w", "", ExecutionPolicy{}, WorkflowTriggers{}, nil)

	assert.Equal(t, FailureModeStop, workflow.Policy.OnFailure)
	assert.True(t, workflow.Triggers.Manual)
	assert.False(t, workflow.CreatedAt.IsZero())
}

func TestWorkflow_Validation_MissingName(t *testing.T) {
	workflow := NewWorkflow("", "", ExecutionPolicy{}, WorkflowTriggers{}, []string{"true"})

	validate := validator.New()
	err := validate.Struct(workflow)
	require.Error(t, err)

	var validationErrors validator.ValidationErrors
	require.True(t, errors.As(err, &validationErrors))

	found := false

	for _, fieldErr := range validationErrors {
		if fieldErr.Field() == "Name" && fieldErr.Tag() == requiredTag {
			found = true

			break
		}
	}

	assert.True(t, found, "should have validation error for required Name field")
}

func TestWorkflow_Validation_StepMissingCommand(t *testing.T) {
	workflow := NewWorkflow("w", "", ExecutionPolicy{}, WorkflowTriggers{}, []string{""})

	validate := validator.New()
	err := validate.Struct(workflow)
	assert.Error(t, err)
}

func TestStep_Retries(t *testing.T) {
	policy := ExecutionPolicy{RetryCount: 2}

	inherit := &Step{Retry: -1}
	assert.Equal(t, 2, inherit.Retries(policy))

	explicit := &Step{Retry: 5}
	assert.Equal(t, 5, explicit.Retries(policy))

	zero := &Step{Retry: 0}
	assert.Equal(t, 0, zero.Retries(policy))
}

func TestStep_FailurePolicy(t *testing.T) {
	policy := ExecutionPolicy{OnFailure: FailureModeStop}

	inherit := &Step{}
	assert.Equal(t, FailureModeStop, inherit.FailurePolicy(policy))

	override := &Step{OnFailure: FailureModeContinue}
	assert.Equal(t, FailureModeContinue, override.FailurePolicy(policy))
}

func TestExecutionRecord_LineRoundTrip(t *testing.T) {
	record := ExecutionRecord{
		Timestamp:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		WorkflowName:    "deploy",
		DurationSeconds: 4.25,
		SuccessfulSteps: 3,
		FailedSteps:     1,
	}

	line := record.MarshalLine()
	assert.Equal(t, "2025-06-01T12:00:00Z|deploy|4.250|3|1", line)

	parsed, err := ParseExecutionRecord(line)
	require.NoError(t, err)
	assert.Equal(t, record, parsed)
}

func TestParseExecutionRecord_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "too few fields", line: "2025-06-01T12:00:00Z|deploy|4.250"},
		{name: "bad timestamp", line: "yesterday|deploy|4.250|3|1"},
		{name: "bad duration", line: "2025-06-01T12:00:00Z|deploy|fast|3|1"},
		{name: "bad counts", line: "2025-06-01T12:00:00Z|deploy|4.250|three|1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExecutionRecord(tt.line)
			require.Error(t, err)

			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr))
		})
	}
}

func TestResolveSchedule(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "daily", expected: "0 2 * * *"},
		{input: "hourly", expected: "0 * * * *"},
		{input: "weekly", expected: "0 3 * * 0"},
		{input: "monthly", expected: "0 4 1 * *"},
		{input: "midnight", expected: "0 0 * * *"},
		{input: "noon", expected: "0 12 * * *"},
		{input: "*/5 * * * *", expected: "*/5 * * * *"},
		{input: "totally-invalid", expected: "totally-invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveSchedule(tt.input))
		})
	}
}

func TestScheduledTask_NextRun(t *testing.T) {
	after := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)

	task := &ScheduledTask{Name: "backup", Command: "tar czf /tmp/b.tgz ~", Schedule: "0 2 * * *"}
	next := task.NextRun(after)
	assert.Equal(t, time.Date(2025, 6, 2, 2, 0, 0, 0, time.UTC), next)

	adaptive := &ScheduledTask{Name: "a", Command: "true", Adaptive: true, Schedule: "0 2 * * *"}
	assert.True(t, adaptive.NextRun(after).IsZero())

	broken := &ScheduledTask{Name: "b", Command: "true", Schedule: "not a schedule"}
	assert.True(t, broken.NextRun(after).IsZero())
}

func TestWorkflowStatistics_AverageDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), WorkflowStatistics{}.AverageDuration())

	stats := WorkflowStatistics{TotalExecutions: 4, TotalDurationSeconds: 10}
	assert.Equal(t, 2500*time.Millisecond, stats.AverageDuration())
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"deploy", "morning-routine", "backup_2", "v1.2", "A"} {
		assert.NoError(t, ValidateName(name), "name %q", name)
	}

	// Names become file names and pipe-delimited log fields; separators,
	// pipes and whitespace would escape the store or corrupt the log.
	for _, name := range []string{"", "../evil", "a/b", `a\b`, "a|b", "a b", "a\nb", ".hidden", "-flag"} {
		assert.ErrorIs(t, ValidateName(name), ErrInvalidName, "name %q", name)
	}
}
