package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StepStatus describes the outcome of one step attempt.
type StepStatus string

const (
	StepStatusSucceeded StepStatus = "succeeded"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
	StepStatusDryRun    StepStatus = "dry-run"
)

// StepResult captures a single step's outcome within a run.
type StepResult struct {
	StepID   string        `json:"step_id"`
	Command  string        `json:"command"`
	Status   StepStatus    `json:"status"`
	ExitCode int           `json:"exit_code"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// ExecutionResult is the report returned by one workflow run.
type ExecutionResult struct {
	ExecutionID     string        `json:"execution_id"`
	WorkflowName    string        `json:"workflow_name"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
	TotalSteps      int           `json:"total_steps"`
	SuccessfulSteps int           `json:"successful_steps"`
	FailedSteps     int           `json:"failed_steps"`
	DryRun          bool          `json:"dry_run"`

	// ConditionSkipped is set when the workflow's condition command exited
	// non-zero and the run was gated off. No statistics are recorded.
	ConditionSkipped bool `json:"condition_skipped,omitempty"`

	Steps []*StepResult `json:"steps"`
}

// Success reports whether the run completed with zero failed steps.
func (r *ExecutionResult) Success() bool {
	return r.FailedSteps == 0
}

// ExecutionRecord is one immutable line of the append-only execution history
// log: timestamp|workflow_name|duration_seconds|successful_steps|failed_steps.
type ExecutionRecord struct {
	Timestamp       time.Time `json:"timestamp"`
	WorkflowName    string    `json:"workflow_name"`
	DurationSeconds float64   `json:"duration_seconds"`
	SuccessfulSteps int       `json:"successful_steps"`
	FailedSteps     int       `json:"failed_steps"`
}

const executionRecordFields = 5

// MarshalLine renders the record in the pipe-delimited log format.
func (r ExecutionRecord) MarshalLine() string {
	return fmt.Sprintf("%s|%s|%.3f|%d|%d",
		r.Timestamp.UTC().Format(time.RFC3339),
		r.WorkflowName,
		r.DurationSeconds,
		r.SuccessfulSteps,
		r.FailedSteps,
	)
}

// ParseExecutionRecord parses one pipe-delimited log line.
func ParseExecutionRecord(line string) (ExecutionRecord, error) {
	parts := strings.Split(line, "|")
	if len(parts) != executionRecordFields {
		return ExecutionRecord{}, &ParseError{
			Document: line,
			Reason:   fmt.Sprintf("expected %d fields, got %d", executionRecordFields, len(parts)),
		}
	}

	timestamp, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return ExecutionRecord{}, &ParseError{Document: line, Reason: "bad timestamp", Err: err}
	}

	duration, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return ExecutionRecord{}, &ParseError{Document: line, Reason: "bad duration", Err: err}
	}

	successful, err := strconv.Atoi(parts[3])
	if err != nil {
		return ExecutionRecord{}, &ParseError{Document: line, Reason: "bad successful-step count", Err: err}
	}

	failed, err := strconv.Atoi(parts[4])
	if err != nil {
		return ExecutionRecord{}, &ParseError{Document: line, Reason: "bad failed-step count", Err: err}
	}

	return ExecutionRecord{
		Timestamp:       timestamp,
		WorkflowName:    parts[1],
		DurationSeconds: duration,
		SuccessfulSteps: successful,
		FailedSteps:     failed,
	}, nil
}
