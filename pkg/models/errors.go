package models

import (
	"errors"
	"fmt"
)

// Standard error values surfaced to callers. They are never retried
// automatically and map to exit code 1 at the CLI.
var (
	// ErrWorkflowNotFound indicates no workflow with the given name is persisted.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrWorkflowExists indicates a create would overwrite an existing definition.
	ErrWorkflowExists = errors.New("workflow already exists")

	// ErrTaskNotFound indicates no scheduled task with the given name exists.
	ErrTaskNotFound = errors.New("scheduled task not found")

	// ErrTaskExists indicates a scheduled task with the given name already exists.
	ErrTaskExists = errors.New("scheduled task already exists")

	// ErrNoInput indicates an empty recording or an empty history stream.
	ErrNoInput = errors.New("no input")

	// ErrRecordingActive indicates another recording session already holds
	// the session lock.
	ErrRecordingActive = errors.New("a recording session is already active")
)

// ParseError indicates a persisted document or log line could not be decoded.
type ParseError struct {
	Document string
	Reason   string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Reason, e.Err)
	}

	return fmt.Sprintf("parse error: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ScheduleError indicates the external time-based executor rejected a
// trigger expression or table update. It is propagated, never swallowed.
type ScheduleError struct {
	Expression string
	Err        error
}

func (e *ScheduleError) Error() string {
	if e.Expression != "" {
		return fmt.Sprintf("schedule rejected: %q: %v", e.Expression, e.Err)
	}

	return fmt.Sprintf("schedule rejected: %v", e.Err)
}

func (e *ScheduleError) Unwrap() error {
	return e.Err
}
