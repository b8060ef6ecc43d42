// Package events defines event types for workflow execution lifecycle
// notifications published on the in-process event bus.
package events

import "time"

type EventType string

// Topic carries all execution lifecycle events.
const Topic = "autoflow.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	StepFinishedEvent       EventType = "step.finished"
	StepFailedEvent         EventType = "step.failed"
	ExecutionCompletedEvent EventType = "execution.completed"
	MiningCompletedEvent    EventType = "mining.completed"
)

type BaseEvent struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	WorkflowName string    `json:"workflow_name,omitempty"`
	ExecutionID  string    `json:"execution_id,omitempty"`
}

type ExecutionStarted struct {
	BaseEvent

	TotalSteps int  `json:"total_steps"`
	DryRun     bool `json:"dry_run"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type StepFinished struct {
	BaseEvent

	StepID   string        `json:"step_id"`
	Command  string        `json:"command"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
}

func (e StepFinished) GetType() EventType {
	return StepFinishedEvent
}

type StepFailed struct {
	BaseEvent

	StepID   string `json:"step_id"`
	Command  string `json:"command"`
	Attempts int    `json:"attempts"`
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

func (e StepFailed) GetType() EventType {
	return StepFailedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	Duration        time.Duration `json:"duration"`
	TotalSteps      int           `json:"total_steps"`
	SuccessfulSteps int           `json:"successful_steps"`
	FailedSteps     int           `json:"failed_steps"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

// MiningCompleted is published when a background pattern-mining job finishes.
type MiningCompleted struct {
	BaseEvent

	Commands  int `json:"commands"`
	Sequences int `json:"sequences"`
}

func (e MiningCompleted) GetType() EventType {
	return MiningCompletedEvent
}
