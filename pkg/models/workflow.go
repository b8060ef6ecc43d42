// Package models defines the core domain models for shell workflow automation.
package models

import (
	"fmt"
	"time"
)

// FailureMode controls what happens after a step exhausts its retries.
type FailureMode string

const (
	FailureModeStop     FailureMode = "stop"     // Abort remaining steps
	FailureModeContinue FailureMode = "continue" // Proceed to the next step
)

// ExecutionPolicy holds the workflow-level execution settings.
type ExecutionPolicy struct {
	// Parallel fans enabled steps out to a bounded worker pool instead of
	// running them in declared order.
	Parallel bool `json:"parallel" yaml:"parallel"`

	// Timeout is the whole-run ceiling in seconds. Zero means no ceiling.
	Timeout int `json:"timeout" yaml:"timeout"`

	// RetryCount is the default number of re-executions a failing step gets
	// before it counts as failed. Steps may override it.
	RetryCount int `json:"retry_count" yaml:"retry_count" validate:"gte=0"`

	// OnFailure is the workflow-wide failure policy. Steps may override it.
	OnFailure FailureMode `json:"on_failure" yaml:"on_failure" validate:"oneof=stop continue"`
}

// WorkflowTriggers describes how a workflow may be started.
type WorkflowTriggers struct {
	// Schedule is an optional cron expression for recurring execution.
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty"`

	// Condition is an optional command whose exit code gates execution:
	// non-zero skips the run.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`

	// Manual is always true; every workflow is invokable by direct command.
	Manual bool `json:"manual" yaml:"manual"`
}

// WorkflowStatistics is the denormalized rollup of past runs. It is updated
// in the same locked write that appends the corresponding execution record.
type WorkflowStatistics struct {
	TotalExecutions      int        `json:"total_executions" yaml:"total_executions"`
	SuccessfulExecutions int        `json:"successful_executions" yaml:"successful_executions"`
	FailedExecutions     int        `json:"failed_executions" yaml:"failed_executions"`
	TotalDurationSeconds float64    `json:"total_duration_seconds" yaml:"total_duration_seconds"`
	LastExecutedAt       *time.Time `json:"last_executed_at,omitempty" yaml:"last_executed_at,omitempty"`
}

// AverageDuration returns the mean run duration, or zero if never run.
func (s WorkflowStatistics) AverageDuration() time.Duration {
	if s.TotalExecutions == 0 {
		return 0
	}

	return time.Duration(s.TotalDurationSeconds / float64(s.TotalExecutions) * float64(time.Second))
}

// Workflow represents a named, ordered sequence of shell steps with an
// execution policy and trigger metadata. Name doubles as the storage key.
type Workflow struct {
	Name        string             `json:"name"        yaml:"name"        validate:"required,min=1"`
	Description string             `json:"description" yaml:"description"`
	Policy      ExecutionPolicy    `json:"policy"      yaml:"policy"`
	Triggers    WorkflowTriggers   `json:"triggers"    yaml:"triggers"`
	Steps       []*Step            `json:"steps"       yaml:"steps"       validate:"dive"`
	Variables   map[string]string  `json:"variables,omitempty" yaml:"variables,omitempty"`
	Statistics  WorkflowStatistics `json:"statistics"  yaml:"statistics"`
	CreatedAt   time.Time          `json:"created_at"  yaml:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"  yaml:"updated_at"`
}

// StepID returns the stable identifier for the n-th step (1-based). Ids are
// assigned at creation and never renumbered by later edits.
func StepID(n int) string {
	return fmt.Sprintf("step_%d", n)
}

// NewWorkflow builds a workflow from command lines, assigning stable step
// ids in input order.
func NewWorkflow(name, description string, policy ExecutionPolicy, triggers WorkflowTriggers, commands []string) *Workflow {
	if policy.OnFailure == "" {
		policy.OnFailure = FailureModeStop
	}

	triggers.Manual = true

	steps := make([]*Step, 0, len(commands))
	for i, command := range commands {
		steps = append(steps, &Step{
			ID:      StepID(i + 1),
			Name:    fmt.Sprintf("Step %d", i+1),
			Command: command,
			Enabled: true,
			Retry:   -1,
		})
	}

	now := time.Now().UTC()

	return &Workflow{
		Name:        name,
		Description: description,
		Policy:      policy,
		Triggers:    triggers,
		Steps:       steps,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// EnabledSteps returns the steps that will actually execute, in declared order.
func (w *Workflow) EnabledSteps() []*Step {
	enabled := make([]*Step, 0, len(w.Steps))

	for _, step := range w.Steps {
		if step.Enabled {
			enabled = append(enabled, step)
		}
	}

	return enabled
}
