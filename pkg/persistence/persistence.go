// Package persistence provides the data storage abstraction for workflows,
// scheduled tasks and the execution-history log.
package persistence

import (
	"context"

	"github.com/dnoice/autoflow/pkg/models"
)

// Persistence is the storage contract shared by all backends. Implementations
// must serialize concurrent writers: UpdateStatistics appends the execution
// record and folds the statistics rollup in a single critical section, so a
// reader after return never observes one without the other.
type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByName(ctx context.Context, name string) (*models.Workflow, error)

	// CreateWorkflow persists a new definition. It fails with
	// models.ErrWorkflowExists when the name is taken; it never overwrites.
	CreateWorkflow(ctx context.Context, workflow *models.Workflow) error

	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, name string) error

	// UpdateStatistics folds one run into the workflow's statistics rollup
	// and appends the matching execution record, atomically with respect to
	// other processes.
	UpdateStatistics(ctx context.Context, record models.ExecutionRecord) error

	// ExecutionRecords returns the append-only history, optionally filtered
	// by workflow name ("" = all), oldest first.
	ExecutionRecords(ctx context.Context, workflowName string) ([]models.ExecutionRecord, error)

	Tasks(ctx context.Context) ([]*models.ScheduledTask, error)
	TaskByName(ctx context.Context, name string) (*models.ScheduledTask, error)
	CreateTask(ctx context.Context, task *models.ScheduledTask) error
	DeleteTask(ctx context.Context, name string) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
