// Package workflow implements the workflow store service, the recorder and
// the execution engine.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dnoice/autoflow/pkg/models"
	"github.com/dnoice/autoflow/pkg/persistence"
	"github.com/dnoice/autoflow/pkg/schema"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ExportFormat selects the serialization for export/import.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatYAML ExportFormat = "yaml"
)

// Repository is the workflow store service. It owns workflow definitions and
// their statistics rollups.
type Repository struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

func NewRepository(p persistence.Persistence) *Repository {
	return &Repository{
		persistence: p,
		validate:    validator.New(),
	}
}

// HealthCheck reports whether the persistence layer is usable.
func (r *Repository) HealthCheck(ctx context.Context) (string, bool) {
	if r.persistence == nil {
		return "persistence layer not initialized", false
	}

	if err := r.persistence.HealthCheck(ctx); err != nil {
		return "persistence layer is unhealthy: " + err.Error(), false
	}

	return "persistence layer is healthy", true
}

// Create builds a workflow from ordered command lines and persists it.
// A duplicate name fails with models.ErrWorkflowExists; the existing
// definition is never altered.
func (r *Repository) Create(ctx context.Context, name, description string, policy models.ExecutionPolicy, triggers models.WorkflowTriggers, commands []string) (*models.Workflow, error) {
	if err := models.ValidateName(name); err != nil {
		return nil, fmt.Errorf("workflow: %w", err)
	}

	workflow := models.NewWorkflow(name, description, policy, triggers, commands)

	if err := r.validate.Struct(workflow); err != nil {
		return nil, fmt.Errorf("invalid workflow %s: %w", name, err)
	}

	if err := r.persistence.CreateWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	return workflow, nil
}

// Get fetches one workflow by name.
func (r *Repository) Get(ctx context.Context, name string) (*models.Workflow, error) {
	return r.persistence.WorkflowByName(ctx, name)
}

// List returns all workflows sorted by name.
func (r *Repository) List(ctx context.Context) ([]*models.Workflow, error) {
	return r.persistence.Workflows(ctx)
}

// Delete removes a workflow definition.
func (r *Repository) Delete(ctx context.Context, name string) error {
	return r.persistence.DeleteWorkflow(ctx, name)
}

// RecordExecution folds one finished run into the workflow's statistics and
// appends the execution record. The persistence layer performs both under a
// single lock.
func (r *Repository) RecordExecution(ctx context.Context, result *models.ExecutionResult) error {
	record := models.ExecutionRecord{
		Timestamp:       result.StartedAt,
		WorkflowName:    result.WorkflowName,
		DurationSeconds: result.Duration.Seconds(),
		SuccessfulSteps: result.SuccessfulSteps,
		FailedSteps:     result.FailedSteps,
	}

	return r.persistence.UpdateStatistics(ctx, record)
}

// ExecutionHistory returns the append-only run history, optionally filtered
// by workflow name.
func (r *Repository) ExecutionHistory(ctx context.Context, workflowName string) ([]models.ExecutionRecord, error) {
	return r.persistence.ExecutionRecords(ctx, workflowName)
}

// Export serializes one workflow definition.
func (r *Repository) Export(ctx context.Context, name string, format ExportFormat) ([]byte, error) {
	workflow, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatYAML:
		return yaml.Marshal(workflow)
	case FormatJSON, "":
		return json.MarshalIndent(workflow, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// Import validates and persists an exported workflow document. The document
// is checked against the workflow JSON schema before it is accepted, and a
// duplicate name fails with models.ErrWorkflowExists.
func (r *Repository) Import(ctx context.Context, data []byte, format ExportFormat) (*models.Workflow, error) {
	jsonData := data

	if format == FormatYAML {
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &models.ParseError{Reason: "malformed YAML document", Err: err}
		}

		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, &models.ParseError{Reason: "unconvertible YAML document", Err: err}
		}

		jsonData = converted
	}

	if err := schema.ValidateWorkflowDocument(jsonData); err != nil {
		return nil, err
	}

	var workflow models.Workflow
	if err := json.Unmarshal(jsonData, &workflow); err != nil {
		return nil, &models.ParseError{Reason: "malformed workflow document", Err: err}
	}

	if err := models.ValidateName(workflow.Name); err != nil {
		return nil, fmt.Errorf("workflow: %w", err)
	}

	// Imported statistics are history of another store; start fresh.
	workflow.Statistics = models.WorkflowStatistics{}

	if err := r.validate.Struct(&workflow); err != nil {
		return nil, fmt.Errorf("invalid workflow %s: %w", workflow.Name, err)
	}

	if err := r.persistence.CreateWorkflow(ctx, &workflow); err != nil {
		return nil, err
	}

	return &workflow, nil
}
