package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dnoice/autoflow/pkg/models"
)

func (fp *Persistence) workflowPath(name string) string {
	return filepath.Clean(filepath.Join(fp.root, workflowsDir, name+".json"))
}

// Workflows returns every persisted workflow, sorted by name.
func (fp *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	root := os.DirFS(filepath.Join(fp.root, workflowsDir))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		name := file[:len(file)-len(".json")]

		workflow, err := fp.WorkflowByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load workflow %s: %w", name, err)
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].Name < workflows[j].Name
	})

	return workflows, nil
}

// WorkflowByName retrieves one workflow document.
func (fp *Persistence) WorkflowByName(_ context.Context, name string) (*models.Workflow, error) {
	body, err := os.ReadFile(fp.workflowPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("workflow %s: %w", name, models.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to read workflow %s: %w", name, err)
	}

	var workflow models.Workflow

	if err := json.Unmarshal(body, &workflow); err != nil {
		return nil, &models.ParseError{
			Document: fp.workflowPath(name),
			Reason:   "malformed workflow document",
			Err:      err,
		}
	}

	return &workflow, nil
}

// CreateWorkflow persists a new definition. The document is created with
// O_EXCL so a duplicate name fails with ErrWorkflowExists instead of
// silently overwriting.
func (fp *Persistence) CreateWorkflow(_ context.Context, workflow *models.Workflow) error {
	return fp.withLock(func() error {
		if err := os.MkdirAll(filepath.Join(fp.root, workflowsDir), dirMode); err != nil {
			return fmt.Errorf("failed to create workflows directory: %w", err)
		}

		now := time.Now().UTC()
		if workflow.CreatedAt.IsZero() {
			workflow.CreatedAt = now
		}

		workflow.UpdatedAt = now

		data, err := json.MarshalIndent(workflow, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal workflow %s: %w", workflow.Name, err)
		}

		f, err := os.OpenFile(fp.workflowPath(workflow.Name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				return fmt.Errorf("workflow %s: %w", workflow.Name, models.ErrWorkflowExists)
			}

			return fmt.Errorf("failed to create workflow %s: %w", workflow.Name, err)
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()

			return fmt.Errorf("failed to write workflow %s: %w", workflow.Name, err)
		}

		return f.Close()
	})
}

// SaveWorkflow overwrites an existing workflow document.
func (fp *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	return fp.withLock(func() error {
		return fp.saveWorkflowLocked(workflow)
	})
}

func (fp *Persistence) saveWorkflowLocked(workflow *models.Workflow) error {
	if err := os.MkdirAll(filepath.Join(fp.root, workflowsDir), dirMode); err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	workflow.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.Name, err)
	}

	return writeFileAtomic(fp.workflowPath(workflow.Name), data)
}

// DeleteWorkflow removes a workflow document by name.
func (fp *Persistence) DeleteWorkflow(_ context.Context, name string) error {
	return fp.withLock(func() error {
		err := os.Remove(fp.workflowPath(name))
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("workflow %s: %w", name, models.ErrWorkflowNotFound)
			}

			return fmt.Errorf("failed to delete workflow %s: %w", name, err)
		}

		return nil
	})
}

// UpdateStatistics folds one run into the workflow's rollup and appends the
// matching execution record under a single lock, so the two always move
// together and concurrent runs never lose an update.
func (fp *Persistence) UpdateStatistics(ctx context.Context, record models.ExecutionRecord) error {
	return fp.withLock(func() error {
		workflow, err := fp.WorkflowByName(ctx, record.WorkflowName)
		if err != nil {
			return err
		}

		stats := &workflow.Statistics
		stats.TotalExecutions++
		stats.TotalDurationSeconds += record.DurationSeconds

		if record.FailedSteps == 0 {
			stats.SuccessfulExecutions++
		} else {
			stats.FailedExecutions++
		}

		executedAt := record.Timestamp.UTC()
		stats.LastExecutedAt = &executedAt

		if err := fp.saveWorkflowLocked(workflow); err != nil {
			return err
		}

		return fp.appendExecutionLocked(record)
	})
}
