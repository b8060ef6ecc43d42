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

func (fp *Persistence) taskPath(name string) string {
	return filepath.Clean(filepath.Join(fp.root, tasksDir, name+".json"))
}

// Tasks returns every stored scheduled task, sorted by name.
func (fp *Persistence) Tasks(ctx context.Context) ([]*models.ScheduledTask, error) {
	root := os.DirFS(filepath.Join(fp.root, tasksDir))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list task files: %w", err)
	}

	tasks := make([]*models.ScheduledTask, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		name := file[:len(file)-len(".json")]

		task, err := fp.TaskByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load task %s: %w", name, err)
		}

		tasks = append(tasks, task)
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].Name < tasks[j].Name
	})

	return tasks, nil
}

// TaskByName retrieves one scheduled-task document.
func (fp *Persistence) TaskByName(_ context.Context, name string) (*models.ScheduledTask, error) {
	body, err := os.ReadFile(fp.taskPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("task %s: %w", name, models.ErrTaskNotFound)
		}

		return nil, fmt.Errorf("failed to read task %s: %w", name, err)
	}

	var task models.ScheduledTask

	if err := json.Unmarshal(body, &task); err != nil {
		return nil, &models.ParseError{
			Document: fp.taskPath(name),
			Reason:   "malformed task document",
			Err:      err,
		}
	}

	return &task, nil
}

// CreateTask persists a new scheduled task, failing with ErrTaskExists on a
// duplicate name.
func (fp *Persistence) CreateTask(_ context.Context, task *models.ScheduledTask) error {
	return fp.withLock(func() error {
		if err := os.MkdirAll(filepath.Join(fp.root, tasksDir), dirMode); err != nil {
			return fmt.Errorf("failed to create tasks directory: %w", err)
		}

		if task.CreatedAt.IsZero() {
			task.CreatedAt = time.Now().UTC()
		}

		data, err := json.MarshalIndent(task, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal task %s: %w", task.Name, err)
		}

		f, err := os.OpenFile(fp.taskPath(task.Name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				return fmt.Errorf("task %s: %w", task.Name, models.ErrTaskExists)
			}

			return fmt.Errorf("failed to create task %s: %w", task.Name, err)
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()

			return fmt.Errorf("failed to write task %s: %w", task.Name, err)
		}

		return f.Close()
	})
}

// DeleteTask removes a scheduled-task document by name.
func (fp *Persistence) DeleteTask(_ context.Context, name string) error {
	return fp.withLock(func() error {
		err := os.Remove(fp.taskPath(name))
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("task %s: %w", name, models.ErrTaskNotFound)
			}

			return fmt.Errorf("failed to delete task %s: %w", name, err)
		}

		return nil
	})
}
